// Package api is a typed HTTP client for the GophDiary server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the diary HTTP API. The session token is held by the
// caller and passed per request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:3000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var ae APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var ae APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsUnreachable reports whether err came from the transport rather than
// from a server response.
func IsUnreachable(err error) bool {
	var ae APIError
	return err != nil && !errors.As(err, &ae)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/signup", credentials{username, password}, "", nil)
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", credentials{username, password}, "", &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, token, nil)
}

// Prompt returns the caller's summarization prompt.
func (c *Client) Prompt(ctx context.Context, token string) (string, error) {
	var resp struct {
		Prompt string `json:"prompt"`
	}
	if err := c.do(ctx, http.MethodGet, "/prompt", nil, token, &resp); err != nil {
		return "", err
	}
	return resp.Prompt, nil
}

// SetPrompt replaces the caller's summarization prompt.
func (c *Client) SetPrompt(ctx context.Context, token, prompt string) error {
	return c.do(ctx, http.MethodPost, "/prompt", map[string]string{"prompt": prompt}, token, nil)
}

// Created is the server's answer to a successful diary creation.
type Created struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

// CreateDiary turns a conversation into a diary entry.
func (c *Client) CreateDiary(ctx context.Context, token, conversation string) (Created, error) {
	var resp Created
	if err := c.do(ctx, http.MethodPost, "/diary", map[string]string{"conversation": conversation}, token, &resp); err != nil {
		return Created{}, err
	}
	return resp, nil
}

// ListItem is one row of the diary list.
type ListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Thumbnail string    `json:"thumbnail"`
}

// Diaries lists the caller's diaries, newest first.
func (c *Client) Diaries(ctx context.Context, token string) ([]ListItem, error) {
	var items []ListItem
	if err := c.do(ctx, http.MethodGet, "/diaries", nil, token, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Diary is a full diary record.
type Diary struct {
	ID           string    `json:"id"`
	User         string    `json:"user"`
	Conversation string    `json:"conversation"`
	Summary      string    `json:"summary"`
	Video        string    `json:"video"`
	Date         time.Time `json:"date"`
	Title        string    `json:"title"`
	Thumbnail    string    `json:"thumbnail"`
}

// Diary fetches a single diary owned by the caller.
func (c *Client) Diary(ctx context.Context, token, id string) (Diary, error) {
	var d Diary
	if err := c.do(ctx, http.MethodGet, "/diary/"+url.PathEscape(id), nil, token, &d); err != nil {
		return Diary{}, err
	}
	return d, nil
}

// SetTitle renames a diary.
func (c *Client) SetTitle(ctx context.Context, token, id, title string) error {
	return c.do(ctx, http.MethodPut, "/diary/"+url.PathEscape(id)+"/title", map[string]string{"title": title}, token, nil)
}

// SetThumbnail replaces a diary's thumbnail reference.
func (c *Client) SetThumbnail(ctx context.Context, token, id, thumbnail string) error {
	return c.do(ctx, http.MethodPut, "/diary/"+url.PathEscape(id)+"/thumbnail", map[string]string{"thumbnail": thumbnail}, token, nil)
}

// VideoURL returns a playable link for the diary's video.
func (c *Client) VideoURL(ctx context.Context, token, id string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/diary/"+url.PathEscape(id)+"/video", nil, token, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
