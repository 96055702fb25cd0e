package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/server/auth"
	"github.com/dmitrijs2005/gophdiary/internal/server/generators"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdiary/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gophdiary/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubSynth struct {
	mu  sync.Mutex
	err error
}

func (s *stubSynth) Synthesize(ctx context.Context, summary string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return "videos/stub.mp4", nil
}

type testEnv struct {
	srv    *httptest.Server
	router *Router
	synth  *stubSynth
	reg    *prometheus.Registry
}

func newTestEnv(t *testing.T, dbHealth func(context.Context) error) *testEnv {
	t.Helper()
	return newTestEnvWithRevoker(t, dbHealth, revocations.NewMemoryRepository())
}

func newTestEnvWithRevoker(t *testing.T, dbHealth func(context.Context) error, revoker auth.Revoker) *testEnv {
	t.Helper()
	m := repomanager.NewMemoryRepositoryManager()
	tokens := auth.NewTokenService([]byte("http-test"), time.Hour, time.Hour, revoker)
	users := services.NewUserService(nil, m, tokens, cryptox.NewPasswordHasher(bcrypt.MinCost), logging.Nop())
	synth := &stubSynth{}
	diaries := services.NewDiaryService(nil, m, services.Capabilities{
		Summarizer:  generators.EchoSummarizer{},
		Synthesizer: synth,
	}, nil, logging.Nop())

	reg := prometheus.NewRegistry()
	router, err := NewRouter(logging.Nop(), users, diaries, nil, reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), dbHealth)
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		router.Close()
	})
	return &testEnv{srv: srv, router: router, synth: synth, reg: reg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any, []byte) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func (e *testEnv) signupLogin(t *testing.T, user, pw string) string {
	t.Helper()
	status, body, _ := e.do(t, http.MethodPost, "/signup", "", map[string]string{"username": user, "password": pw})
	require.Equal(t, http.StatusOK, status, "signup: %v", body)
	assert.Equal(t, true, body["ok"])

	status, body, _ = e.do(t, http.MethodPost, "/login", "", map[string]string{"username": user, "password": pw})
	require.Equal(t, http.StatusOK, status, "login: %v", body)
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func TestAliceScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.signupLogin(t, "alice", "pw1")

	status, body, _ := env.do(t, http.MethodPost, "/diary", tok, map[string]string{"conversation": "Hello world, today was great"})
	require.Equal(t, http.StatusOK, status, "%v", body)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Hello world, today was great", body["summary"])

	status, _, raw := env.do(t, http.MethodGet, "/diaries", tok, nil)
	require.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])
	assert.Equal(t, "Hello world, today w", list[0]["title"])
	assert.Equal(t, "", list[0]["thumbnail"])
	assert.NotEmpty(t, list[0]["date"])

	status, body, _ = env.do(t, http.MethodGet, "/diary/"+id, tok, nil)
	require.Equal(t, http.StatusOK, status)
	for _, k := range []string{"id", "user", "conversation", "summary", "video", "date", "title", "thumbnail"} {
		assert.Contains(t, body, k)
	}

	status, body, _ = env.do(t, http.MethodPut, "/diary/"+id+"/title", tok, map[string]string{"title": "Sunny"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	status, _, _ = env.do(t, http.MethodPut, "/diary/"+id+"/thumbnail", tok, map[string]string{"thumbnail": "t.png"})
	require.Equal(t, http.StatusOK, status)

	_, body, _ = env.do(t, http.MethodGet, "/diary/"+id, tok, nil)
	assert.Equal(t, "Sunny", body["title"])
	assert.Equal(t, "t.png", body["thumbnail"])

	status, body, _ = env.do(t, http.MethodGet, "/diary/"+id+"/video", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "videos/stub.mp4", body["url"])
}

func TestBobCannotSeeAlice(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.signupLogin(t, "alice", "pw1")
	bob := env.signupLogin(t, "bob", "pw2")

	_, body, _ := env.do(t, http.MethodPost, "/diary", alice, map[string]string{"conversation": "private"})
	id := body["id"].(string)

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/diary/" + id, nil},
		{http.MethodPut, "/diary/" + id + "/title", map[string]string{"title": "x"}},
		{http.MethodPut, "/diary/" + id + "/thumbnail", map[string]string{"thumbnail": "x"}},
		{http.MethodGet, "/diary/" + id + "/video", nil},
		{http.MethodGet, "/diary/00000000-0000-4000-8000-000000000000", nil},
		{http.MethodGet, "/diary/not-a-uuid", nil},
	}
	for _, c := range cases {
		status, body, _ := env.do(t, c.method, c.path, bob, c.body)
		assert.Equal(t, http.StatusNotFound, status, "%s %s", c.method, c.path)
		assert.Equal(t, "not found", body["error"])
	}

	_, body, _ = env.do(t, http.MethodGet, "/diary/"+id, alice, nil)
	assert.Equal(t, "private", body["title"])
}

func TestSessionGuard(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodGet, "/diaries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing token", body["error"])

	status, body, _ = env.do(t, http.MethodGet, "/diaries", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", body["error"])

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/prompt", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, err := env.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupAndLoginErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signupLogin(t, "alice", "pw1")

	status, body, _ := env.do(t, http.MethodPost, "/signup", "", map[string]string{"username": "alice", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "user exists", body["error"])

	status, body, _ = env.do(t, http.MethodPost, "/signup", "", map[string]string{"username": "carol"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing credentials", body["error"])

	status, wrong, _ := env.do(t, http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusBadRequest, status)
	status2, missing, _ := env.do(t, http.MethodPost, "/login", "", map[string]string{"username": "ghost", "password": "pw1"})
	assert.Equal(t, status, status2)
	assert.Equal(t, wrong, missing)

	status, body, _ = env.do(t, http.MethodPost, "/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid JSON body", body["error"])
}

func TestPromptEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.signupLogin(t, "bob", "pw")

	_, body, _ := env.do(t, http.MethodGet, "/prompt", tok, nil)
	assert.Equal(t, "", body["prompt"])

	status, _, _ := env.do(t, http.MethodPost, "/prompt", tok, map[string]string{"prompt": "cheerful"})
	require.Equal(t, http.StatusOK, status)
	_, body, _ = env.do(t, http.MethodGet, "/prompt", tok, nil)
	assert.Equal(t, "cheerful", body["prompt"])

	_, body, _ = env.do(t, http.MethodPost, "/diary", tok, map[string]string{"conversation": "we walked"})
	assert.Equal(t, "[cheerful] we walked", body["summary"])

	status, _, _ = env.do(t, http.MethodPost, "/prompt", tok, map[string]string{"prompt": ""})
	require.Equal(t, http.StatusOK, status)
	_, body, _ = env.do(t, http.MethodGet, "/prompt", tok, nil)
	assert.Equal(t, "", body["prompt"])
}

func TestCreateDiaryErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.signupLogin(t, "dan", "pw")

	status, body, _ := env.do(t, http.MethodPost, "/diary", tok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing conversation", body["error"])

	env.synth.mu.Lock()
	env.synth.err = errors.New("renderer down")
	env.synth.mu.Unlock()

	status, body, _ = env.do(t, http.MethodPost, "/diary", tok, map[string]string{"conversation": "x"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "diary generation failed", body["error"])

	_, _, raw := env.do(t, http.MethodGet, "/diaries", tok, nil)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestListOrderNewestFirst(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.signupLogin(t, "erin", "pw")

	_, e1, _ := env.do(t, http.MethodPost, "/diary", tok, map[string]string{"conversation": "first"})
	_, e2, _ := env.do(t, http.MethodPost, "/diary", tok, map[string]string{"conversation": "second"})

	_, _, raw := env.do(t, http.MethodGet, "/diaries", tok, nil)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 2)
	assert.Equal(t, e2["id"], list[0]["id"])
	assert.Equal(t, e1["id"], list[1]["id"])
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.signupLogin(t, "fay", "pw")

	status, body, _ := env.do(t, http.MethodPost, "/logout", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	status, body, _ = env.do(t, http.MethodGet, "/prompt", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", body["error"])
}

func TestSignupRateLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < signupRule.limit; i++ {
		status, _, _ := env.do(t, http.MethodPost, "/signup", "", map[string]string{"username": "", "password": ""})
		require.Equal(t, http.StatusBadRequest, status)
	}
	status, body, _ := env.do(t, http.MethodPost, "/signup", "", map[string]string{"username": "u", "password": "p"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestHealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, _, raw := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "gophdiary_api_http_requests_total")
	assert.Contains(t, string(raw), `route="GET /healthz"`)

	degraded := newTestEnv(t, func(context.Context) error { return errors.New("db gone") })
	status, body, _ = degraded.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)
	status, _, _ := env.do(t, http.MethodDelete, "/diary/abc", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestRevocationStoreDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	e := newTestEnvWithRevoker(t, nil, revocations.NewRedisRepository(client))
	tok := e.signupLogin(t, "alice", "pw1")

	status, _, _ := e.do(t, http.MethodGet, "/prompt", tok, nil)
	require.Equal(t, http.StatusOK, status)

	mr.Close()

	status, body, _ := e.do(t, http.MethodGet, "/prompt", tok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "session store unavailable", body["error"])

	status, _, _ = e.do(t, http.MethodPost, "/logout", tok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
