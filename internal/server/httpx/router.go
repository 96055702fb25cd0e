// Package httpx exposes the diary services over JSON/HTTP: the public
// signup/login endpoints, the bearer-token guarded diary API, health and
// Prometheus metrics.
package httpx

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/server/auth"
	"github.com/dmitrijs2005/gophdiary/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   logging.Logger
	users    *services.UserService
	diaries  *services.DiaryService
	limiter  RateLimiter
	dbHealth func(context.Context) error

	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimitHits  *prometheus.CounterVec
}

const (
	healthCheckTimeout = 2 * time.Second
	maxBodyBytes       = 1 << 20
)

var (
	signupRule = rateRule{limit: 5, window: time.Minute}
	loginRule  = rateRule{limit: 12, window: time.Minute}
	userRule   = rateRule{limit: 120, window: time.Minute}
)

// NewRouter assembles routes with dependencies. A nil limiter gets an
// in-memory one; metrics may be nil to leave /metrics unrouted; dbHealth may
// be nil when there is no database.
func NewRouter(logger logging.Logger, users *services.UserService, diaries *services.DiaryService, limiter RateLimiter, reg prometheus.Registerer, metrics http.Handler, dbHealth func(context.Context) error) (*Router, error) {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger.With("module", "http"),
		users:    users,
		diaries:  diaries,
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter(nil)
	}
	if err := r.initMetrics(reg); err != nil {
		return nil, err
	}
	r.register(metrics)
	return r, nil
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register(metrics http.Handler) {
	r.mux.HandleFunc("GET /healthz", r.audit(r.handleHealthz))
	if metrics != nil {
		r.mux.Handle("GET /metrics", metrics)
	}

	r.mux.HandleFunc("POST /signup", r.audit(r.limited(signupRule, clientIPKey, r.handleSignup)))
	r.mux.HandleFunc("POST /login", r.audit(r.limited(loginRule, clientIPKey, r.handleLogin)))
	r.mux.HandleFunc("POST /logout", r.audit(r.limitedPerUser(userRule, r.handleLogout)))

	r.mux.HandleFunc("GET /prompt", r.audit(r.limitedPerUser(userRule, r.handleGetPrompt)))
	r.mux.HandleFunc("POST /prompt", r.audit(r.limitedPerUser(userRule, r.handleSetPrompt)))

	r.mux.HandleFunc("POST /diary", r.audit(r.limitedPerUser(userRule, r.handleCreateDiary)))
	r.mux.HandleFunc("GET /diaries", r.audit(r.limitedPerUser(userRule, r.handleListDiaries)))
	r.mux.HandleFunc("GET /diary/{id}", r.audit(r.limitedPerUser(userRule, r.handleGetDiary)))
	r.mux.HandleFunc("PUT /diary/{id}/title", r.audit(r.limitedPerUser(userRule, r.handleUpdateTitle)))
	r.mux.HandleFunc("PUT /diary/{id}/thumbnail", r.audit(r.limitedPerUser(userRule, r.handleUpdateThumbnail)))
	r.mux.HandleFunc("GET /diary/{id}/video", r.audit(r.limitedPerUser(userRule, r.handleVideo)))
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	var payload credentialsPayload
	if !decodeJSON(w, req, &payload) {
		return
	}
	if _, err := r.users.Register(req.Context(), payload.Username, payload.Password); err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeOK(w)
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload credentialsPayload
	if !decodeJSON(w, req, &payload) {
		return
	}
	token, err := r.users.Login(req.Context(), payload.Username, payload.Password)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	if err := r.users.Logout(req.Context(), claims); err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeOK(w)
}

func (r *Router) handleGetPrompt(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	prompt, err := r.users.GetPrompt(req.Context(), claims.UserID)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func (r *Router) handleSetPrompt(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	var payload struct {
		Prompt string `json:"prompt"`
	}
	if !decodeJSON(w, req, &payload) {
		return
	}
	if err := r.users.SetPrompt(req.Context(), claims.UserID, payload.Prompt); err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeOK(w)
}

func (r *Router) handleCreateDiary(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	var payload struct {
		Conversation string `json:"conversation"`
	}
	if !decodeJSON(w, req, &payload) {
		return
	}
	d, err := r.diaries.Create(req.Context(), claims.UserID, payload.Conversation)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": d.ID, "summary": d.Summary})
}

func (r *Router) handleListDiaries(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	list, err := r.diaries.List(req.Context(), claims.UserID)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (r *Router) handleGetDiary(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	d, err := r.diaries.Get(req.Context(), req.PathValue("id"), claims.UserID)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (r *Router) handleUpdateTitle(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	var payload struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, req, &payload) {
		return
	}
	if err := r.diaries.UpdateTitle(req.Context(), req.PathValue("id"), claims.UserID, payload.Title); err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeOK(w)
}

func (r *Router) handleUpdateThumbnail(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	var payload struct {
		Thumbnail string `json:"thumbnail"`
	}
	if !decodeJSON(w, req, &payload) {
		return
	}
	if err := r.diaries.UpdateThumbnail(req.Context(), req.PathValue("id"), claims.UserID, payload.Thumbnail); err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeOK(w)
}

func (r *Router) handleVideo(w http.ResponseWriter, req *http.Request) {
	claims, ok := r.session(w, req)
	if !ok {
		return
	}
	url, err := r.diaries.VideoURL(req.Context(), req.PathValue("id"), claims.UserID)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Warn(req.Context(), "database health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session returns the authenticated caller. A handler reached without
// requireAuth is a wiring bug.
func (r *Router) session(w http.ResponseWriter, req *http.Request) (*auth.Claims, bool) {
	claims, ok := sessionFromContext(req.Context())
	if !ok {
		r.logger.Error(req.Context(), "auth context missing", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return nil, false
	}
	return claims, true
}

func (r *Router) serviceError(w http.ResponseWriter, req *http.Request, err error) {
	status, msg := errorResponse(err)
	if status >= http.StatusInternalServerError {
		r.logger.Error(req.Context(), "request failed", "path", req.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

func decodeJSON(w http.ResponseWriter, req *http.Request, dst any) bool {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		route := routeLabel(req)
		fields := []any{
			"method", req.Method,
			"route", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if claims, ok := sessionFromContext(ctx); ok {
			fields = append(fields, "user_id", claims.UserID)
		}
		r.logger.Info(ctx, "http request", fields...)
		r.recordRequestMetrics(req.Method, route, status, duration)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

// routeLabel is the matched mux pattern, which keeps path parameters out
// of metric labels.
func routeLabel(req *http.Request) string {
	if req.Pattern != "" {
		return req.Pattern
	}
	return req.URL.Path
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		if ip, _, _ := strings.Cut(forwarded, ","); strings.TrimSpace(ip) != "" {
			return strings.TrimSpace(ip)
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
