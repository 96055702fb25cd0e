package httpx

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Take(ctx context.Context, key string, rule rateRule) quota
	Close()
}

// rateRule allows limit requests per window. A zero limit disables it.
type rateRule struct {
	limit  int
	window time.Duration
}

func (rr rateRule) windowOrDefault() time.Duration {
	if rr.window <= 0 {
		return time.Minute
	}
	return rr.window
}

// quota is what a key has spent in its current window. A zero resetIn means
// the limiter could not tell and the request was let through.
type quota struct {
	used    int
	resetAt time.Time
	resetIn time.Duration
}

func unlimited() quota { return quota{} }

func (q quota) exceeds(rule rateRule) bool {
	return rule.limit > 0 && q.used > rule.limit
}

func (q quota) setHeaders(h http.Header, rule rateRule) {
	if rule.limit <= 0 || q.resetAt.IsZero() {
		return
	}
	h.Set("X-RateLimit-Limit", strconv.Itoa(rule.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(rule.limit-q.used, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(q.resetAt.Unix(), 10))
	if q.exceeds(rule) {
		h.Set("Retry-After", strconv.Itoa(max(int(math.Ceil(q.resetIn.Seconds())), 1)))
	}
}

// limited charges keyOf(req) against rule before calling next. Requests
// without a key are charged to the client address.
func (r *Router) limited(rule rateRule, keyOf func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	if rule.limit <= 0 || r.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, req *http.Request) {
		key := keyOf(req)
		if key == "" {
			key = clientIPKey(req)
		}
		q := r.limiter.Take(req.Context(), key, rule)
		q.setHeaders(w.Header(), rule)
		if q.exceeds(rule) {
			r.recordRateLimitHit(routeLabel(req), keyKind(key))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, req)
	}
}

// limitedPerUser authenticates first so the quota belongs to the user.
func (r *Router) limitedPerUser(rule rateRule, next http.HandlerFunc) http.HandlerFunc {
	return r.requireAuth(r.limited(rule, userKey, next))
}

func userKey(req *http.Request) string {
	claims, ok := sessionFromContext(req.Context())
	if !ok || claims.UserID == "" {
		return ""
	}
	return "user:" + claims.UserID
}

func clientIPKey(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	if host == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}

// keyKind keeps metric label cardinality bounded: "ip" or "user".
func keyKind(key string) string {
	kind, _, found := strings.Cut(key, ":")
	if !found || kind == "" {
		return "unknown"
	}
	return kind
}
