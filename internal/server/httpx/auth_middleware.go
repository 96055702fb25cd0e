package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/server/auth"
)

type authContextKey string

const contextKeySession authContextKey = "gophdiary-session"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request has a valid bearer token before invoking the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth validates the Authorization header and attaches the session
// claims to the context. The credential store is not consulted.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, bool) {
	token, ok := bearerToken(req.Header.Get("Authorization"))
	if !ok {
		writeError(w, http.StatusUnauthorized, common.ErrMissingToken.Error())
		return req.Context(), false
	}
	claims, err := r.users.Authorize(req.Context(), token)
	if err != nil {
		r.logger.Warn(req.Context(), "token validation failed", "error", err, "path", req.URL.Path)
		status, msg := errorResponse(err)
		writeError(w, status, msg)
		return req.Context(), false
	}
	return context.WithValue(req.Context(), contextKeySession, claims), true
}

// sessionFromContext returns the claims attached by requireAuth.
func sessionFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(contextKeySession).(*auth.Claims)
	return claims, ok && claims != nil
}

// bearerToken extracts the token from "Bearer <token>". Any other shape,
// including an empty token, counts as no token at all.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", false
	}
	return parts[1], true
}
