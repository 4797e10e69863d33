// Package auth authenticates requests carrying a bearer token and exposes
// the verified user id to handlers.
package auth

import (
	"context"
	"net/http"
	"strings"

	"feed-digest/internal/handler/http/respond"
	"feed-digest/internal/observability/logging"
)

type ctxKey string

const ctxUserID ctxKey = "user_id"

// TokenVerifier resolves a bearer token to a user id.
// service/auth.TokenService implements it.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// WithUserID stores an authenticated user id in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxUserID).(int64)
	return id, ok && id > 0
}

// Authz returns middleware that requires "Authorization: Bearer <token>"
// and responds 401 for a missing or invalid token.
func Authz(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				recordRejection("missing")
				w.Header().Set("WWW-Authenticate", `Bearer realm="feed-digest"`)
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				recordRejection("invalid")
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="feed-digest", error="invalid_token"`)
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := WithUserID(r.Context(), userID)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
