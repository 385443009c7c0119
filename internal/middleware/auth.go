package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"plandera/internal/model"
	"plandera/internal/service"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey    = contextKey("user")
	SessionContextKey = contextKey("session")
)

// SessionResolver turns a raw token into a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.Session, error)
}

// TokenFromRequest returns the bearer token, or the session cookie value up to
// its first '.', which separates the token from its signature.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	token, _, _ := strings.Cut(c.Value, ".")
	return token
}

// SessionFromContext returns the session stored by the auth middleware.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*model.Session)
	return s, ok && s != nil
}

func withSession(r *http.Request, sess *model.Session) *http.Request {
	ctx := context.WithValue(r.Context(), UserContextKey, sess.UserID)
	ctx = context.WithValue(ctx, SessionContextKey, sess)
	return r.WithContext(ctx)
}

// AuthMiddleware rejects requests without a live session with 401.
func AuthMiddleware(resolver SessionResolver, cookieName string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				writeUnauthorized(w)
				return
			}
			sess, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthorized) {
					logger.Error().Err(err).Str("path", r.URL.Path).Msg("Session lookup failed")
				}
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, withSession(r, sess))
		})
	}
}

// OptionalAuthMiddleware attaches the session when one resolves and passes
// every request through.
func OptionalAuthMiddleware(resolver SessionResolver, cookieName string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := TokenFromRequest(r, cookieName); token != "" {
				sess, err := resolver.Resolve(r.Context(), token)
				if err == nil {
					r = withSession(r, sess)
				} else if !errors.Is(err, service.ErrUnauthorized) {
					logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Session lookup failed")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
