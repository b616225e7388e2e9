package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
)

// SessionResolver turns a session token into the user it belongs to.
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

type ctxKeyUser struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, user)
}

// UserFromContext returns the user loaded by NewSessionLoader, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(domain.User)
	return u, ok
}

// NewSessionLoader reads the session cookie and, when it resolves, puts the
// user into the request context. Requests without a valid session continue
// anonymously; store failures are logged and treated the same way.
func NewSessionLoader(resolver SessionResolver, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := resolver.Authenticate(r.Context(), c.Value)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					log.ErrorContext(r.Context(), "session lookup failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeError(w, r, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
