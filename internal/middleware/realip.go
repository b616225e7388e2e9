package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRealIPHandler rewrites RemoteAddr from X-Forwarded-For / X-Real-IP when
// trusted is set, using chi's RealIP. Otherwise RemoteAddr stays the socket
// peer, so forwarding headers cannot change which rate-limit bucket a
// client lands in.
func NewRealIPHandler(trusted bool) func(http.Handler) http.Handler {
	if trusted {
		return chimiddleware.RealIP
	}
	return func(next http.Handler) http.Handler { return next }
}
