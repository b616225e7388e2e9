// Package handler implements the HTTP handlers for the travel itineraries API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, auth.go, itinerary.go, members.go, export.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/middleware"
	"github.com/pkordes/travel-itineraries/backend/internal/service"
)

// AuthServicer defines the account and session operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type AuthServicer interface {
	Signup(ctx context.Context, in service.SignupInput) (domain.User, domain.Session, error)
	Login(ctx context.Context, username, password string) (domain.User, domain.Session, error)
	Logout(ctx context.Context, token string) error
}

// ItineraryServicer defines the itinerary operations the handlers depend on.
// Every call is made on behalf of the user loaded from the session.
type ItineraryServicer interface {
	Create(ctx context.Context, userID uuid.UUID, in service.ItineraryInput) (domain.Itinerary, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Itinerary, error)
	Get(ctx context.Context, userID, id uuid.UUID) (domain.Itinerary, error)
	Update(ctx context.Context, userID, id uuid.UUID, in service.ItineraryInput) (domain.Itinerary, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ListMembers(ctx context.Context, userID, id uuid.UUID) ([]domain.User, error)
	AddMember(ctx context.Context, userID, id uuid.UUID, username string) ([]domain.User, error)
	RemoveMember(ctx context.Context, userID, id uuid.UUID, username string) error
}

// ExportServicer defines the export operation the handlers depend on.
type ExportServicer interface {
	Export(ctx context.Context, userID uuid.UUID) ([]domain.ExportRow, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Server holds the dependencies shared by every handler.
type Server struct {
	auth        AuthServicer
	itineraries ItineraryServicer
	exports     ExportServicer
	cookie      CookieConfig
	log         *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default.
func NewServer(auth AuthServicer, itineraries ItineraryServicer, exports ExportServicer, cookie CookieConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	return &Server{auth: auth, itineraries: itineraries, exports: exports, cookie: cookie, log: log}
}

// Routes returns the API router. authLimit, when non-nil, wraps the
// credential endpoints (signup and login).
//
// The caller is expected to install the session loader ahead of these
// routes; everything under /itineraries requires a loaded user.
func (s *Server) Routes(authLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Get("/", s.Home)
	r.Get("/session", s.GetSession)
	r.Post("/logout", s.Logout)
	r.Group(func(r chi.Router) {
		if authLimit != nil {
			r.Use(authLimit)
		}
		r.Post("/signup", s.Signup)
		r.Post("/login", s.Login)
	})

	r.Route("/itineraries", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", s.ListItineraries)
		r.Post("/", s.CreateItinerary)
		r.Get("/export", s.ExportItineraries)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetItinerary)
			r.Put("/", s.UpdateItinerary)
			r.Post("/", s.UpdateItinerary)
			r.Post("/update", s.UpdateItinerary)
			r.Delete("/", s.DeleteItinerary)
			r.Post("/delete", s.DeleteItinerary)

			r.Get("/users", s.ListMembers)
			r.Post("/users", s.AddMember)
			r.Delete("/users/{username}", s.RemoveMember)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})
	return r
}

// currentUser returns the user RequireUser guaranteed is present.
func currentUser(r *http.Request) domain.User {
	u, _ := middleware.UserFromContext(r.Context())
	return u
}
