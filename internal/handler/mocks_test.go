package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/handler"
	"github.com/pkordes/travel-itineraries/backend/internal/middleware"
	"github.com/pkordes/travel-itineraries/backend/internal/service"
)

// mockAuthServicer is a test double for handler.AuthServicer.
// Set only the method fields your test needs.
type mockAuthServicer struct {
	signup func(ctx context.Context, in service.SignupInput) (domain.User, domain.Session, error)
	login  func(ctx context.Context, username, password string) (domain.User, domain.Session, error)
	logout func(ctx context.Context, token string) error
}

func (m *mockAuthServicer) Signup(ctx context.Context, in service.SignupInput) (domain.User, domain.Session, error) {
	return m.signup(ctx, in)
}
func (m *mockAuthServicer) Login(ctx context.Context, username, password string) (domain.User, domain.Session, error) {
	return m.login(ctx, username, password)
}
func (m *mockAuthServicer) Logout(ctx context.Context, token string) error {
	return m.logout(ctx, token)
}

// mockItineraryServicer is a test double for handler.ItineraryServicer.
type mockItineraryServicer struct {
	create       func(ctx context.Context, userID uuid.UUID, in service.ItineraryInput) (domain.Itinerary, error)
	listForUser  func(ctx context.Context, userID uuid.UUID) ([]domain.Itinerary, error)
	get          func(ctx context.Context, userID, id uuid.UUID) (domain.Itinerary, error)
	update       func(ctx context.Context, userID, id uuid.UUID, in service.ItineraryInput) (domain.Itinerary, error)
	delete       func(ctx context.Context, userID, id uuid.UUID) error
	listMembers  func(ctx context.Context, userID, id uuid.UUID) ([]domain.User, error)
	addMember    func(ctx context.Context, userID, id uuid.UUID, username string) ([]domain.User, error)
	removeMember func(ctx context.Context, userID, id uuid.UUID, username string) error
}

func (m *mockItineraryServicer) Create(ctx context.Context, userID uuid.UUID, in service.ItineraryInput) (domain.Itinerary, error) {
	return m.create(ctx, userID, in)
}
func (m *mockItineraryServicer) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Itinerary, error) {
	return m.listForUser(ctx, userID)
}
func (m *mockItineraryServicer) Get(ctx context.Context, userID, id uuid.UUID) (domain.Itinerary, error) {
	return m.get(ctx, userID, id)
}
func (m *mockItineraryServicer) Update(ctx context.Context, userID, id uuid.UUID, in service.ItineraryInput) (domain.Itinerary, error) {
	return m.update(ctx, userID, id, in)
}
func (m *mockItineraryServicer) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}
func (m *mockItineraryServicer) ListMembers(ctx context.Context, userID, id uuid.UUID) ([]domain.User, error) {
	return m.listMembers(ctx, userID, id)
}
func (m *mockItineraryServicer) AddMember(ctx context.Context, userID, id uuid.UUID, username string) ([]domain.User, error) {
	return m.addMember(ctx, userID, id, username)
}
func (m *mockItineraryServicer) RemoveMember(ctx context.Context, userID, id uuid.UUID, username string) error {
	return m.removeMember(ctx, userID, id, username)
}

// mockExportServicer is a test double for handler.ExportServicer.
type mockExportServicer struct {
	export func(ctx context.Context, userID uuid.UUID) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context, userID uuid.UUID) ([]domain.ExportRow, error) {
	return m.export(ctx, userID)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.AuthServicer      = (*mockAuthServicer)(nil)
	_ handler.ItineraryServicer = (*mockItineraryServicer)(nil)
	_ handler.ExportServicer    = (*mockExportServicer)(nil)
)

// newHTTPHandler wires a Server with the given mocks into its chi router.
// When as is non-nil the request carries that user, as if the session
// loader had resolved a cookie.
func newHTTPHandler(auth handler.AuthServicer, its handler.ItineraryServicer, as *domain.User) http.Handler {
	return newHTTPHandlerWithExport(auth, its, nil, as)
}

// newHTTPHandlerWithExport is newHTTPHandler with an export service.
func newHTTPHandlerWithExport(auth handler.AuthServicer, its handler.ItineraryServicer, exports handler.ExportServicer, as *domain.User) http.Handler {
	srv := handler.NewServer(auth, its, exports, handler.CookieConfig{Name: "session"}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	h := srv.Routes(nil)
	if as == nil {
		return h
	}
	user := *as
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), user)))
	})
}
