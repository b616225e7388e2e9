package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/repo"
)

// Hand-written test doubles for the repo interfaces.
// Each method is a function field; set only the ones your test needs.

type mockUserRepo struct {
	create        func(ctx context.Context, u domain.User) (domain.User, error)
	getByID       func(ctx context.Context, id uuid.UUID) (domain.User, error)
	getByUsername func(ctx context.Context, username string) (domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return m.create(ctx, u)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return m.getByUsername(ctx, username)
}

type mockSessionRepo struct {
	create        func(ctx context.Context, s domain.Session) (domain.Session, error)
	getByID       func(ctx context.Context, id uuid.UUID) (domain.Session, error)
	delete        func(ctx context.Context, id uuid.UUID) error
	deleteExpired func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, s domain.Session) (domain.Session, error) {
	return m.create(ctx, s)
}
func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	return m.getByID(ctx, id)
}
func (m *mockSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.deleteExpired(ctx, now)
}

type mockItineraryRepo struct {
	create     func(ctx context.Context, it domain.Itinerary, userID uuid.UUID) (domain.Itinerary, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Itinerary, error)
	listByUser func(ctx context.Context, userID uuid.UUID) ([]domain.Itinerary, error)
	update     func(ctx context.Context, it domain.Itinerary) (domain.Itinerary, error)
	delete     func(ctx context.Context, id uuid.UUID) error
	addUser    func(ctx context.Context, itineraryID, userID uuid.UUID) error
	removeUser func(ctx context.Context, itineraryID, userID uuid.UUID) error
	listUsers  func(ctx context.Context, itineraryID uuid.UUID) ([]domain.User, error)
}

func (m *mockItineraryRepo) Create(ctx context.Context, it domain.Itinerary, userID uuid.UUID) (domain.Itinerary, error) {
	return m.create(ctx, it, userID)
}
func (m *mockItineraryRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Itinerary, error) {
	return m.getByID(ctx, id)
}
func (m *mockItineraryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Itinerary, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockItineraryRepo) Update(ctx context.Context, it domain.Itinerary) (domain.Itinerary, error) {
	return m.update(ctx, it)
}
func (m *mockItineraryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockItineraryRepo) AddUser(ctx context.Context, itineraryID, userID uuid.UUID) error {
	return m.addUser(ctx, itineraryID, userID)
}
func (m *mockItineraryRepo) RemoveUser(ctx context.Context, itineraryID, userID uuid.UUID) error {
	return m.removeUser(ctx, itineraryID, userID)
}
func (m *mockItineraryRepo) ListUsers(ctx context.Context, itineraryID uuid.UUID) ([]domain.User, error) {
	return m.listUsers(ctx, itineraryID)
}

// compile-time checks: the mocks must satisfy the repo interfaces.
var (
	_ repo.UserRepo      = (*mockUserRepo)(nil)
	_ repo.SessionRepo   = (*mockSessionRepo)(nil)
	_ repo.ItineraryRepo = (*mockItineraryRepo)(nil)
)
