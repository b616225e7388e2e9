// Package memory is an in-process implementation of the repo interfaces.
// It backs STORAGE_BACKEND=memory and the handler end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/repo"
)

// Store holds users, sessions, itineraries and their links behind a single
// lock so that cross-table operations (cascading deletes, link checks) are
// atomic. It is safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users       map[uuid.UUID]domain.User
	usernames   map[string]uuid.UUID // lower(username) -> id
	sessions    map[uuid.UUID]domain.Session
	itineraries map[uuid.UUID]domain.Itinerary
	links       map[uuid.UUID]map[uuid.UUID]struct{} // itinerary -> users
}

// NewStore returns an empty store. now stamps created/updated times;
// nil means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:         now,
		users:       make(map[uuid.UUID]domain.User),
		usernames:   make(map[string]uuid.UUID),
		sessions:    make(map[uuid.UUID]domain.Session),
		itineraries: make(map[uuid.UUID]domain.Itinerary),
		links:       make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Users returns a repo.UserRepo view of the store.
func (s *Store) Users() repo.UserRepo { return userRepo{s} }

// Sessions returns a repo.SessionRepo view of the store.
func (s *Store) Sessions() repo.SessionRepo { return sessionRepo{s} }

// Itineraries returns a repo.ItineraryRepo view of the store.
func (s *Store) Itineraries() repo.ItineraryRepo { return itineraryRepo{s} }

// ---- users ----

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u domain.User) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, taken := r.s.usernames[key]; taken {
		return domain.User{}, fmt.Errorf("memory.UserRepo.Create: %w: username", domain.ErrConflict)
	}
	u.ID = uuid.New()
	u.CreatedAt = r.s.now().UTC()
	r.s.users[u.ID] = u
	r.s.usernames[key] = u.ID
	return u, nil
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("memory.UserRepo.GetByID: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usernames[strings.ToLower(username)]
	if !ok || r.s.users[id].Username != username {
		return domain.User{}, fmt.Errorf("memory.UserRepo.GetByUsername: %w", domain.ErrNotFound)
	}
	return r.s.users[id], nil
}

// ---- sessions ----

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, sess domain.Session) (domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[sess.UserID]; !ok {
		return domain.Session{}, fmt.Errorf("memory.SessionRepo.Create: %w: user", domain.ErrNotFound)
	}
	sess.ID = uuid.New()
	sess.CreatedAt = r.s.now().UTC()
	sess.Token = ""
	r.s.sessions[sess.ID] = sess
	return sess, nil
}

func (r sessionRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("memory.SessionRepo.GetByID: %w", domain.ErrNotFound)
	}
	return sess, nil
}

func (r sessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[id]; !ok {
		return fmt.Errorf("memory.SessionRepo.Delete: %w", domain.ErrNotFound)
	}
	delete(r.s.sessions, id)
	return nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, sess := range r.s.sessions {
		if sess.Expired(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// ---- itineraries ----

type itineraryRepo struct{ s *Store }

func (r itineraryRepo) Create(_ context.Context, it domain.Itinerary, userID uuid.UUID) (domain.Itinerary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return domain.Itinerary{}, fmt.Errorf("memory.ItineraryRepo.Create: %w: user", domain.ErrNotFound)
	}
	now := r.s.now().UTC()
	it.ID = uuid.New()
	it.CreatedAt = now
	it.UpdatedAt = now
	it.UserIDs = nil
	r.s.itineraries[it.ID] = it
	r.s.links[it.ID] = map[uuid.UUID]struct{}{userID: {}}
	return r.s.load(it.ID), nil
}

func (r itineraryRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Itinerary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.itineraries[id]; !ok {
		return domain.Itinerary{}, fmt.Errorf("memory.ItineraryRepo.GetByID: %w", domain.ErrNotFound)
	}
	return r.s.load(id), nil
}

func (r itineraryRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Itinerary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Itinerary{}
	for id, members := range r.s.links {
		if _, ok := members[userID]; ok {
			out = append(out, r.s.load(id))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (r itineraryRepo) Update(_ context.Context, it domain.Itinerary) (domain.Itinerary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.itineraries[it.ID]
	if !ok {
		return domain.Itinerary{}, fmt.Errorf("memory.ItineraryRepo.Update: %w", domain.ErrNotFound)
	}
	cur.Title = it.Title
	cur.StartDate = it.StartDate
	cur.EndDate = it.EndDate
	cur.Location = it.Location
	cur.Notes = it.Notes
	cur.UpdatedAt = r.s.now().UTC()
	r.s.itineraries[it.ID] = cur
	return r.s.load(it.ID), nil
}

func (r itineraryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.itineraries[id]; !ok {
		return fmt.Errorf("memory.ItineraryRepo.Delete: %w", domain.ErrNotFound)
	}
	delete(r.s.itineraries, id)
	delete(r.s.links, id)
	return nil
}

func (r itineraryRepo) AddUser(_ context.Context, itineraryID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.itineraries[itineraryID]; !ok {
		return fmt.Errorf("memory.ItineraryRepo.AddUser: %w: itinerary", domain.ErrNotFound)
	}
	if _, ok := r.s.users[userID]; !ok {
		return fmt.Errorf("memory.ItineraryRepo.AddUser: %w: user", domain.ErrNotFound)
	}
	r.s.links[itineraryID][userID] = struct{}{}
	return nil
}

func (r itineraryRepo) RemoveUser(_ context.Context, itineraryID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	members := r.s.links[itineraryID]
	if _, ok := members[userID]; !ok {
		return fmt.Errorf("memory.ItineraryRepo.RemoveUser: %w", domain.ErrNotFound)
	}
	delete(members, userID)
	return nil
}

func (r itineraryRepo) ListUsers(_ context.Context, itineraryID uuid.UUID) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.User{}
	for userID := range r.s.links[itineraryID] {
		out = append(out, r.s.users[userID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// load returns a copy of the itinerary with its user ids filled in, sorted
// so results are deterministic. Caller must hold mu.
func (s *Store) load(id uuid.UUID) domain.Itinerary {
	it := s.itineraries[id]
	it.UserIDs = make([]uuid.UUID, 0, len(s.links[id]))
	for userID := range s.links[id] {
		it.UserIDs = append(it.UserIDs, userID)
	}
	slices.SortFunc(it.UserIDs, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	return it
}
