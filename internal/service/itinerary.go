// Package service contains the business logic for the travel itineraries API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/repo"
)

// MaxTextLength bounds title and location, in characters.
const MaxTextLength = 200

// ItineraryInput carries the editable fields of an itinerary as submitted.
// Dates are kept as strings so a malformed date is reported against its field.
type ItineraryInput struct {
	Title     string
	StartDate string
	EndDate   string
	Location  string
	Notes     string
}

// ItineraryService implements business logic for itineraries. Every
// operation is scoped to the calling user: an itinerary the caller is not
// linked to behaves exactly like one that does not exist.
type ItineraryService struct {
	itineraries repo.ItineraryRepo
	users       repo.UserRepo
}

// NewItineraryService constructs an ItineraryService backed by the provided repos.
func NewItineraryService(itineraries repo.ItineraryRepo, users repo.UserRepo) *ItineraryService {
	return &ItineraryService{itineraries: itineraries, users: users}
}

// Create validates the input and persists a new itinerary linked to userID.
// Returns domain.FieldErrors if input violates business rules.
func (s *ItineraryService) Create(ctx context.Context, userID uuid.UUID, in ItineraryInput) (domain.Itinerary, error) {
	it, err := validateItinerary(in)
	if err != nil {
		return domain.Itinerary{}, err
	}
	result, err := s.itineraries.Create(ctx, it, userID)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Create: %w", err)
	}
	return result, nil
}

// ListForUser returns the itineraries linked to userID.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItineraryService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Itinerary, error) {
	list, err := s.itineraries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.ListForUser: %w", err)
	}
	if list == nil {
		return []domain.Itinerary{}, nil
	}
	return list, nil
}

// Get returns a single itinerary the caller is linked to.
// Returns domain.ErrNotFound if it does not exist or the caller is not a member.
func (s *ItineraryService) Get(ctx context.Context, userID, id uuid.UUID) (domain.Itinerary, error) {
	it, err := s.member(ctx, userID, id)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Get: %w", err)
	}
	return it, nil
}

// Update overwrites every editable field of an itinerary the caller is linked to.
// Membership is checked before validation so a non-member learns nothing.
func (s *ItineraryService) Update(ctx context.Context, userID, id uuid.UUID, in ItineraryInput) (domain.Itinerary, error) {
	if _, err := s.member(ctx, userID, id); err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Update: %w", err)
	}
	it, err := validateItinerary(in)
	if err != nil {
		return domain.Itinerary{}, err
	}
	it.ID = id
	result, err := s.itineraries.Update(ctx, it)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("service.ItineraryService.Update: %w", err)
	}
	return result, nil
}

// Delete removes an itinerary the caller is linked to, along with its links.
func (s *ItineraryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.member(ctx, userID, id); err != nil {
		return fmt.Errorf("service.ItineraryService.Delete: %w", err)
	}
	if err := s.itineraries.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.ItineraryService.Delete: %w", err)
	}
	return nil
}

// ListMembers returns the users linked to an itinerary, ordered by username.
func (s *ItineraryService) ListMembers(ctx context.Context, userID, id uuid.UUID) ([]domain.User, error) {
	if _, err := s.member(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.ListMembers: %w", err)
	}
	users, err := s.itineraries.ListUsers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.ListMembers: %w", err)
	}
	if users == nil {
		return []domain.User{}, nil
	}
	return users, nil
}

// AddMember links the user named username to the itinerary and returns the
// resulting member list. Adding an existing member is a no-op.
// An unknown username is reported as a field error on "username".
func (s *ItineraryService) AddMember(ctx context.Context, userID, id uuid.UUID, username string) ([]domain.User, error) {
	if _, err := s.member(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.AddMember: %w", err)
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.FieldErrors{"username": msgRequired}
	}
	target, err := userByName(ctx, s.users, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.FieldErrors{"username": "No user with that username exists."}
	}
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.AddMember: %w", err)
	}

	if err := s.itineraries.AddUser(ctx, id, target.ID); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.AddMember: %w", err)
	}
	return s.ListMembers(ctx, userID, id)
}

// RemoveMember unlinks the user named username from the itinerary.
// Returns domain.ErrNotFound if that user is not linked. Callers may remove
// themselves, after which the itinerary is no longer visible to them.
func (s *ItineraryService) RemoveMember(ctx context.Context, userID, id uuid.UUID, username string) error {
	if _, err := s.member(ctx, userID, id); err != nil {
		return fmt.Errorf("service.ItineraryService.RemoveMember: %w", err)
	}
	target, err := userByName(ctx, s.users, username)
	if err != nil {
		return fmt.Errorf("service.ItineraryService.RemoveMember: %w", err)
	}
	if err := s.itineraries.RemoveUser(ctx, id, target.ID); err != nil {
		return fmt.Errorf("service.ItineraryService.RemoveMember: %w", err)
	}
	return nil
}

// member loads an itinerary and hides it unless userID is linked to it.
func (s *ItineraryService) member(ctx context.Context, userID, id uuid.UUID) (domain.Itinerary, error) {
	it, err := s.itineraries.GetByID(ctx, id)
	if err != nil {
		return domain.Itinerary{}, err
	}
	if !it.HasUser(userID) {
		return domain.Itinerary{}, domain.ErrNotFound
	}
	return it, nil
}

// validateItinerary enforces business rules common to both Create and Update.
//   - Title and location are required and at most MaxTextLength characters.
//   - Text fields must be valid UTF-8 without NUL bytes.
//   - Dates must be YYYY-MM-DD and the end date must not be before the start.
func validateItinerary(in ItineraryInput) (domain.Itinerary, error) {
	fe := domain.FieldErrors{}
	it := domain.Itinerary{
		Title:    strings.TrimSpace(in.Title),
		Location: strings.TrimSpace(in.Location),
		Notes:    in.Notes,
	}

	requireText(fe, "title", it.Title)
	requireText(fe, "location", it.Location)
	checkEncoding(fe, "notes", it.Notes)
	it.StartDate = parseDate(fe, "start_date", in.StartDate)
	it.EndDate = parseDate(fe, "end_date", in.EndDate)

	if _, bad := fe["start_date"]; !bad {
		if _, bad := fe["end_date"]; !bad && it.EndDate.Before(it.StartDate) {
			fe.Add("end_date", "End date must not be before start date.")
		}
	}
	if err := fe.Err(); err != nil {
		return domain.Itinerary{}, err
	}
	return it, nil
}

func requireText(fe domain.FieldErrors, field, value string) {
	switch n := utf8.RuneCountInString(value); {
	case !cleanText(value):
		fe.Add(field, msgBadEncoding)
	case n == 0:
		fe.Add(field, msgRequired)
	case n > MaxTextLength:
		fe.Add(field, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", MaxTextLength, n))
	}
}

func checkEncoding(fe domain.FieldErrors, field, value string) {
	if !cleanText(value) {
		fe.Add(field, msgBadEncoding)
	}
}

// userByName looks up a username typed by a client. Text the store could
// never hold is reported as domain.ErrNotFound without a query.
func userByName(ctx context.Context, users repo.UserRepo, username string) (domain.User, error) {
	if !cleanText(username) {
		return domain.User{}, domain.ErrNotFound
	}
	return users.GetByUsername(ctx, username)
}

// cleanText reports whether s can be stored as Postgres text.
func cleanText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

func parseDate(fe domain.FieldErrors, field, value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		fe.Add(field, msgRequired)
		return time.Time{}
	}
	t, err := time.Parse(openapi_types.DateFormat, value)
	if err != nil {
		fe.Add(field, "Enter a valid date in YYYY-MM-DD format.")
		return time.Time{}
	}
	return t
}
