package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/service"
)

// ---- helpers ---------------------------------------------------------------

func exportable(title string, start time.Time, userIDs ...uuid.UUID) domain.Itinerary {
	return domain.Itinerary{
		ID:        uuid.New(),
		Title:     title,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 3),
		Location:  "Somewhere",
		UserIDs:   userIDs,
	}
}

// ---- Export ----------------------------------------------------------------

func TestExportService_Export_FlattensMembers(t *testing.T) {
	alice := domain.User{ID: uuid.New(), Username: "alice"}
	bob := domain.User{ID: uuid.New(), Username: "bob"}
	paris := exportable("Paris Trip", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), alice.ID, bob.ID)
	rome := exportable("Rome", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), alice.ID)

	svc := service.NewExportService(&mockItineraryRepo{
		listByUser: func(_ context.Context, userID uuid.UUID) ([]domain.Itinerary, error) {
			assert.Equal(t, alice.ID, userID)
			return []domain.Itinerary{paris, rome}, nil
		},
		listUsers: func(_ context.Context, id uuid.UUID) ([]domain.User, error) {
			if id == paris.ID {
				return []domain.User{alice, bob}, nil
			}
			return []domain.User{alice}, nil
		},
	})

	rows, err := svc.Export(context.Background(), alice.ID)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, paris.ID.String(), rows[0].ItineraryID)
	assert.Equal(t, "2025-06-01", rows[0].StartDate)
	assert.Equal(t, "2025-06-04", rows[0].EndDate)
	assert.Equal(t, []string{"alice", "bob"}, rows[0].Members)
	assert.Equal(t, "Rome", rows[1].Title)
	assert.Equal(t, []string{"alice"}, rows[1].Members)
}

func TestExportService_Export_Empty(t *testing.T) {
	svc := service.NewExportService(&mockItineraryRepo{
		listByUser: func(_ context.Context, _ uuid.UUID) ([]domain.Itinerary, error) { return nil, nil },
	})

	rows, err := svc.Export(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestExportService_Export_RepoError(t *testing.T) {
	repoErr := errors.New("db exploded")
	it := exportable("Paris Trip", time.Now())
	svc := service.NewExportService(&mockItineraryRepo{
		listByUser: func(_ context.Context, _ uuid.UUID) ([]domain.Itinerary, error) {
			return []domain.Itinerary{it}, nil
		},
		listUsers: func(_ context.Context, _ uuid.UUID) ([]domain.User, error) { return nil, repoErr },
	})

	_, err := svc.Export(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repoErr)
}
