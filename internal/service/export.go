package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/repo"
)

// ExportService assembles a flat export of the itineraries a user can see.
type ExportService struct {
	itineraries repo.ItineraryRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(itineraries repo.ItineraryRepo) *ExportService {
	return &ExportService{itineraries: itineraries}
}

// Export returns one ExportRow per itinerary linked to userID, in listing
// order. Always returns a non-nil slice.
func (s *ExportService) Export(ctx context.Context, userID uuid.UUID) ([]domain.ExportRow, error) {
	list, err := s.itineraries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(list))
	for _, it := range list {
		users, err := s.itineraries.ListUsers(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Export: members of %s: %w", it.ID, err)
		}
		members := make([]string, len(users))
		for i, u := range users {
			members[i] = u.Username
		}

		rows = append(rows, domain.ExportRow{
			ItineraryID: it.ID.String(),
			Title:       it.Title,
			StartDate:   it.StartDate.Format(openapi_types.DateFormat),
			EndDate:     it.EndDate.Format(openapi_types.DateFormat),
			Location:    it.Location,
			Notes:       it.Notes,
			Members:     members,
			CreatedAt:   it.CreatedAt,
			UpdatedAt:   it.UpdatedAt,
		})
	}
	return rows, nil
}
