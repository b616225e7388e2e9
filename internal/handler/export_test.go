package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/handler"
)

// exportRowFixture returns a fully-populated domain.ExportRow for testing.
func exportRowFixture() domain.ExportRow {
	created := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	return domain.ExportRow{
		ItineraryID: uuid.NewString(),
		Title:       "Pacific Coast Tour",
		StartDate:   "2025-06-15",
		EndDate:     "2025-06-30",
		Location:    "Big Sur, CA",
		Notes:       "Great weather, bring layers",
		Members:     []string{"alice", "bob"},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func exportReturning(rows []domain.ExportRow, err error) *mockExportServicer {
	return &mockExportServicer{
		export: func(_ context.Context, _ uuid.UUID) ([]domain.ExportRow, error) {
			return rows, err
		},
	}
}

func serveExport(svc handler.ExportServicer, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	newHTTPHandlerWithExport(nil, nil, svc, &alice).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// ---- GET /itineraries/export (JSON) -----------------------------------------

func TestExportItineraries_DefaultJSON_EmptyResult(t *testing.T) {
	rec := serveExport(exportReturning([]domain.ExportRow{}, nil), "/itineraries/export")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestExportItineraries_JSON_ScopedToCaller(t *testing.T) {
	row := exportRowFixture()
	svc := &mockExportServicer{
		export: func(_ context.Context, userID uuid.UUID) ([]domain.ExportRow, error) {
			assert.Equal(t, alice.ID, userID)
			return []domain.ExportRow{row}, nil
		},
	}

	rec := serveExport(svc, "/itineraries/export?format=json")

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []handler.ExportRowResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, row.Title, rows[0].Title)
	assert.Equal(t, []string{"alice", "bob"}, rows[0].Members)
}

func TestExportItineraries_RequiresLogin(t *testing.T) {
	rec := httptest.NewRecorder()
	newHTTPHandlerWithExport(nil, nil, exportReturning(nil, nil), nil).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/itineraries/export", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportItineraries_UnknownFormat(t *testing.T) {
	rec := serveExport(exportReturning(nil, nil), "/itineraries/export?format=xml")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- GET /itineraries/export (CSV) ------------------------------------------

func TestExportItineraries_CSV_EmptyResult_HasHeaderRow(t *testing.T) {
	rec := serveExport(exportReturning([]domain.ExportRow{}, nil), "/itineraries/export?format=csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "itineraries.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "itinerary_id,"), "got: %q", rec.Body.String())
}

func TestExportItineraries_CSV_OneRow(t *testing.T) {
	row := exportRowFixture()

	rec := serveExport(exportReturning([]domain.ExportRow{row}, nil), "/itineraries/export?format=csv")

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], row.ItineraryID)
	assert.Contains(t, lines[1], `"Great weather, bring layers"`, "commas must be quoted")
	assert.Contains(t, lines[1], "alice|bob")
	assert.Contains(t, lines[1], "2025-05-01T09:30:00Z")
}

// ---- error handling --------------------------------------------------------

func TestExportItineraries_ServiceError_Returns500(t *testing.T) {
	rec := serveExport(exportReturning(nil, fmt.Errorf("database unavailable")), "/itineraries/export")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database unavailable")
}
