package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strings"
	"time"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"itinerary_id", "title", "start_date", "end_date",
	"location", "notes", "members", "created_at", "updated_at",
}

// ExportRowResponse is the JSON form of one export row.
type ExportRowResponse struct {
	ItineraryID string    `json:"itinerary_id"`
	Title       string    `json:"title"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Location    string    `json:"location"`
	Notes       string    `json:"notes"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExportItineraries handles GET /itineraries/export.
// It returns every itinerary the caller belongs to as a flat table.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportItineraries(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		writeError(w, r, http.StatusBadRequest, codeBadRequest, `format must be "csv" or "json"`, nil)
		return
	}

	rows, err := s.exports.Export(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}

	if format != "csv" {
		out := make([]ExportRowResponse, len(rows))
		for i, row := range rows {
			out[i] = ExportRowResponse(row)
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	// Members within a row are pipe-separated ("|") to keep each itinerary
	// on a single CSV line.
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write([]string{
			row.ItineraryID,
			row.Title,
			row.StartDate,
			row.EndDate,
			row.Location,
			row.Notes,
			strings.Join(row.Members, "|"),
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="itineraries.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
