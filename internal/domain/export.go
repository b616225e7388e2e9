package domain

import "time"

// ExportRow is a single row in an itinerary export: one row per itinerary,
// flattened so it fits a CSV line. Dates are "2006-01-02" strings.
//
// Members holds the usernames linked to the itinerary, ordered
// alphabetically. Callers that need a joined string (e.g. CSV) should join
// with "|".
type ExportRow struct {
	ItineraryID string
	Title       string
	StartDate   string
	EndDate     string
	Location    string
	Notes       string
	Members     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
