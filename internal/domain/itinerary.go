// Package domain contains the core data types for the travel itineraries
// application. It has no dependencies on other internal packages and is
// imported by every layer (repo, service, handler).
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Itinerary is a travel plan shared by a set of users.
// The set of users an itinerary is visible to is exactly UserIDs.
type Itinerary struct {
	ID        uuid.UUID
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Location  string
	Notes     string
	UserIDs   []uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasUser reports whether userID is in the itinerary's user set.
func (it Itinerary) HasUser(userID uuid.UUID) bool {
	return slices.Contains(it.UserIDs, userID)
}
