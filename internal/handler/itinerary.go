package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/service"
)

const itineraryNotFound = "itinerary not found"

// ItineraryResponse is the wire form of an itinerary.
type ItineraryResponse struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	StartDate openapi_types.Date `json:"start_date"`
	EndDate   openapi_types.Date `json:"end_date"`
	Location  string             `json:"location"`
	Notes     string             `json:"notes"`
	UserIDs   []uuid.UUID        `json:"user_ids"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// itineraryRequest is the create/update body. Dates stay strings here so
// the service can report a malformed date against its field.
type itineraryRequest struct {
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
}

func (b *itineraryRequest) decodeForm(form url.Values) {
	b.Title = form.Get("title")
	b.StartDate = form.Get("start_date")
	b.EndDate = form.Get("end_date")
	b.Location = form.Get("location")
	b.Notes = form.Get("notes")
}

func (b itineraryRequest) input() service.ItineraryInput {
	return service.ItineraryInput{
		Title:     b.Title,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Location:  b.Location,
		Notes:     b.Notes,
	}
}

// ListItineraries handles GET /itineraries.
func (s *Server) ListItineraries(w http.ResponseWriter, r *http.Request) {
	list, err := s.itineraries.ListForUser(r.Context(), currentUser(r).ID)
	if err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}

	data := make([]ItineraryResponse, len(list))
	for i, it := range list {
		data[i] = itineraryToResponse(it)
	}
	writeJSON(w, http.StatusOK, data)
}

// CreateItinerary handles POST /itineraries.
func (s *Server) CreateItinerary(w http.ResponseWriter, r *http.Request) {
	var body itineraryRequest
	if !decodeOrReject(w, r, &body) {
		return
	}

	created, err := s.itineraries.Create(r.Context(), currentUser(r).ID, body.input())
	if err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}
	respond(w, r, http.StatusCreated, itineraryToResponse(created), "/itineraries")
}

// GetItinerary handles GET /itineraries/{id}.
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request) {
	id, ok := itineraryID(w, r)
	if !ok {
		return
	}

	it, err := s.itineraries.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(it))
}

// UpdateItinerary handles PUT /itineraries/{id} and the form posts
// POST /itineraries/{id} and POST /itineraries/{id}/update.
func (s *Server) UpdateItinerary(w http.ResponseWriter, r *http.Request) {
	id, ok := itineraryID(w, r)
	if !ok {
		return
	}
	var body itineraryRequest
	if !decodeOrReject(w, r, &body) {
		return
	}

	updated, err := s.itineraries.Update(r.Context(), currentUser(r).ID, id, body.input())
	if err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}
	respond(w, r, http.StatusOK, itineraryToResponse(updated), "/itineraries")
}

// DeleteItinerary handles DELETE /itineraries/{id} and the confirming form
// post POST /itineraries/{id}/delete.
func (s *Server) DeleteItinerary(w http.ResponseWriter, r *http.Request) {
	id, ok := itineraryID(w, r)
	if !ok {
		return
	}

	if err := s.itineraries.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}
	respond(w, r, http.StatusNoContent, nil, "/itineraries")
}

// itineraryID parses the {id} path parameter. A malformed id is reported as
// not found, the same as an id that does not exist.
func itineraryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, codeNotFound, itineraryNotFound, nil)
		return uuid.Nil, false
	}
	return id, true
}

// itineraryToResponse converts a domain.Itinerary into its wire form.
func itineraryToResponse(it domain.Itinerary) ItineraryResponse {
	userIDs := it.UserIDs
	if userIDs == nil {
		userIDs = []uuid.UUID{}
	}
	return ItineraryResponse{
		ID:        it.ID,
		Title:     it.Title,
		StartDate: openapi_types.Date{Time: it.StartDate},
		EndDate:   openapi_types.Date{Time: it.EndDate},
		Location:  it.Location,
		Notes:     it.Notes,
		UserIDs:   userIDs,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}
