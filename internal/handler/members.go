package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
)

type memberRequest struct {
	Username string `json:"username"`
}

func (b *memberRequest) decodeForm(form url.Values) {
	b.Username = form.Get("username")
}

// ListMembers handles GET /itineraries/{id}/users.
func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := itineraryID(w, r)
	if !ok {
		return
	}

	users, err := s.itineraries.ListMembers(r.Context(), currentUser(r).ID, id)
	if err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, usersToResponse(users))
}

// AddMember handles POST /itineraries/{id}/users.
func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := itineraryID(w, r)
	if !ok {
		return
	}
	var body memberRequest
	if !decodeOrReject(w, r, &body) {
		return
	}

	users, err := s.itineraries.AddMember(r.Context(), currentUser(r).ID, id, body.Username)
	if err != nil {
		s.writeServiceError(w, r, err, itineraryNotFound)
		return
	}
	respond(w, r, http.StatusOK, usersToResponse(users), "/itineraries/"+id.String())
}

// RemoveMember handles DELETE /itineraries/{id}/users/{username}.
func (s *Server) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := itineraryID(w, r)
	if !ok {
		return
	}
	username, err := url.PathUnescape(chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, codeNotFound, "member not found", nil)
		return
	}

	if err := s.itineraries.RemoveMember(r.Context(), currentUser(r).ID, id, username); err != nil {
		s.writeServiceError(w, r, err, "member not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func usersToResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = userToResponse(u)
	}
	return out
}
