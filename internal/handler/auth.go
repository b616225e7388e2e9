package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/middleware"
	"github.com/pkordes/travel-itineraries/backend/internal/service"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// HomeResponse tells a client whether it is logged in.
type HomeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

type signupRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// decodeForm also accepts password1/password2, the field names classic
// signup forms use.
func (b *signupRequest) decodeForm(form url.Values) {
	b.Username = form.Get("username")
	b.Password = firstOf(form, "password", "password1")
	b.PasswordConfirm = firstOf(form, "password_confirm", "password2")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (b *loginRequest) decodeForm(form url.Values) {
	b.Username = form.Get("username")
	b.Password = form.Get("password")
}

// Home handles GET /.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	resp := HomeResponse{}
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		resp.Authenticated = true
		resp.Username = u.Username
	}
	writeJSON(w, http.StatusOK, resp)
}

// Signup handles POST /signup. On success the new user is logged in.
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if !decodeOrReject(w, r, &body) {
		return
	}

	user, sess, err := s.auth.Signup(r.Context(), service.SignupInput{
		Username:        body.Username,
		Password:        body.Password,
		PasswordConfirm: body.PasswordConfirm,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	s.setSessionCookie(w, sess)
	respond(w, r, http.StatusCreated, userToResponse(user), "/")
}

// Login handles POST /login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeOrReject(w, r, &body) {
		return
	}

	user, sess, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			writeError(w, r, http.StatusUnauthorized, codeInvalidCredentials,
				"Please enter a correct username and password. Note that both fields may be case-sensitive.", nil)
			return
		}
		s.writeServiceError(w, r, err, "")
		return
	}

	s.setSessionCookie(w, sess)
	respond(w, r, http.StatusOK, userToResponse(user), "/")
}

// Logout handles POST /logout. It succeeds whether or not a session existed.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(s.cookie.Name); err == nil {
		token = c.Value
	}
	if err := s.auth.Logout(r.Context(), token); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	s.clearSessionCookie(w)
	respond(w, r, http.StatusNoContent, nil, "/")
}

// GetSession handles GET /session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthenticated, "not logged in", nil)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u))
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}
