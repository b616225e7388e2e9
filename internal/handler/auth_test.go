package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/handler"
	"github.com/pkordes/travel-itineraries/backend/internal/service"
)

// ---- helpers ---------------------------------------------------------------

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, jsonBody(t, v))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

var (
	alice        = domain.User{ID: uuid.New(), Username: "alice", CreatedAt: time.Now().UTC()}
	aliceSession = domain.Session{ID: uuid.New(), UserID: alice.ID, ExpiresAt: time.Now().Add(time.Hour), Token: "signed-token"}
)

// ---- GET / and /session ----------------------------------------------------

func TestHome(t *testing.T) {
	rec := httptest.NewRecorder()
	newHTTPHandler(nil, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newHTTPHandler(nil, nil, &alice).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":true,"username":"alice"}`, rec.Body.String())
}

func TestGetSession(t *testing.T) {
	rec := httptest.NewRecorder()
	newHTTPHandler(nil, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decodeError(t, rec).Code)

	rec = httptest.NewRecorder()
	newHTTPHandler(nil, nil, &alice).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handler.UserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, alice.ID, resp.ID)
	assert.Equal(t, "alice", resp.Username)
}

// ---- POST /signup ----------------------------------------------------------

func TestSignup_201_SetsCookie(t *testing.T) {
	var got service.SignupInput
	svc := &mockAuthServicer{
		signup: func(_ context.Context, in service.SignupInput) (domain.User, domain.Session, error) {
			got = in
			return alice, aliceSession, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/signup", map[string]string{
		"username": "alice", "password": "Str0ngPW!", "password_confirm": "Str0ngPW!",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, service.SignupInput{Username: "alice", Password: "Str0ngPW!", PasswordConfirm: "Str0ngPW!"}, got)

	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, "signed-token", c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	var resp handler.UserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.Username)
	assert.NotContains(t, rec.Body.String(), "password")
}

// TestSignup_Form_RedirectsHome verifies a form signup (with the classic
// password1/password2 names) is answered with 303 to the home page.
func TestSignup_Form_RedirectsHome(t *testing.T) {
	var got service.SignupInput
	svc := &mockAuthServicer{
		signup: func(_ context.Context, in service.SignupInput) (domain.User, domain.Session, error) {
			got = in
			return alice, aliceSession, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, formRequest(http.MethodPost, "/signup", url.Values{
		"username": {"alice"}, "password1": {"Str0ngPW!"}, "password2": {"Str0ngPW!"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "Str0ngPW!", got.PasswordConfirm)
	assert.NotNil(t, sessionCookie(rec))
}

func TestSignup_422_FieldErrors(t *testing.T) {
	svc := &mockAuthServicer{
		signup: func(_ context.Context, _ service.SignupInput) (domain.User, domain.Session, error) {
			return domain.User{}, domain.Session{}, domain.FieldErrors{"username": "A user with that username already exists."}
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/signup", map[string]string{"username": "alice"}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "validation_error", detail.Code)
	assert.Equal(t, "A user with that username already exists.", detail.Fields["username"])
	assert.Nil(t, sessionCookie(rec), "no cookie on failure")
}

func TestSignup_400_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockAuthServicer{}, nil, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeError(t, rec).Code)
}

func TestSignup_400_TrailingData(t *testing.T) {
	for _, body := range []string{
		`{"username":"alice"}garbage`,
		`{"username":"alice"}{"username":"bob"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newHTTPHandler(&mockAuthServicer{}, nil, nil).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "bad_request", decodeError(t, rec).Code)
	}
}

func TestSignup_TrailingWhitespaceAccepted(t *testing.T) {
	svc := &mockAuthServicer{
		signup: func(_ context.Context, _ service.SignupInput) (domain.User, domain.Session, error) {
			return alice, aliceSession, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/signup",
		strings.NewReader(`{"username":"alice","password":"Str0ngPW!","password_confirm":"Str0ngPW!"}`+"\n\n"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSignup_400_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockAuthServicer{}, nil, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignup_500_HidesDetail(t *testing.T) {
	svc := &mockAuthServicer{
		signup: func(_ context.Context, _ service.SignupInput) (domain.User, domain.Session, error) {
			return domain.User{}, domain.Session{}, errors.New("pq: connection refused")
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/signup", map[string]string{}))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
}

// ---- POST /login -----------------------------------------------------------

func TestLogin_200(t *testing.T) {
	svc := &mockAuthServicer{
		login: func(_ context.Context, username, password string) (domain.User, domain.Session, error) {
			assert.Equal(t, "alice", username)
			assert.Equal(t, "Str0ngPW!", password)
			return alice, aliceSession, nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/login",
		map[string]string{"username": "alice", "password": "Str0ngPW!"}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sessionCookie(rec))
}

func TestLogin_401_InvalidCredentials(t *testing.T) {
	svc := &mockAuthServicer{
		login: func(_ context.Context, _, _ string) (domain.User, domain.Session, error) {
			return domain.User{}, domain.Session{}, domain.ErrUnauthenticated
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, formRequest(http.MethodPost, "/login",
		url.Values{"username": {"alice"}, "password": {"nope"}}))

	require.Equal(t, http.StatusUnauthorized, rec.Code, "failed form login is not redirected")
	assert.Equal(t, "invalid_credentials", decodeError(t, rec).Code)
	assert.Nil(t, sessionCookie(rec))
}

// ---- POST /logout ----------------------------------------------------------

func TestLogout_ClearsCookie(t *testing.T) {
	var gotToken string
	svc := &mockAuthServicer{
		logout: func(_ context.Context, token string) error {
			gotToken = token
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "signed-token"})
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "signed-token", gotToken)
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
}

func TestLogout_NoCookie_StillSucceeds(t *testing.T) {
	svc := &mockAuthServicer{
		logout: func(_ context.Context, token string) error {
			assert.Empty(t, token)
			return nil
		},
	}

	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, formRequest(http.MethodPost, "/logout", url.Values{}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
