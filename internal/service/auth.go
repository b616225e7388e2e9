package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkordes/travel-itineraries/backend/internal/auth"
	"github.com/pkordes/travel-itineraries/backend/internal/domain"
	"github.com/pkordes/travel-itineraries/backend/internal/repo"
)

// MaxUsernameLength is the longest accepted username, in characters.
const MaxUsernameLength = 150

// Field messages shared by signup, login and sharing.
const (
	msgRequired         = "This field is required."
	msgUsernameTaken    = "A user with that username already exists."
	msgUsernameInvalid  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgPasswordMismatch = "The two password fields didn't match."
	msgBadEncoding      = "Enter valid text without null characters."
)

// SignupInput carries the signup form fields.
type SignupInput struct {
	Username        string
	Password        string
	PasswordConfirm string
}

// AuthService registers users and manages their sessions.
type AuthService struct {
	users    repo.UserRepo
	sessions repo.SessionRepo
	hasher   auth.Hasher
	signer   *auth.TokenSigner
	ttl      time.Duration
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs an AuthService. Sessions live for ttl.
// now defaults to time.Now.
func NewAuthService(
	users repo.UserRepo,
	sessions repo.SessionRepo,
	hasher auth.Hasher,
	signer *auth.TokenSigner,
	ttl time.Duration,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		signer:   signer,
		ttl:      ttl,
		now:      now,
	}
}

// Signup validates the form, creates the user and logs them in.
// Returns domain.FieldErrors (which unwraps to domain.ErrValidation) when any
// field is rejected, including a username that is already taken.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (domain.User, domain.Session, error) {
	username := strings.TrimSpace(in.Username)

	fe := domain.FieldErrors{}
	validateUsername(fe, username)
	switch {
	case in.Password == "":
		fe.Add("password", msgRequired)
	case in.PasswordConfirm == "":
		fe.Add("password_confirm", msgRequired)
	case in.Password != in.PasswordConfirm:
		fe.Add("password_confirm", msgPasswordMismatch)
	default:
		if err := auth.CheckStrength(in.Password, username); err != nil {
			fe.Add("password_confirm", policyMessage(err))
		}
	}
	if err := fe.Err(); err != nil {
		return domain.User{}, domain.Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("service.AuthService.Signup: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{Username: username, PasswordHash: hash})
	if errors.Is(err, domain.ErrConflict) {
		return domain.User{}, domain.Session{}, domain.FieldErrors{"username": msgUsernameTaken}
	}
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("service.AuthService.Signup: %w", err)
	}

	sess, err := s.issue(ctx, user)
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("service.AuthService.Signup: %w", err)
	}
	return user, sess, nil
}

// Login checks the credentials and opens a new session.
// Returns domain.ErrUnauthenticated for an unknown username or wrong password.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.User, domain.Session, error) {
	user, err := userByName(ctx, s.users, strings.TrimSpace(username))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Burn the same bcrypt work as a real check so timing does not
		// reveal which usernames exist.
		s.hasher.Check(s.dummy(), password)
		return domain.User{}, domain.Session{}, fmt.Errorf("service.AuthService.Login: %w", domain.ErrUnauthenticated)
	case err != nil:
		return domain.User{}, domain.Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}

	if !s.hasher.Check(user.PasswordHash, password) {
		return domain.User{}, domain.Session{}, fmt.Errorf("service.AuthService.Login: %w", domain.ErrUnauthenticated)
	}

	sess, err := s.issue(ctx, user)
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	return user, sess, nil
}

// Logout ends the session named by token. A malformed, expired or unknown
// token is not an error: the caller ends up logged out either way.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sessionID, _, err := s.signer.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("service.AuthService.Logout: %w", err)
	}
	return nil
}

// Authenticate resolves a session token to its user.
// Returns domain.ErrUnauthenticated when the token is bad, the session is gone
// or expired, or the session does not belong to the user the token names.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	sessionID, userID, err := s.signer.Parse(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w: %v", domain.ErrUnauthenticated, err)
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w", domain.ErrUnauthenticated)
	case err != nil:
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w", err)
	}
	if sess.UserID != userID || sess.Expired(s.now()) {
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w", domain.ErrUnauthenticated)
	}

	user, err := s.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w", domain.ErrUnauthenticated)
	case err != nil:
		return domain.User{}, fmt.Errorf("service.AuthService.Authenticate: %w", err)
	}
	return user, nil
}

// PurgeExpiredSessions deletes every expired session and returns the count.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("service.AuthService.PurgeExpiredSessions: %w", err)
	}
	return n, nil
}

// issue stores a new session for user and signs its token.
func (s *AuthService) issue(ctx context.Context, user domain.User) (domain.Session, error) {
	sess, err := s.sessions.Create(ctx, domain.Session{
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	})
	if err != nil {
		return domain.Session{}, err
	}
	token, err := s.signer.Sign(sess.ID, user.ID, sess.ExpiresAt)
	if err != nil {
		return domain.Session{}, err
	}
	sess.Token = token
	return sess, nil
}

// dummy returns a hash that no password matches, computed on first use.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// validateUsername records a message on fe when username breaks the rules.
func validateUsername(fe domain.FieldErrors, username string) {
	switch {
	case username == "":
		fe.Add("username", msgRequired)
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		fe.Add("username", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).",
			MaxUsernameLength, utf8.RuneCountInString(username)))
	case !validUsernameChars(username):
		fe.Add("username", msgUsernameInvalid)
	}
}

func validUsernameChars(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		if !strings.ContainsRune("@.+-_", r) {
			return false
		}
	}
	return true
}

// policyMessage strips the sentinel prefix from a password policy error.
func policyMessage(err error) string {
	return strings.TrimPrefix(err.Error(), auth.ErrWeakPassword.Error()+": ")
}
