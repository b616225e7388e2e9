package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrBadToken is returned for any token that fails parsing or verification.
var ErrBadToken = errors.New("invalid session token")

// SessionClaims is the payload of a session cookie. ID (jti) names the
// sessions row and Subject (sub) is the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies session tokens with HS256.
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

// NewTokenSigner returns a signer keyed by secret. now defaults to time.Now.
func NewTokenSigner(secret string, now func() time.Time) *TokenSigner {
	if now == nil {
		now = time.Now
	}
	return &TokenSigner{secret: []byte(secret), now: now}
}

// Sign returns a token naming sessionID for userID, valid until expiresAt.
func (s *TokenSigner) Sign(sessionID, userID uuid.UUID, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID.String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth.TokenSigner.Sign: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the session and user ids it names.
// Any failure, including an expired token or a non-HMAC algorithm, yields ErrBadToken.
func (s *TokenSigner) Parse(raw string) (sessionID, userID uuid.UUID, err error) {
	var claims SessionClaims
	_, err = jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}

	sessionID, err = uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: jti: %v", ErrBadToken, err)
	}
	userID, err = uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: sub: %v", ErrBadToken, err)
	}
	return sessionID, userID, nil
}
