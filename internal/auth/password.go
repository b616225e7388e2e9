// Package auth holds the credential primitives: bcrypt password hashing,
// the password strength policy, and signing of session tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

// MinPasswordLength is the shortest password the policy accepts, in characters.
const MinPasswordLength = 8

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's valid range.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return Hasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth.Hasher.Hash: %w", err)
	}
	return string(b), nil
}

// Check reports whether password matches hash.
func (h Hasher) Check(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ErrWeakPassword wraps every policy rejection.
var ErrWeakPassword = errors.New("weak password")

// commonPasswords is a short deny-list of the passwords that top every
// breach corpus. Entries are lowercase.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {},
	"123456789": {}, "1234567890": {}, "qwertyuiop": {}, "qwerty123": {},
	"iloveyou": {}, "sunshine": {}, "princess": {}, "football": {},
	"baseball": {}, "welcome1": {}, "letmein1": {}, "trustno1": {},
	"abc12345": {}, "passw0rd": {}, "starwars": {}, "whatever": {},
	"11111111": {}, "00000000": {}, "asdfghjkl": {}, "superman": {},
	"michael1": {}, "dragon12": {}, "monkey12": {}, "changeme": {},
}

// CheckStrength applies the password policy for an account named username.
// A password must be at least MinPasswordLength characters, at most
// MaxPasswordBytes bytes, not entirely numeric, not a common password, and
// not too similar to the username.
func CheckStrength(password, username string) error {
	switch {
	case len([]rune(password)) < MinPasswordLength:
		return fmt.Errorf("%w: This password is too short. It must contain at least %d characters.", ErrWeakPassword, MinPasswordLength)
	case len(password) > MaxPasswordBytes:
		return fmt.Errorf("%w: This password is too long. It must be at most %d bytes.", ErrWeakPassword, MaxPasswordBytes)
	case isNumeric(password):
		return fmt.Errorf("%w: This password is entirely numeric.", ErrWeakPassword)
	case isCommon(password):
		return fmt.Errorf("%w: This password is too common.", ErrWeakPassword)
	case similarToUsername(password, username):
		return fmt.Errorf("%w: The password is too similar to the username.", ErrWeakPassword)
	}
	return nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isCommon(s string) bool {
	_, ok := commonPasswords[strings.ToLower(s)]
	return ok
}

// similarToUsername rejects passwords that contain the username or are
// contained in it, ignoring case. Usernames shorter than three characters
// are too short to be a meaningful signal.
func similarToUsername(password, username string) bool {
	u := strings.ToLower(strings.TrimSpace(username))
	if len(u) < 3 {
		return false
	}
	p := strings.ToLower(password)
	return strings.Contains(p, u) || strings.Contains(u, p)
}
