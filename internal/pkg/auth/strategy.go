package auth

import (
	"errors"
	"time"
)

// ErrInvalidToken is returned for malformed, tampered or expired tokens.
var ErrInvalidToken = errors.New("invalid auth token")

// Strategy issues and verifies bearer tokens for dispatch board users.
type Strategy interface {
	IssueToken(userID string) (string, error)
	ParseToken(token string) (string, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	// Now overrides the clock used for issuing and validating tokens.
	Now func() time.Time
}
