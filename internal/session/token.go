package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken matches every TokenError.
var ErrInvalidToken = errors.New("invalid session token")

// TokenError reports an access token that cannot identify a user.
type TokenError struct {
	Reason string
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid session token: %s: %v", e.Reason, e.Err)
	}
	return "invalid session token: " + e.Reason
}

func (e *TokenError) Unwrap() error     { return e.Err }
func (e *TokenError) ErrorCode() string { return "AUTH_INVALID" }
func (e *TokenError) Context() map[string]string {
	return map[string]string{"reason": e.Reason}
}
func (e *TokenError) SuggestedAction() string {
	return "sign in again: playbook auth signin --token <access-token>"
}
func (e *TokenError) Is(target error) bool { return target == ErrInvalidToken }

// Identity is what a token asserts about its holder.
type Identity struct {
	UserID    string
	Email     string
	ExpiresAt *time.Time
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken extracts the identity from an identity-provider access token.
// With a secret the HS256 signature is verified; without one the claims are
// read as-is. The sub claim is the user id.
func ParseToken(token string, secret []byte, now time.Time) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, &TokenError{Reason: "token is empty"}
	}

	var c claims
	if len(secret) > 0 {
		_, err := jwt.ParseWithClaims(token, &c,
			func(*jwt.Token) (any, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(func() time.Time { return now }),
		)
		if err != nil {
			return Identity{}, &TokenError{Reason: "verification failed", Err: err}
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
			return Identity{}, &TokenError{Reason: "malformed token", Err: err}
		}
		if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
			return Identity{}, &TokenError{Reason: "token has expired", Err: jwt.ErrTokenExpired}
		}
	}

	if strings.TrimSpace(c.Subject) == "" {
		return Identity{}, &TokenError{Reason: "token has no sub claim"}
	}
	id := Identity{UserID: c.Subject, Email: c.Email}
	if c.ExpiresAt != nil {
		exp := c.ExpiresAt.UTC()
		id.ExpiresAt = &exp
	}
	return id, nil
}
