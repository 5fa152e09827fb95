package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the subset of an OIDC access token the client reads.
type AccessTokenClaims struct {
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Expired reports whether the token is past its exp claim at now, allowing leeway for clock skew.
// Tokens without exp never expire.
func (c *AccessTokenClaims) Expired(now time.Time, leeway time.Duration) bool {
	if c == nil {
		return true
	}
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Add(leeway))
}
