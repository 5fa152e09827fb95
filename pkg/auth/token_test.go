package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mint(t *testing.T, claims AccessTokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("issuer-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestParseAccessToken(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	token := mint(t, AccessTokenClaims{
		PreferredUsername: "shopper",
		Email:             "shopper@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "https://id.example.com/realms/shop",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	claims, err := ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.PreferredUsername != "shopper" || claims.Email != "shopper@example.com" {
		t.Fatalf("unexpected profile claims %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
}

func TestParseAccessTokenAcceptsBearerPrefixAndExpiredTokens(t *testing.T) {
	token := mint(t, AccessTokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})

	claims, err := ParseAccessToken("Bearer " + token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if !claims.Expired(time.Now(), 0) {
		t.Fatalf("expected token to be expired")
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "not-a-jwt", strings.Repeat("a.", 2)} {
		if _, err := ParseAccessToken(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		claims  *AccessTokenClaims
		leeway  time.Duration
		expired bool
	}{
		{name: "nil claims", claims: nil, expired: true},
		{name: "no exp", claims: &AccessTokenClaims{}, expired: false},
		{
			name:    "future exp",
			claims:  &AccessTokenClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}},
			expired: false,
		},
		{
			name:    "past exp",
			claims:  &AccessTokenClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}},
			expired: true,
		},
		{
			name:    "past exp within leeway",
			claims:  &AccessTokenClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}},
			leeway:  2 * time.Minute,
			expired: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.claims.Expired(now, tc.leeway); got != tc.expired {
				t.Fatalf("expected expired=%v, got %v", tc.expired, got)
			}
		})
	}
}
