package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims carried by gateway access tokens. Signed tokens
// carry sub and scope; reference tokens only carry ref, iss and exp.
type Claims struct {
	jwt.RegisteredClaims

	// Scope is the space-delimited granted scope, as in RFC 8693.
	Scope string `json:"scope,omitempty"`

	// Ref is an opaque reference id used by reference-style tokens.
	Ref string `json:"ref,omitempty"`
}

// NewAccessClaims builds claims for a token issued to subject.
func NewAccessClaims(subject string, scopes []string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: expiry(now, ttl),
			ID:        NewJTI(),
		},
		Scope: strings.Join(scopes, " "),
	}
}

// NewReferenceClaims builds the minimal {ref, iss, exp} claim set. Like
// NewAccessClaims, a non-positive ttl leaves exp out.
func NewReferenceClaims(ref string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: expiry(now, ttl),
		},
		Ref: ref,
	}
}

// expiry is now+ttl, or nil (no exp claim) when ttl is not positive.
func expiry(now time.Time, ttl time.Duration) *jwt.NumericDate {
	if ttl <= 0 {
		return nil
	}
	return jwt.NewNumericDate(now.Add(ttl))
}

// Expiry returns the exp claim, or nil for tokens that never expire.
func (c *Claims) Expiry() *time.Time {
	if c.ExpiresAt == nil {
		return nil
	}
	t := c.ExpiresAt.Time
	return &t
}

// NewJTI returns a random URL-safe identifier for the jti claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// Scopes splits the scope claim.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// HasAnyScope reports whether any of want was granted. An empty want is
// always satisfied.
func (c *Claims) HasAnyScope(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := c.Scopes()
	for _, s := range want {
		if slices.Contains(have, s) {
			return true
		}
	}
	return false
}

// ValidateIssuer checks the iss claim. An empty expected issuer is not enforced.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry checks exp and nbf with the given clock skew allowance.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
