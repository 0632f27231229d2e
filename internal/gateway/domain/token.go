package domain

import (
	"slices"
	"time"
)

// TokenTypeBearer is the only token type the gateway issues.
const TokenTypeBearer = "Bearer"

// Token is an issued access token. Only stored tokens (random strategy)
// round-trip through the store; signed tokens exist only on the wire.
type Token struct {
	ID           string
	ClientID     string
	TokenType    string
	AccessToken  string // plaintext, only populated on issuance
	RefreshToken string
	ExpiresAt    *time.Time // nil never expires
	Scopes       []string
	CreatedAt    time.Time
}

// ExpiresIn returns whole seconds until expiry relative to now, or 0 for
// tokens that never expire.
func (t *Token) ExpiresIn(now time.Time) int {
	if t.ExpiresAt == nil {
		return 0
	}
	d := t.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int(d.Round(time.Second).Seconds())
}

// Expired reports whether the token has an expiry in the past.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// HasAnyScope reports whether any of want was granted. Empty want matches.
func (t *Token) HasAnyScope(want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, s := range want {
		if slices.Contains(t.Scopes, s) {
			return true
		}
	}
	return false
}

// TokenIssued is what the token endpoint returns.
type TokenIssued struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
	Scopes      []string
}
