package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/aussiebroadwan/owsgate/pkg/cryptox"
	"github.com/aussiebroadwan/owsgate/pkg/idx"
)

// Random issues opaque 256-bit tokens and keeps their fingerprint in the
// token store.
type Random struct {
	repo store.Tokens
	ttl  time.Duration
	now  func() time.Time
}

// NewRandom creates the strategy. A non-positive ttl issues tokens that
// never expire.
func NewRandom(repo store.Tokens, ttl time.Duration) *Random {
	return &Random{repo: repo, ttl: ttl, now: time.Now}
}

func (s *Random) Kind() Kind { return KindRandom }

func (s *Random) Generate(ctx context.Context, req Request) (*domain.Token, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("tokens: generate random token: %w", err)
	}

	now := s.now().UTC()
	tok := domain.Token{
		ID:          idx.NewAt(now).String(),
		ClientID:    req.ClientID,
		TokenType:   domain.TokenTypeBearer,
		AccessToken: raw,
		Scopes:      req.Scopes,
		CreatedAt:   now,
	}
	if s.ttl > 0 {
		exp := now.Add(s.ttl)
		tok.ExpiresAt = &exp
	}

	if err := s.repo.CreateToken(ctx, tok, cryptox.FingerprintToken(raw)); err != nil {
		return nil, fmt.Errorf("tokens: store random token: %w", err)
	}
	return &tok, nil
}

func (s *Random) Validate(ctx context.Context, token string, scopes []string) bool {
	return safeValidate(ctx, KindRandom, func() bool {
		if token == "" {
			return rejected(ctx, KindRandom, "empty token", nil)
		}

		stored, err := s.repo.GetTokenByAccessToken(ctx, cryptox.FingerprintToken(token))
		if errors.Is(err, store.ErrNotFound) {
			return rejected(ctx, KindRandom, "unknown token", nil)
		}
		if err != nil {
			return rejected(ctx, KindRandom, "lookup failed", err)
		}

		if stored.Expired(s.now()) {
			return rejected(ctx, KindRandom, "expired", nil)
		}
		if !stored.HasAnyScope(scopes) {
			return rejected(ctx, KindRandom, "scope mismatch", nil)
		}
		return true
	})
}

var _ Strategy = (*Random)(nil)
