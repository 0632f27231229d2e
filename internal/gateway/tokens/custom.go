package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/pkg/idx"
	"github.com/aussiebroadwan/owsgate/pkg/jwtx"
	"github.com/google/uuid"
)

// Custom issues HS256 JWTs carrying {ref, iss, exp} under a shared secret.
// The token carries no scope, so validation only proves that the gateway
// issued it and that it is still live.
type Custom struct {
	issuer   string
	ttl      time.Duration
	signer   *jwtx.HS256Signer
	verifier *jwtx.HS256Verifier
	now      func() time.Time
}

func NewCustom(secret []byte, issuer string, ttl time.Duration) (*Custom, error) {
	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}

	c := &Custom{issuer: issuer, ttl: ttl, signer: signer, now: time.Now}
	c.verifier, err = jwtx.NewVerifierHS256(secret, jwtx.VerifyOptions{
		Issuer: issuer,
		Now:    func() time.Time { return c.now() },
	})
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	return c, nil
}

func (s *Custom) Kind() Kind { return KindCustom }

func (s *Custom) Generate(_ context.Context, req Request) (*domain.Token, error) {
	now := s.now().UTC()
	claims := jwtx.NewReferenceClaims(uuid.NewString(), s.ttl, s.issuer, now)

	raw, err := s.signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("tokens: sign: %w", err)
	}

	return &domain.Token{
		ID:          idx.NewAt(now).String(),
		ClientID:    req.ClientID,
		TokenType:   domain.TokenTypeBearer,
		AccessToken: raw,
		ExpiresAt:   claims.Expiry(),
		Scopes:      req.Scopes,
		CreatedAt:   now,
	}, nil
}

func (s *Custom) Validate(ctx context.Context, token string, _ []string) bool {
	return safeValidate(ctx, KindCustom, func() bool {
		claims, err := s.verifier.Verify(token)
		if err != nil {
			return rejected(ctx, KindCustom, "verification failed", err)
		}
		if claims.Ref == "" {
			return rejected(ctx, KindCustom, "missing ref", nil)
		}
		return true
	})
}

var _ Strategy = (*Custom)(nil)
