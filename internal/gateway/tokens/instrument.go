package tokens

import (
	"context"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/owsgate/pkg/jwtx"
)

// KeyPublisher is implemented by strategies whose verification keys can be
// published as a JWKS.
type KeyPublisher interface {
	PublicJWKS() jwtx.JWKS
}

type instrumented struct {
	Strategy
	m *metrics.Collector
}

// Instrument counts issued tokens and validation results on m.
func Instrument(s Strategy, m *metrics.Collector) Strategy {
	if m == nil {
		return s
	}
	return &instrumented{Strategy: s, m: m}
}

func (i *instrumented) Generate(ctx context.Context, req Request) (*domain.Token, error) {
	tok, err := i.Strategy.Generate(ctx, req)
	if err == nil {
		i.m.TokenIssued(string(i.Kind()))
	}
	return tok, err
}

func (i *instrumented) Validate(ctx context.Context, token string, scopes []string) bool {
	ok := i.Strategy.Validate(ctx, token, scopes)
	i.m.TokenValidated(string(i.Kind()), ok)
	return ok
}

// PublicJWKS forwards to the wrapped strategy, or returns an empty set.
func (i *instrumented) PublicJWKS() jwtx.JWKS {
	return PublicJWKS(i.Strategy)
}

// PublicJWKS returns the keys s publishes, or an empty set.
func PublicJWKS(s Strategy) jwtx.JWKS {
	if p, ok := s.(KeyPublisher); ok {
		return p.PublicJWKS()
	}
	return jwtx.JWKS{Keys: []jwtx.JWK{}}
}
