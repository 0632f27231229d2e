package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
)

// Config selects and parameterises a strategy.
type Config struct {
	Kind      Kind
	ExpiresIn time.Duration
	Issuer    string

	// Signed
	CertFile string
	KeyFile  string

	// Custom
	Secret string

	// Random
	Tokens store.Tokens
}

// New builds the strategy named by cfg.Kind.
func New(cfg Config) (Strategy, error) {
	switch cfg.Kind {
	case KindRandom, "":
		if cfg.Tokens == nil {
			return nil, errors.New("tokens: random_token needs a token store")
		}
		return NewRandom(cfg.Tokens, cfg.ExpiresIn), nil
	case KindSigned:
		return NewSignedFromFiles(cfg.CertFile, cfg.KeyFile, cfg.Issuer, cfg.ExpiresIn)
	case KindCustom:
		return NewCustom([]byte(cfg.Secret), cfg.Issuer, cfg.ExpiresIn)
	default:
		return nil, fmt.Errorf("tokens: unknown token type %q", cfg.Kind)
	}
}
