// Package tokens implements the interchangeable access token strategies.
//
// Every strategy issues bearer tokens for a client and validates them
// against a set of required scopes. Random tokens are opaque and stored.
// Signed tokens are self-contained RS256 JWTs bound to an X.509
// certificate. Custom tokens are HS256 JWTs carrying only a reference id.
package tokens

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// Kind names a strategy. The values match the GATEWAY_TOKEN_TYPE setting.
type Kind string

const (
	KindRandom Kind = "random_token"
	KindSigned Kind = "signed_token"
	KindCustom Kind = "custom_token"
)

// ParseKind validates a configured strategy name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindRandom, KindSigned, KindCustom:
		return k, nil
	default:
		return "", fmt.Errorf("tokens: unknown token type %q", s)
	}
}

// Request describes a token to issue.
type Request struct {
	ClientID string
	Scopes   []string
}

//go:generate mockgen -destination=mocks/strategy.go -package=mocks github.com/aussiebroadwan/owsgate/internal/gateway/tokens Strategy

// Strategy issues and validates access tokens.
//
// Validate never returns an error and never panics: anything that is not a
// positive verification is false.
type Strategy interface {
	Kind() Kind
	Generate(ctx context.Context, req Request) (*domain.Token, error)
	Validate(ctx context.Context, token string, scopes []string) bool
}

// safeValidate runs fn and turns a panic into false.
func safeValidate(ctx context.Context, kind Kind, fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slogx.FromContext(ctx).Error("token validation panicked",
				slog.String("kind", string(kind)),
				slog.Any("panic", r),
			)
			ok = false
		}
	}()
	return fn()
}

func rejected(ctx context.Context, kind Kind, reason string, err error) bool {
	attrs := []any{slog.String("kind", string(kind)), slog.String("reason", reason)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	slogx.FromContext(ctx).Debug("token rejected", attrs...)
	return false
}
