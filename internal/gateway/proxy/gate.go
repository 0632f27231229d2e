package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/tokens"
	"github.com/aussiebroadwan/owsgate/pkg/httpx"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// DefaultRequiredScopes are what the gate asks of a token unless
// configured otherwise.
var DefaultRequiredScopes = []string{"compute"}

// Gate decides whether a request may reach a service.
type Gate struct {
	strategy tokens.Strategy
	scopes   []string
}

// NewGate checks tokens with strategy. Nil scopes means
// DefaultRequiredScopes.
func NewGate(strategy tokens.Strategy, scopes []string) *Gate {
	if scopes == nil {
		scopes = DefaultRequiredScopes
	}
	return &Gate{strategy: strategy, scopes: scopes}
}

// Verify returns nil when r carries a valid token, a Forbidden error when
// it does not, and NoApplicableCode if validation blew up.
func (g *Gate) Verify(ctx context.Context, r *http.Request, svc domain.Service) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = NoApplicableCode("Unhandled error: token verification failed", fmt.Errorf("panic: %v", rec))
		}
	}()

	token := httpx.BearerToken(r)
	if token == "" {
		slogx.FromContext(ctx).Info("access denied",
			slog.String("service", svc.Name),
			slog.String("reason", "no token"),
		)
		return Forbidden("Access to service is forbidden.")
	}

	if !g.strategy.Validate(ctx, token, g.scopes) {
		slogx.FromContext(ctx).Info("access denied",
			slog.String("service", svc.Name),
			slog.String("reason", "invalid token"),
		)
		return Forbidden("Access to service is forbidden.")
	}
	return nil
}
