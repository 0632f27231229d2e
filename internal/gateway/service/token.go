package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/aussiebroadwan/owsgate/internal/gateway/tokens"
	"github.com/aussiebroadwan/owsgate/pkg/cryptox"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
)

// GrantClientCredentials is the only grant type the token endpoint accepts.
const GrantClientCredentials = "client_credentials"

var (
	ErrInvalidClient    = errors.New("invalid_client")
	ErrInvalidScope     = errors.New("invalid_scope")
	ErrUnsupportedGrant = errors.New("unsupported_grant_type")
)

type TokenService struct {
	Store    store.Store
	Strategy tokens.Strategy

	now func() time.Time
}

func NewTokenService(s store.Store, strategy tokens.Strategy) *TokenService {
	return &TokenService{Store: s, Strategy: strategy, now: time.Now}
}

// ExchangeClientCredentials implements the OAuth2 client_credentials grant.
//
// The client must authenticate with its secret. Requested scopes must all
// be granted to the client; none requested means all of the client's
// scopes. The strategy's Generate is called exactly once on success.
func (s *TokenService) ExchangeClientCredentials(
	ctx context.Context,
	grantType, clientID, clientSecret string,
	scopes []string,
) (*domain.TokenIssued, error) {
	l := slogx.FromContext(ctx)

	if grantType != GrantClientCredentials {
		return nil, ErrUnsupportedGrant
	}
	if clientID == "" || clientSecret == "" {
		return nil, ErrInvalidClient
	}

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("client_credentials grant for unknown client", slog.String("client_id", clientID))
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	if err := cryptox.VerifySecret(clientSecret, client.SecretHash); err != nil {
		l.Info("client_credentials grant client authentication failed", slog.String("client_id", clientID))
		return nil, ErrInvalidClient
	}

	granted, err := grantScopes(scopes, client.Scopes)
	if err != nil {
		l.Info("client_credentials grant scope rejected",
			slog.String("client_id", clientID),
			slog.Any("requested", scopes),
		)
		return nil, err
	}

	return s.issue(ctx, client.ID, granted)
}

// GenerateToken issues a token for a registered client without its secret.
// It backs the admin API.
func (s *TokenService) GenerateToken(ctx context.Context, clientID string, scopes []string) (*domain.TokenIssued, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	granted, err := grantScopes(scopes, client.Scopes)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, client.ID, granted)
}

func (s *TokenService) issue(ctx context.Context, clientID string, scopes []string) (*domain.TokenIssued, error) {
	tok, err := s.Strategy.Generate(ctx, tokens.Request{ClientID: clientID, Scopes: scopes})
	if err != nil {
		slogx.FromContext(ctx).Error("token generation failed",
			slog.String("client_id", clientID),
			slog.String("kind", string(s.Strategy.Kind())),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("generate token: %w", err)
	}

	slogx.FromContext(ctx).Info("token issued",
		slog.String("client_id", clientID),
		slog.String("kind", string(s.Strategy.Kind())),
	)

	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = domain.TokenTypeBearer
	}
	return &domain.TokenIssued{
		AccessToken: tok.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   tok.ExpiresIn(s.now()),
		Scopes:      scopes,
	}, nil
}

// grantScopes returns requested when every entry is allowed, allowed when
// nothing was requested, and ErrInvalidScope otherwise.
func grantScopes(requested, allowed []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(allowed), nil
	}
	for _, s := range requested {
		if !slices.Contains(allowed, s) {
			return nil, ErrInvalidScope
		}
	}
	return slices.Clone(requested), nil
}
