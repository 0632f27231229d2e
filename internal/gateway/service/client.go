package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
	"github.com/aussiebroadwan/owsgate/internal/gateway/store"
	"github.com/aussiebroadwan/owsgate/pkg/cryptox"
	"github.com/aussiebroadwan/owsgate/pkg/slogx"
	"github.com/google/uuid"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrInvalidName    = errors.New("name is required")
)

type ClientService struct {
	Store store.Store
}

// RegisterClient creates a client for the client_credentials grant.
//
// The id and secret are random uuid4 hex strings. The plaintext secret is
// returned once; only its argon2id hash is stored.
func (s *ClientService) RegisterClient(ctx context.Context, name, redirectURI string) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Client{}, "", ErrInvalidName
	}

	secret := newHexID()
	hash, err := cryptox.HashSecret(secret)
	if err != nil {
		l.Error("failed to hash client secret", slog.Any("error", err))
		return domain.Client{}, "", fmt.Errorf("hash secret: %w", err)
	}

	c := domain.Client{
		ID:          newHexID(),
		Name:        name,
		SecretHash:  hash,
		RedirectURI: strings.TrimSpace(redirectURI),
		Scopes:      slices.Clone(domain.DefaultClientScopes),
	}
	if err := s.Store.Clients().CreateClient(ctx, c); err != nil {
		l.Error("failed to create client", slog.Any("error", err))
		return domain.Client{}, "", err
	}

	l.Info("client registered", slog.String("client_id", c.ID), slog.String("name", c.Name))
	return c, secret, nil
}

// ListClients returns all clients.
func (s *ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx)
}

// DeleteClient removes a client together with every token issued to it.
func (s *ClientService) DeleteClient(ctx context.Context, clientID string) error {
	l := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().DeleteTokensByClient(ctx, clientID); err != nil {
			return err
		}
		return tx.Clients().DeleteClient(ctx, clientID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrClientNotFound
	}
	if err != nil {
		l.Error("failed to delete client", slog.String("client_id", clientID), slog.Any("error", err))
		return err
	}

	l.Info("client deleted", slog.String("client_id", clientID))
	return nil
}

func newHexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
