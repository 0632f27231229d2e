package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers implement it and expose
// one sub-repository per table so transactions stay explicit.
type Store interface {
	Clients() Clients
	Tokens() Tokens
	Services() Services

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when it returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClientByID fetches a client for client authentication.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// CreateClient inserts a client. A duplicate id is ErrAlreadyExists.
	CreateClient(ctx context.Context, c domain.Client) error

	// ListClients returns all clients, newest first.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// DeleteClient cascades to the client's tokens.
	DeleteClient(ctx context.Context, id string) error
}

type Tokens interface {
	// CreateToken stores t keyed on hash, the fingerprint of t.AccessToken.
	CreateToken(ctx context.Context, t domain.Token, hash string) error

	// GetTokenByAccessToken looks a token up by its fingerprint.
	GetTokenByAccessToken(ctx context.Context, hash string) (domain.Token, error)

	// DeleteExpiredTokens removes tokens that expired before the given time
	// and returns how many were removed.
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)

	DeleteTokensByClient(ctx context.Context, clientID string) error
}

type Services interface {
	GetServiceByName(ctx context.Context, name string) (domain.Service, error)

	// ListServices returns all services ordered by name.
	ListServices(ctx context.Context) ([]domain.Service, error)

	// UpsertService inserts svc or replaces the service with the same name.
	UpsertService(ctx context.Context, svc domain.Service) error

	DeleteService(ctx context.Context, name string) error

	ClearServices(ctx context.Context) error
}
