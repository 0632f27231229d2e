package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
)

type clientsRepo struct {
	db dbtx
}

const clientColumns = `id, name, secret_hash, redirect_uri, scopes, created_at`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var (
		c         domain.Client
		scopes    string
		createdAt time.Time
	)
	if err := row.Scan(&c.ID, &c.Name, &c.SecretHash, &c.RedirectURI, &scopes, &createdAt); err != nil {
		return domain.Client{}, err
	}
	c.Scopes = splitAndFilter(scopes)
	c.CreatedAt = createdAt
	return c, nil
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = nowUTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, secret_hash, redirect_uri, scopes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.SecretHash, c.RedirectURI, joinScopes(c.Scopes), createdAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
