package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
)

type tokensRepo struct {
	db dbtx
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token, hash string) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = nowUTC()
	}
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = domain.TokenTypeBearer
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (id, client_id, token_type, access_token_hash, refresh_token, scopes, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ClientID, tokenType, hash, t.RefreshToken, joinScopes(t.Scopes), mapUnixNull(t.ExpiresAt), createdAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetTokenByAccessToken(ctx context.Context, hash string) (domain.Token, error) {
	var (
		t         domain.Token
		scopes    string
		expiresAt sql.NullInt64
		createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, client_id, token_type, refresh_token, scopes, expires_at, created_at
		 FROM tokens WHERE access_token_hash = ?`, hash,
	).Scan(&t.ID, &t.ClientID, &t.TokenType, &t.RefreshToken, &scopes, &expiresAt, &createdAt)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	t.Scopes = splitAndFilter(scopes)
	t.ExpiresAt = mapNullUnix(expiresAt)
	t.CreatedAt = createdAt
	return t, nil
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at IS NOT NULL AND expires_at < ?`, before.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *tokensRepo) DeleteTokensByClient(ctx context.Context, clientID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE client_id = ?`, clientID)
	return err
}
