package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/owsgate/internal/gateway/domain"
)

type servicesRepo struct {
	db dbtx
}

const serviceColumns = `name, url, type, verify, public_url, created_at`

func scanService(row interface{ Scan(...any) error }) (domain.Service, error) {
	var (
		s         domain.Service
		createdAt time.Time
	)
	if err := row.Scan(&s.Name, &s.URL, &s.Type, &s.Verify, &s.PublicURL, &createdAt); err != nil {
		return domain.Service{}, err
	}
	s.CreatedAt = createdAt
	return s, nil
}

func (r *servicesRepo) GetServiceByName(ctx context.Context, name string) (domain.Service, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE name = ?`, name)
	s, err := scanService(row)
	if err != nil {
		return domain.Service{}, mapNotFound(err)
	}
	return s, nil
}

func (r *servicesRepo) ListServices(ctx context.Context) ([]domain.Service, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *servicesRepo) UpsertService(ctx context.Context, svc domain.Service) error {
	typ := svc.Type
	if typ == "" {
		typ = domain.DefaultServiceType
	}
	createdAt := svc.CreatedAt
	if createdAt.IsZero() {
		createdAt = nowUTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO services (name, url, type, verify, public_url, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   url = excluded.url,
		   type = excluded.type,
		   verify = excluded.verify,
		   public_url = excluded.public_url`,
		svc.Name, svc.URL, typ, svc.Verify, svc.PublicURL, createdAt.UTC(),
	)
	return err
}

func (r *servicesRepo) DeleteService(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *servicesRepo) ClearServices(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM services`)
	return err
}
