package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/reference"
)

// PgReferenceRepository serves the read-only reference directories from
// Postgres: statuses, platforms, sources and role-flagged users.
type PgReferenceRepository struct {
	pool *pgxpool.Pool
}

func NewPgReferenceRepository(pool *pgxpool.Pool) *PgReferenceRepository {
	return &PgReferenceRepository{pool: pool}
}

func (r *PgReferenceRepository) Statuses(ctx context.Context) ([]reference.Entity, error) {
	return r.listEntities(ctx, `SELECT id::text, name FROM contact_statuses ORDER BY name`)
}

func (r *PgReferenceRepository) Platforms(ctx context.Context) ([]reference.Entity, error) {
	return r.listEntities(ctx, `SELECT id::text, name FROM platforms ORDER BY name`)
}

func (r *PgReferenceRepository) Sources(ctx context.Context) ([]reference.Entity, error) {
	return r.listEntities(ctx, `SELECT id::text, name FROM sources ORDER BY name`)
}

func (r *PgReferenceRepository) CreateSource(ctx context.Context, name string) (reference.Entity, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sources (name)
		VALUES ($1)
		RETURNING id::text
	`, name).Scan(&id)
	if err != nil {
		return reference.Entity{}, errors.Wrap(err, "failed to create source")
	}
	return reference.Entity{ID: id, Name: name}, nil
}

func (r *PgReferenceRepository) ConfirmingAgents(ctx context.Context) ([]reference.User, error) {
	return r.listUsers(ctx, `
		SELECT id::text, name, username, email
		FROM users
		WHERE is_confirming_agent
		ORDER BY name
	`)
}

func (r *PgReferenceRepository) Operators(ctx context.Context) ([]reference.User, error) {
	return r.listUsers(ctx, `
		SELECT id::text, name, username, email
		FROM users
		WHERE is_operator
		ORDER BY name
	`)
}

func (r *PgReferenceRepository) listEntities(ctx context.Context, query string) ([]reference.Entity, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query directory")
	}
	defer rows.Close()

	var out []reference.Entity
	for rows.Next() {
		var e reference.Entity
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan directory entity")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating directory")
	}
	return out, nil
}

func (r *PgReferenceRepository) listUsers(ctx context.Context, query string) ([]reference.User, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	var out []reference.User
	for rows.Next() {
		var u reference.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Email); err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating users")
	}
	return out, nil
}
