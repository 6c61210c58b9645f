package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PgAppointmentRepository implements the secondary scheduling action: a
// best-effort appointment insert keyed by the committed contact.
type PgAppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgAppointmentRepository(pool *pgxpool.Pool) *PgAppointmentRepository {
	return &PgAppointmentRepository{pool: pool}
}

func (r *PgAppointmentRepository) CreateAppointment(ctx context.Context, contactID string, date string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (contact_id, scheduled_at)
		VALUES ($1::uuid, $2::timestamptz)
	`, contactID, date)
	if err != nil {
		return errors.Wrap(err, "failed to create appointment")
	}
	return nil
}
