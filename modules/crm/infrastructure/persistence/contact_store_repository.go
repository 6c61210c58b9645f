package persistence

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
)

const uniqueViolation = "23505"

// updatableFields are the contact columns a bulk update may touch, in
// report order.
var updatableFields = []string{
	migration.FieldFirstName,
	migration.FieldLastName,
	migration.FieldEmail,
	migration.FieldPhone,
	migration.FieldStatus,
	migration.FieldPlatform,
	migration.FieldConfirmingAgent,
	migration.FieldOperator,
	migration.FieldSource,
	migration.FieldContractState,
	migration.FieldNotes,
}

var fieldColumns = map[string]string{
	migration.FieldFirstName:       "first_name",
	migration.FieldLastName:        "last_name",
	migration.FieldEmail:           "email",
	migration.FieldPhone:           "phone",
	migration.FieldStatus:          "status_id",
	migration.FieldPlatform:        "platform_id",
	migration.FieldConfirmingAgent: "confirming_agent_id",
	migration.FieldOperator:        "operator_id",
	migration.FieldSource:          "source_id",
	migration.FieldContractState:   "contract_state",
	migration.FieldNotes:           "notes",
}

// PgContactStore implements the bulk-upsert and legacy-identifier lookup
// contracts against Postgres. Per-row constraint violations become per-row
// results; anything that means the chunk never landed is returned as an
// error for the orchestrator to recover at chunk granularity.
type PgContactStore struct {
	pool *pgxpool.Pool
}

func NewPgContactStore(pool *pgxpool.Pool) *PgContactStore {
	return &PgContactStore{pool: pool}
}

func (s *PgContactStore) BulkUpsert(ctx context.Context, rows []migration.ResolvedRow) (migration.BulkResult, error) {
	result := migration.BulkResult{Results: make([]migration.RowResult, 0, len(rows))}

	for _, row := range rows {
		var rr migration.RowResult
		var err error
		if row.ExistingID != "" {
			rr, err = s.updateContact(ctx, row)
		} else {
			rr, err = s.insertContact(ctx, row)
		}
		if err != nil {
			return migration.BulkResult{}, err
		}

		switch {
		case rr.Success && rr.Updated:
			result.Success++
			result.Updated++
		case rr.Success:
			result.Success++
			result.Created++
		default:
			result.Failed++
		}
		result.Results = append(result.Results, rr)
	}

	return result, nil
}

func (s *PgContactStore) insertContact(ctx context.Context, row migration.ResolvedRow) (migration.RowResult, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO contacts (
			first_name, last_name, email, phone,
			status_id, platform_id, confirming_agent_id, operator_id,
			source_id, contract_state, legacy_id, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id::text
	`,
		nullable(row.Field(migration.FieldFirstName)),
		nullable(row.Field(migration.FieldLastName)),
		nullable(row.Field(migration.FieldEmail)),
		nullable(row.Field(migration.FieldPhone)),
		nullable(row.Field(migration.FieldStatus)),
		nullable(row.Field(migration.FieldPlatform)),
		nullable(row.Field(migration.FieldConfirmingAgent)),
		nullable(row.Field(migration.FieldOperator)),
		nullable(row.Field(migration.FieldSource)),
		nullable(row.Field(migration.FieldContractState)),
		nullable(row.Field(migration.FieldLegacyID)),
		nullable(row.Field(migration.FieldNotes)),
	).Scan(&id)
	if err != nil {
		return rowFailure(err)
	}
	return migration.RowResult{Success: true, ContactID: id}, nil
}

func (s *PgContactStore) updateContact(ctx context.Context, row migration.ResolvedRow) (migration.RowResult, error) {
	query, args, updated := buildContactUpdate(row)
	if len(updated) == 0 {
		return migration.RowResult{Success: true, ContactID: row.ExistingID, Updated: true}, nil
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return rowFailure(err)
	}
	if tag.RowsAffected() == 0 {
		return migration.RowResult{Error: "contact no longer exists"}, nil
	}
	return migration.RowResult{
		Success:       true,
		ContactID:     row.ExistingID,
		Updated:       true,
		UpdatedFields: updated,
	}, nil
}

// buildContactUpdate assembles one UPDATE covering every non-empty updatable
// field, so either all of the row's fields land or none do. The contact
// identifier is always the final argument.
func buildContactUpdate(row migration.ResolvedRow) (string, []any, []string) {
	set := make([]string, 0, len(updatableFields)+1)
	args := make([]any, 0, len(updatableFields)+1)
	updated := make([]string, 0, len(updatableFields))

	for _, key := range updatableFields {
		value := row.Field(key)
		if value == "" {
			continue
		}
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", fieldColumns[key], len(args)))
		updated = append(updated, key)
	}
	set = append(set, "updated_at = now()")
	args = append(args, row.ExistingID)

	query := fmt.Sprintf(
		"UPDATE contacts SET %s WHERE id = $%d::uuid",
		strings.Join(set, ", "), len(args),
	)
	return query, args, updated
}

// rowFailure turns a Postgres constraint error into a per-row result with a
// structured code; any other error bubbles up as a chunk failure.
func rowFailure(err error) (migration.RowResult, error) {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		code := ""
		if pgErr.Code == uniqueViolation {
			code = migration.CodeAlreadyExists
		}
		return migration.RowResult{ErrorCode: code, Error: pgErr.Message}, nil
	}
	return migration.RowResult{}, errors.Wrap(err, "chunk submission failed")
}

func (s *PgContactStore) FindByLegacyID(ctx context.Context, legacyID string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT id::text FROM contacts WHERE legacy_id = $1 LIMIT 1
	`, legacyID).Scan(&id)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to look up legacy identifier")
	}
	return id, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
