package migration

import (
	"context"

	"github.com/Laurentvial/LeadFlow-sub003/pkg/serrors"
)

var (
	// ErrNoValidRows aborts a run before any chunk is sent when validation
	// leaves nothing to commit.
	ErrNoValidRows = serrors.NewError("NO_VALID_ROWS", "no valid rows to commit", "Migration.Errors.NoValidRows")
	// ErrRunInProgress guards the single-flight rule of a session.
	ErrRunInProgress = serrors.NewError("RUN_IN_PROGRESS", "a migration run is already in progress", "Migration.Errors.RunInProgress")
)

// RowResult is the store's verdict on one submitted row, positionally
// aligned with the request chunk.
type RowResult struct {
	Success       bool
	ContactID     string
	Updated       bool
	UpdatedFields []string
	ErrorCode     string
	Error         string
}

// BulkResult is the store's response to one chunk.
type BulkResult struct {
	Success int
	Failed  int
	Created int
	Updated int
	Results []RowResult
}

// RecordStore is the remote contact store consumed by the orchestrator.
type RecordStore interface {
	// BulkUpsert submits one ordered chunk and returns positionally aligned
	// per-row results. A returned error means the whole chunk never landed.
	BulkUpsert(ctx context.Context, rows []ResolvedRow) (BulkResult, error)
	// FindByLegacyID returns the identifier of the existing record carrying
	// the legacy identifier, or "" when there is none.
	FindByLegacyID(ctx context.Context, legacyID string) (string, error)
}

// Scheduler creates the secondary appointment tied to a committed contact.
// Calls are dispatched detached; failures never reach the report.
type Scheduler interface {
	CreateAppointment(ctx context.Context, contactID string, date string) error
}
