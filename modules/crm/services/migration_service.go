package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/eventbus"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/serrors"
)

// RunState tracks where a migration run stands.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateValidating RunState = "validating"
	StateCommitting RunState = "committing"
	StateCompleted  RunState = "completed"
)

const defaultBatchSize = 200

// ErrStoreUnavailable is the only whole-run failure past validation: the
// run could not even be constructed against the store.
var ErrStoreUnavailable = serrors.NewError("STORE_UNAVAILABLE", "record store is not configured", "Migration.Errors.StoreUnavailable")

// ProgressFunc receives cumulative rows attempted versus total validated
// rows, after every chunk.
type ProgressFunc func(processed, total int)

// RunCompleted is published on the event bus once a report is final.
type RunCompleted struct {
	RunID  string
	Report migration.Report
}

// MigrationService commits resolved rows in bounded sequential chunks and
// aggregates per-row outcomes into the migration report. One run at a time
// per service instance.
type MigrationService struct {
	store     migration.RecordStore
	scheduler migration.Scheduler
	log       *logrus.Logger
	bus       eventbus.EventBus

	mu       sync.Mutex
	state    RunState
	detached sync.WaitGroup
}

func NewMigrationService(
	store migration.RecordStore,
	scheduler migration.Scheduler,
	log *logrus.Logger,
	bus eventbus.EventBus,
) *MigrationService {
	return &MigrationService{
		store:     store,
		scheduler: scheduler,
		log:       log,
		bus:       bus,
		state:     StateIdle,
	}
}

func (s *MigrationService) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *MigrationService) setState(state RunState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *MigrationService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateValidating || s.state == StateCommitting {
		return migration.ErrRunInProgress
	}
	s.state = StateValidating
	return nil
}

// Run validates, chunks and commits the resolved row set. Everything past
// validation is recovered into the report: a chunk-level transport failure
// fails that chunk's rows with ConnectionError and the run continues.
// The caller either gets an error and no report, or a complete report.
func (s *MigrationService) Run(ctx context.Context, rows []migration.ResolvedRow, batchSize int, progress ProgressFunc) (migration.Report, error) {
	if s.store == nil {
		return migration.Report{}, ErrStoreUnavailable
	}
	if err := s.begin(); err != nil {
		return migration.Report{}, err
	}

	valid := validRows(rows)
	if len(valid) == 0 {
		s.setState(StateIdle)
		return migration.Report{}, migration.ErrNoValidRows
	}

	s.setState(StateCommitting)
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	runID := uuid.NewString()
	log := s.log
	if log != nil {
		log.WithFields(logrus.Fields{
			"run_id": runID,
			"rows":   len(valid),
			"batch":  batchSize,
		}).Info("migration run started")
	}

	outcomes := make([]migration.Outcome, 0, len(valid))
	processed := 0
	for start := 0; start < len(valid); start += batchSize {
		end := start + batchSize
		if end > len(valid) {
			end = len(valid)
		}
		chunk := valid[start:end]

		outcomes = append(outcomes, s.commitChunk(ctx, chunk)...)

		processed += len(chunk)
		if progress != nil {
			progress(processed, len(valid))
		}
	}

	report := migration.BuildReport(outcomes)
	s.setState(StateCompleted)
	if log != nil {
		log.WithFields(logrus.Fields{
			"run_id":    runID,
			"succeeded": report.Succeeded,
			"failed":    report.Failed,
		}).Info("migration run completed")
	}
	if s.bus != nil {
		s.bus.Publish(&RunCompleted{RunID: runID, Report: report})
	}
	return report, nil
}

// validRows drops file duplicates and rows missing the mandatory status
// reference. Excluded rows are never attempted and never counted.
func validRows(rows []migration.ResolvedRow) []migration.ResolvedRow {
	valid := make([]migration.ResolvedRow, 0, len(rows))
	for _, row := range rows {
		if row.Duplicate {
			continue
		}
		if row.Field(migration.FieldStatus) == "" {
			continue
		}
		valid = append(valid, row)
	}
	return valid
}

func (s *MigrationService) commitChunk(ctx context.Context, chunk []migration.ResolvedRow) []migration.Outcome {
	outcomes := make([]migration.Outcome, 0, len(chunk))

	result, err := s.store.BulkUpsert(ctx, chunk)
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).WithField("rows", len(chunk)).Warn("chunk submission failed")
		}
		for _, row := range chunk {
			outcomes = append(outcomes, migration.Outcome{
				RowIndex: row.Index,
				Kind:     migration.OutcomeFailed,
				Reason:   migration.ReasonConnection,
				Message:  err.Error(),
			})
		}
		return outcomes
	}

	for i, row := range chunk {
		if i >= len(result.Results) {
			outcomes = append(outcomes, migration.Outcome{
				RowIndex: row.Index,
				Kind:     migration.OutcomeFailed,
				Reason:   migration.ReasonOther,
				Message:  "store returned no result for row",
			})
			continue
		}
		rr := result.Results[i]
		if !rr.Success {
			outcomes = append(outcomes, migration.Outcome{
				RowIndex: row.Index,
				Kind:     migration.OutcomeFailed,
				Reason:   migration.ClassifyFailure(rr.ErrorCode, rr.Error),
				Message:  rr.Error,
			})
			continue
		}

		kind := migration.OutcomeCreated
		if rr.Updated {
			kind = migration.OutcomeUpdated
		}
		outcomes = append(outcomes, migration.Outcome{
			RowIndex:      row.Index,
			Kind:          kind,
			ContactID:     rr.ContactID,
			UpdatedFields: rr.UpdatedFields,
		})

		if date := row.Field(migration.FieldAppointmentDate); date != "" {
			s.spawnAppointment(rr.ContactID, date)
		}
	}
	return outcomes
}

// spawnAppointment dispatches the secondary scheduling action detached from
// the run: its latency and failures are invisible to the report.
func (s *MigrationService) spawnAppointment(contactID, date string) {
	if s.scheduler == nil || contactID == "" {
		return
	}
	s.detached.Add(1)
	go func() {
		defer s.detached.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.scheduler.CreateAppointment(ctx, contactID, date); err != nil && s.log != nil {
			s.log.WithError(err).WithField("contact_id", contactID).
				Warn("appointment creation failed")
		}
	}()
}

// WaitDetached blocks until every detached side action has finished. Meant
// for graceful shutdown; never called before report finalization.
func (s *MigrationService) WaitDetached() {
	s.detached.Wait()
}
