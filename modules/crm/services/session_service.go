package services

import (
	"context"
	"sync"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/serrors"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/tabular"
)

// ErrNoTable is returned by session steps that need an ingested file first.
var ErrNoTable = serrors.NewError("NO_TABLE", "no file has been ingested", "Migration.Errors.NoTable")

// SessionService holds the latest immutable artifacts of one migration
// session (table, column mapping, value dictionaries) and re-supplies them
// to the pure resolvers. Mapping state is only edited synchronously between
// steps; starting a second run while one is committing is refused.
type SessionService struct {
	fieldMapping *FieldMappingService
	valueMapping *ValueMappingService
	reconciler   *Reconciler
	migration    *MigrationService
	export       *ExportService

	mu           sync.Mutex
	table        *tabular.Table
	mapping      migration.ColumnMapping
	values       migration.ValueMappings
	agentDefault migration.AgentDefault
	resolved     []migration.ResolvedRow
	duplicates   int
	report       *migration.Report
}

func NewSessionService(
	fieldMapping *FieldMappingService,
	valueMapping *ValueMappingService,
	reconciler *Reconciler,
	migrationSvc *MigrationService,
	export *ExportService,
) *SessionService {
	return &SessionService{
		fieldMapping: fieldMapping,
		valueMapping: valueMapping,
		reconciler:   reconciler,
		migration:    migrationSvc,
		export:       export,
		mapping:      migration.ColumnMapping{},
		values:       migration.ValueMappings{},
		agentDefault: migration.AgentDefault{Origin: migration.DefaultUnset},
	}
}

// Reset discards every session artifact.
func (s *SessionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = nil
	s.mapping = migration.ColumnMapping{}
	s.values = migration.ValueMappings{}
	s.agentDefault = migration.AgentDefault{Origin: migration.DefaultUnset}
	s.resolved = nil
	s.duplicates = 0
	s.report = nil
}

// SetTable installs a freshly ingested table and discards downstream state.
func (s *SessionService) SetTable(table *tabular.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
	s.resolved = nil
	s.duplicates = 0
	s.report = nil
}

func (s *SessionService) Table() *tabular.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

func (s *SessionService) Mapping() migration.ColumnMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapping.Clone()
}

// SetMapping installs a user-edited column mapping.
func (s *SessionService) SetMapping(mapping migration.ColumnMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapping = mapping.Clone()
}

// AutoMap runs the automatic mapper over the current headers and keeps the
// result. Returns how many fields were newly mapped.
func (s *SessionService) AutoMap() (migration.ColumnMapping, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil, 0, ErrNoTable
	}
	mapped, n := s.fieldMapping.AutoMap(s.table.Headers, s.mapping)
	s.mapping = mapped
	return mapped.Clone(), n, nil
}

// SuggestColumns ranks the current headers for one field, for the
// interactive mapping picker. Advisory only.
func (s *SessionService) SuggestColumns(fieldKey string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil, ErrNoTable
	}
	return s.fieldMapping.SuggestColumns(fieldKey, s.table.Headers, limit), nil
}

// AutoMapValues builds the value dictionaries of every mapped reference and
// enum field, keeping manual entries sticky.
func (s *SessionService) AutoMapValues(ctx context.Context) (migration.ValueMappings, error) {
	s.mu.Lock()
	if s.table == nil {
		s.mu.Unlock()
		return nil, ErrNoTable
	}
	table := s.table
	mapping := s.mapping.Clone()
	values := make(migration.ValueMappings, len(s.values))
	for key, dict := range s.values {
		values[key] = dict.Clone()
	}
	s.mu.Unlock()

	type resolver func(context.Context, []string, migration.ValueMapping) (migration.ValueMapping, error)
	resolvers := map[string]resolver{
		migration.FieldStatus:          s.valueMapping.MapStatusValues,
		migration.FieldPlatform:        s.valueMapping.MapPlatformValues,
		migration.FieldSource:          s.valueMapping.MapSourceValues,
		migration.FieldConfirmingAgent: s.valueMapping.MapConfirmingAgentValues,
		migration.FieldOperator:        s.valueMapping.MapOperatorValues,
		migration.FieldContractState:   s.valueMapping.MapContractStateValues,
	}

	for key, resolve := range resolvers {
		if !mapping.IsMapped(key) {
			continue
		}
		distinct := DistinctValues(table.Rows, mapping[key])
		existing := values[key]
		if existing == nil {
			existing = migration.ValueMapping{}
		}
		dict, err := resolve(ctx, distinct, existing)
		if err != nil {
			return nil, err
		}
		values[key] = dict
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return values, nil
}

// SetValue pins one source value to one target identifier; manual edits are
// sticky for the session.
func (s *SessionService) SetValue(fieldKey, sourceValue, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dict := s.values[fieldKey]
	if dict == nil {
		dict = migration.ValueMapping{}
	}
	dict[sourceValue] = targetID
	s.values[fieldKey] = dict
}

func (s *SessionService) Values() migration.ValueMappings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(migration.ValueMappings, len(s.values))
	for key, dict := range s.values {
		out[key] = dict.Clone()
	}
	return out
}

// EnsureSourceValue creates (or finds, case-insensitively) a source from an
// unmatched literal cell value and pins the value to its identifier.
func (s *SessionService) EnsureSourceValue(ctx context.Context, value string) (string, error) {
	entity, err := s.valueMapping.EnsureSource(ctx, value)
	if err != nil {
		return "", err
	}
	s.SetValue(migration.FieldSource, value, entity.ID)
	return entity.ID, nil
}

// DefaultAgent applies the once-only automatic confirming agent default.
func (s *SessionService) DefaultAgent(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentDefault = s.agentDefault.ApplyAutomatic(userID)
}

// ChooseAgent records an explicit user choice, including a deliberate clear.
func (s *SessionService) ChooseAgent(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentDefault = s.agentDefault.Choose(userID)
}

func (s *SessionService) AgentDefault() migration.AgentDefault {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentDefault
}

// Prepare resolves every row, applies the session's default confirming
// agent where the row has none, runs intra-file dedup on normalized email
// and reconciles legacy identifiers against the store. Returns the number
// of file duplicates excluded, reported before committing.
func (s *SessionService) Prepare(ctx context.Context, dedupOnEmail bool) (int, error) {
	s.mu.Lock()
	if s.table == nil {
		s.mu.Unlock()
		return 0, ErrNoTable
	}
	table := s.table
	mapping := s.mapping.Clone()
	values := s.values
	agent := s.agentDefault
	s.mu.Unlock()

	resolved := migration.Resolve(table.Rows, s.fieldMapping.Fields(), mapping, values)

	if agent.UserID != "" {
		for i := range resolved {
			if resolved[i].Field(migration.FieldConfirmingAgent) == "" {
				resolved[i].Fields[migration.FieldConfirmingAgent] = agent.UserID
			}
		}
	}

	duplicates := 0
	if dedupOnEmail {
		duplicates = MarkFileDuplicates(resolved, migration.FieldEmail)
	}
	s.reconciler.ReconcileExisting(ctx, resolved)

	s.mu.Lock()
	s.resolved = resolved
	s.duplicates = duplicates
	s.mu.Unlock()
	return duplicates, nil
}

// Commit runs the batch orchestrator over the prepared rows.
func (s *SessionService) Commit(ctx context.Context, batchSize int, progress ProgressFunc) (migration.Report, error) {
	s.mu.Lock()
	resolved := s.resolved
	s.mu.Unlock()

	report, err := s.migration.Run(ctx, resolved, batchSize, progress)
	if err != nil {
		return migration.Report{}, err
	}

	s.mu.Lock()
	s.report = &report
	s.mu.Unlock()
	return report, nil
}

func (s *SessionService) Report() *migration.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Duplicates returns the file-duplicate count of the last Prepare.
func (s *SessionService) Duplicates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duplicates
}

// FailedRowsCSV exports the failed rows of the finished run.
func (s *SessionService) FailedRowsCSV() ([]byte, error) {
	s.mu.Lock()
	table, mapping, report := s.table, s.mapping.Clone(), s.report
	s.mu.Unlock()
	if table == nil || report == nil {
		return nil, ErrNoTable
	}
	return s.export.FailedRowsCSV(table, mapping, *report)
}

// UpdatedRowsCSV exports the updated rows of the finished run.
func (s *SessionService) UpdatedRowsCSV() ([]byte, error) {
	s.mu.Lock()
	resolved, report := s.resolved, s.report
	s.mu.Unlock()
	if report == nil {
		return nil, ErrNoTable
	}
	return s.export.UpdatedRowsCSV(resolved, *report)
}
