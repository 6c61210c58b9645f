package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strings"

	gerrors "github.com/go-faster/errors"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/tabular"
)

// ExportService produces the on-demand delimited exports of a finished
// report: failed rows with their reason, and updated rows with what
// changed. Both reproduce the original row order.
type ExportService struct {
	fields []migration.TargetField
}

func NewExportService(fields []migration.TargetField) *ExportService {
	return &ExportService{fields: fields}
}

// FailedRowsCSV exports every failed row with the originally mapped source
// columns plus the failure reason.
func (s *ExportService) FailedRowsCSV(table *tabular.Table, mapping migration.ColumnMapping, report migration.Report) ([]byte, error) {
	columns := s.mappedColumns(mapping)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, columns...), "Reason")
	if err := w.Write(header); err != nil {
		return nil, gerrors.Wrap(err, "write header")
	}

	for _, outcome := range orderedOutcomes(report) {
		if outcome.Kind != migration.OutcomeFailed {
			continue
		}
		if outcome.RowIndex < 0 || outcome.RowIndex >= len(table.Rows) {
			continue
		}
		row := table.Rows[outcome.RowIndex]
		record := make([]string, 0, len(columns)+1)
		for _, column := range columns {
			record = append(record, row[column])
		}
		record = append(record, string(outcome.Reason))
		if err := w.Write(record); err != nil {
			return nil, gerrors.Wrap(err, "write row")
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// UpdatedRowsCSV exports every updated row: resolved identifier, display
// name, legacy identifier and the list of fields the update changed.
func (s *ExportService) UpdatedRowsCSV(rows []migration.ResolvedRow, report migration.Report) ([]byte, error) {
	byIndex := make(map[int]migration.ResolvedRow, len(rows))
	for _, row := range rows {
		byIndex[row.Index] = row
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ContactId", "Name", "LegacyId", "UpdatedFields"}); err != nil {
		return nil, gerrors.Wrap(err, "write header")
	}

	for _, outcome := range orderedOutcomes(report) {
		if outcome.Kind != migration.OutcomeUpdated {
			continue
		}
		row := byIndex[outcome.RowIndex]
		name := strings.TrimSpace(row.Field(migration.FieldFirstName) + " " + row.Field(migration.FieldLastName))
		record := []string{
			outcome.ContactID,
			name,
			row.Field(migration.FieldLegacyID),
			strings.Join(outcome.UpdatedFields, ";"),
		}
		if err := w.Write(record); err != nil {
			return nil, gerrors.Wrap(err, "write row")
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// mappedColumns returns the source columns claimed by the mapping, in
// target field order.
func (s *ExportService) mappedColumns(mapping migration.ColumnMapping) []string {
	columns := make([]string, 0, len(mapping))
	for _, field := range s.fields {
		if mapping.IsMapped(field.Key) {
			columns = append(columns, mapping[field.Key])
		}
	}
	return columns
}

func orderedOutcomes(report migration.Report) []migration.Outcome {
	outcomes := append([]migration.Outcome{}, report.Outcomes...)
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].RowIndex < outcomes[j].RowIndex
	})
	return outcomes
}
