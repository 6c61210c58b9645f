package services_test

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/services"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/tabular"
)

func parseCSVBytes(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestFailedRowsCSV(t *testing.T) {
	t.Parallel()

	svc := services.NewExportService(migration.ContactFields())

	table := &tabular.Table{
		Headers: []string{"Prenom", "Email", "Statut"},
		Rows: []tabular.Row{
			{"Prenom": "Jean", "Email": "jean@x.com", "Statut": "Actif"},
			{"Prenom": "Luc", "Email": "luc@x.com", "Statut": "Actif"},
			{"Prenom": "Ana", "Email": "ana@x.com", "Statut": "Inactif"},
		},
	}
	mapping := migration.ColumnMapping{
		migration.FieldFirstName: "Prenom",
		migration.FieldEmail:     "Email",
		migration.FieldStatus:    "Statut",
	}
	report := migration.BuildReport([]migration.Outcome{
		{RowIndex: 2, Kind: migration.OutcomeFailed, Reason: migration.ReasonConnection},
		{RowIndex: 0, Kind: migration.OutcomeFailed, Reason: migration.ReasonAlreadyInStore},
		{RowIndex: 1, Kind: migration.OutcomeCreated, ContactID: "c1"},
	})

	data, err := svc.FailedRowsCSV(table, mapping, report)
	require.NoError(t, err)

	records := parseCSVBytes(t, data)
	require.Len(t, records, 3)
	// Mapped columns in target field order, then the reason.
	assert.Equal(t, []string{"Prenom", "Email", "Statut", "Reason"}, records[0])
	// Failed rows come back in original file order regardless of outcome
	// order; the created row is absent.
	assert.Equal(t, []string{"Jean", "jean@x.com", "Actif", "AlreadyInStore"}, records[1])
	assert.Equal(t, []string{"Ana", "ana@x.com", "Inactif", "ConnectionError"}, records[2])
}

func TestFailedRowsCSV_NoFailures(t *testing.T) {
	t.Parallel()

	svc := services.NewExportService(migration.ContactFields())
	table := &tabular.Table{Headers: []string{"Email"}, Rows: []tabular.Row{{"Email": "a@x.com"}}}
	mapping := migration.ColumnMapping{migration.FieldEmail: "Email"}
	report := migration.BuildReport([]migration.Outcome{
		{RowIndex: 0, Kind: migration.OutcomeCreated, ContactID: "c1"},
	})

	data, err := svc.FailedRowsCSV(table, mapping, report)
	require.NoError(t, err)

	records := parseCSVBytes(t, data)
	assert.Len(t, records, 1, "header only")
}

// Re-ingesting the failed-rows export (minus the reason column) must
// reproduce each exported row's validation outcome: a row that was valid
// enough to be attempted stays valid on the second pass.
func TestFailedRowsCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	fields := migration.ContactFields()
	export := services.NewExportService(fields)

	table := &tabular.Table{
		Headers: []string{"Prenom", "Email", "Statut"},
		Rows: []tabular.Row{
			{"Prenom": "Jean", "Email": "jean@x.com", "Statut": "Actif"},
			{"Prenom": "Ana", "Email": "ana@x.com", "Statut": "Actif"},
		},
	}
	mapping := migration.ColumnMapping{
		migration.FieldFirstName: "Prenom",
		migration.FieldEmail:     "Email",
		migration.FieldStatus:    "Statut",
	}
	values := migration.ValueMappings{
		migration.FieldStatus: {"Actif": "st-1"},
	}

	resolved := migration.Resolve(table.Rows, fields, mapping, values)
	store := &scriptedStore{
		script: func(_ int, rows []migration.ResolvedRow) (migration.BulkResult, error) {
			result := migration.BulkResult{Failed: len(rows)}
			for range rows {
				result.Results = append(result.Results, migration.RowResult{Error: "existe déjà"})
			}
			return result, nil
		},
	}
	orchestrator := services.NewMigrationService(store, nil, logrus.New(), nil)
	report, err := orchestrator.Run(context.Background(), resolved, 200, nil)
	require.NoError(t, err)
	require.Equal(t, 2, report.Failed)

	data, err := export.FailedRowsCSV(table, mapping, report)
	require.NoError(t, err)

	// Strip the reason column and round-trip through the ingester.
	records := parseCSVBytes(t, data)
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	for _, record := range records {
		require.NoError(t, w.Write(record[:len(record)-1]))
	}
	w.Flush()
	require.NoError(t, w.Error())

	reingested, err := tabular.ParseCSV([]byte(buf.String()), tabular.Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"Prenom", "Email", "Statut"}, reingested.Headers)
	require.Len(t, reingested.Rows, 2)

	again := migration.Resolve(reingested.Rows, fields, mapping, values)
	require.Len(t, again, len(resolved))
	for i := range again {
		assert.NotEmpty(t, again[i].Field(migration.FieldStatus),
			"re-ingested row %d must stay valid", i)
		assert.Equal(t, resolved[i].Fields, again[i].Fields)
	}
}

func TestUpdatedRowsCSV(t *testing.T) {
	t.Parallel()

	svc := services.NewExportService(migration.ContactFields())

	rows := []migration.ResolvedRow{
		{Index: 0, Fields: map[string]string{
			migration.FieldFirstName: "Jean",
			migration.FieldLastName:  "Dupont",
			migration.FieldLegacyID:  "L-1",
		}},
		{Index: 1, Fields: map[string]string{
			migration.FieldFirstName: "Luc",
		}},
	}
	report := migration.BuildReport([]migration.Outcome{
		{RowIndex: 0, Kind: migration.OutcomeUpdated, ContactID: "c1", UpdatedFields: []string{"email", "phone"}},
		{RowIndex: 1, Kind: migration.OutcomeCreated, ContactID: "c2"},
	})

	data, err := svc.UpdatedRowsCSV(rows, report)
	require.NoError(t, err)

	records := parseCSVBytes(t, data)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"ContactId", "Name", "LegacyId", "UpdatedFields"}, records[0])
	assert.Equal(t, []string{"c1", "Jean Dupont", "L-1", "email;phone"}, records[1])
}
