package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/services"
)

func newFieldMapper() *services.FieldMappingService {
	return services.NewFieldMappingService(migration.ContactFields())
}

func TestAutoMap_FrenchHeaders(t *testing.T) {
	t.Parallel()

	svc := newFieldMapper()
	headers := []string{"Prenom", "Nom", "Email", "Statut"}

	mapping, mapped := svc.AutoMap(headers, migration.ColumnMapping{})

	assert.Equal(t, 4, mapped)
	assert.Equal(t, "Prenom", mapping[migration.FieldFirstName])
	assert.Equal(t, "Nom", mapping[migration.FieldLastName])
	assert.Equal(t, "Email", mapping[migration.FieldEmail])
	assert.Equal(t, "Statut", mapping[migration.FieldStatus])
}

func TestAutoMap_Idempotent(t *testing.T) {
	t.Parallel()

	svc := newFieldMapper()
	headers := []string{"Prénom", "Nom", "E-mail", "Statut", "Plateforme"}

	first, _ := svc.AutoMap(headers, migration.ColumnMapping{})
	second, n := svc.AutoMap(headers, first)

	assert.Equal(t, first, second)
	assert.Zero(t, n)
}

func TestAutoMap_NeverOverwritesExistingMapping(t *testing.T) {
	t.Parallel()

	svc := newFieldMapper()
	existing := migration.ColumnMapping{migration.FieldEmail: "Courriel perso"}

	mapping, _ := svc.AutoMap([]string{"Email", "Prenom"}, existing)

	assert.Equal(t, "Courriel perso", mapping[migration.FieldEmail])
	assert.Equal(t, "Prenom", mapping[migration.FieldFirstName])
}

func TestAutoMap_FirstAssignedWins(t *testing.T) {
	t.Parallel()

	svc := newFieldMapper()
	// "Email" is an exact match for the email field; once claimed it must
	// not be considered for any later field.
	mapping, _ := svc.AutoMap([]string{"Email"}, migration.ColumnMapping{})

	assert.Equal(t, "Email", mapping[migration.FieldEmail])
	for key, column := range mapping {
		if key == migration.FieldEmail {
			continue
		}
		assert.NotEqual(t, "Email", column)
	}
}

func TestAutoMap_NoHeaders(t *testing.T) {
	t.Parallel()

	svc := newFieldMapper()
	existing := migration.ColumnMapping{migration.FieldEmail: "Email"}

	mapping, n := svc.AutoMap(nil, existing)

	assert.Zero(t, n)
	assert.Equal(t, existing, mapping)
}

func TestScoreHeader_Monotonicity(t *testing.T) {
	t.Parallel()

	field := migration.TargetField{
		Key:      "statusId",
		Label:    "Status",
		Synonyms: []string{"statut"},
	}

	exact := services.ScoreHeader(field, "status_id")
	label := services.ScoreHeader(field, "Status")
	synonym := services.ScoreHeader(field, "Statut")
	containment := services.ScoreHeader(field, "statusIdRef")

	assert.Greater(t, exact, label)
	assert.Greater(t, label, synonym)
	assert.Greater(t, synonym, containment)
	assert.Positive(t, containment)
}

func TestScoreHeader_GenericColumnsExcludedFromContainment(t *testing.T) {
	t.Parallel()

	field := migration.TargetField{Key: "code", Label: "Code"}
	assert.Zero(t, services.ScoreHeader(field, "some unrelated header"))

	// A generic header never matches by containment even when it contains
	// the key.
	status := migration.TargetField{Key: "statusId", Label: "Status"}
	assert.Zero(t, services.ScoreHeader(status, "id"))
}

func TestScoreHeader_LengthGuard(t *testing.T) {
	t.Parallel()

	field := migration.TargetField{Key: "email", Label: "Email"}
	// Header is far longer than 1.5x the key; containment must not fire.
	assert.Zero(t, services.ScoreHeader(field, "emailing campaign archive column"))
	// Within the bound it does.
	assert.Equal(t, 70, services.ScoreHeader(field, "emails"))
}

func TestScoreHeader_ShortKeysNeverContainmentMatch(t *testing.T) {
	t.Parallel()

	field := migration.TargetField{Key: "tel", Label: "Tel"}
	assert.Zero(t, services.ScoreHeader(field, "telephone"))
}

func TestAutoMap_TieKeepsFirstHeader(t *testing.T) {
	t.Parallel()

	svc := newFieldMapper()
	// Both headers normalize to the same synonym score for lastName; the
	// first one in input order must win.
	mapping, _ := svc.AutoMap([]string{"NOM", "Nom"}, migration.ColumnMapping{})
	assert.Equal(t, "NOM", mapping[migration.FieldLastName])
}

func TestAutoMapOne(t *testing.T) {
	t.Parallel()

	svc := newFieldMapper()

	t.Run("finds column for single field", func(t *testing.T) {
		got := svc.AutoMapOne(migration.FieldPhone, "Phone", []string{"Telephone", "Email"}, migration.ColumnMapping{})
		assert.Equal(t, "Telephone", got)
	})

	t.Run("keeps existing mapping", func(t *testing.T) {
		existing := migration.ColumnMapping{migration.FieldPhone: "Portable"}
		got := svc.AutoMapOne(migration.FieldPhone, "Phone", []string{"Telephone"}, existing)
		assert.Equal(t, "Portable", got)
	})

	t.Run("skips columns claimed by other fields", func(t *testing.T) {
		existing := migration.ColumnMapping{migration.FieldEmail: "Email"}
		got := svc.AutoMapOne(migration.FieldPhone, "Phone", []string{"Email"}, existing)
		assert.Equal(t, "", got)
	})

	t.Run("none below threshold", func(t *testing.T) {
		got := svc.AutoMapOne(migration.FieldPhone, "Phone", []string{"Unrelated"}, migration.ColumnMapping{})
		assert.Equal(t, "", got)
	})
}

func TestSuggestColumns(t *testing.T) {
	t.Parallel()

	svc := newFieldMapper()
	got := svc.SuggestColumns(migration.FieldEmail, []string{"Numero", "E-mail"}, 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "E-mail", got[0])
}
