package matching_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Laurentvial/LeadFlow-sub003/pkg/matching"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Prénom", "prenom"},
		{" E-mail ", "email"},
		{"Téléphone portable", "telephoneportable"},
		{"first_name", "firstname"},
		{"STATUT", "statut"},
		{"Opérateur N°2", "operateurn2"},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, matching.Normalize(tc.in))
		})
	}
}

func TestEqualNormalized(t *testing.T) {
	t.Parallel()

	assert.True(t, matching.EqualNormalized("Prénom", "prenom"))
	assert.True(t, matching.EqualNormalized("first_name", "First Name"))
	assert.False(t, matching.EqualNormalized("prenom", "nom"))
}

func TestContainsNormalized(t *testing.T) {
	t.Parallel()

	assert.True(t, matching.ContainsNormalized("Statut du contact", "statut"))
	assert.False(t, matching.ContainsNormalized("statut", "plateforme"))
	assert.False(t, matching.ContainsNormalized("anything", ""))
}

func TestSuggest_RanksCloserFirst(t *testing.T) {
	t.Parallel()

	headers := []string{"Numero", "Prenom", "Nom de famille"}
	got := matching.Suggest("prénom", headers, 2)
	assert.NotEmpty(t, got)
	assert.Equal(t, "Prenom", got[0])
	assert.LessOrEqual(t, len(got), 2)
}

func TestSuggest_EmptyInputs(t *testing.T) {
	t.Parallel()

	assert.Nil(t, matching.Suggest("", []string{"a"}, 5))
	assert.Nil(t, matching.Suggest("q", nil, 5))
}
