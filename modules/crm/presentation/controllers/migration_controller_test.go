package controllers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/reference"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/presentation/controllers"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/presentation/controllers/dtos"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/services"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/tabular"
)

type memoryStore struct{}

func (memoryStore) BulkUpsert(_ context.Context, rows []migration.ResolvedRow) (migration.BulkResult, error) {
	result := migration.BulkResult{Created: len(rows), Success: len(rows)}
	for i := range rows {
		result.Results = append(result.Results, migration.RowResult{
			Success:   true,
			ContactID: fmt.Sprintf("contact-%d", rows[i].Index),
		})
	}
	return result, nil
}

func (memoryStore) FindByLegacyID(_ context.Context, _ string) (string, error) {
	return "", nil
}

type statusDirectory struct{}

func (statusDirectory) Statuses(_ context.Context) ([]reference.Entity, error) {
	return []reference.Entity{{ID: "st-actif", Name: "Actif"}}, nil
}

func newTestRouter() (*mux.Router, *services.SessionService) {
	fields := migration.ContactFields()
	log := logrus.New()
	store := memoryStore{}
	session := services.NewSessionService(
		services.NewFieldMappingService(fields),
		services.NewValueMappingService(statusDirectory{}, nil, nil, nil),
		services.NewReconciler(store, log),
		services.NewMigrationService(store, nil, log, nil),
		services.NewExportService(fields),
	)

	router := mux.NewRouter()
	controllers.NewMigrationController(session, log, 1<<20).Register(router)
	return router, session
}

func TestSuggestColumns_Endpoint(t *testing.T) {
	t.Parallel()

	router, session := newTestRouter()
	session.SetTable(&tabular.Table{Headers: []string{"Numero", "E-mail"}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/crm/migration/mapping/suggestions?field=email&limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dtos.SuggestionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "email", resp.Field)
	require.NotEmpty(t, resp.Columns)
	assert.Equal(t, "E-mail", resp.Columns[0])
}

func TestSuggestColumns_RequiresField(t *testing.T) {
	t.Parallel()

	router, session := newTestRouter()
	session.SetTable(&tabular.Table{Headers: []string{"Email"}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/crm/migration/mapping/suggestions", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestColumns_NoTable(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/crm/migration/mapping/suggestions?field=email", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReport_CarriesSessionDuplicateCount(t *testing.T) {
	t.Parallel()

	router, session := newTestRouter()
	session.SetTable(&tabular.Table{
		Headers: []string{"Email", "Statut"},
		Rows: []tabular.Row{
			{"Email": "a@x.com", "Statut": "Actif"},
			{"Email": "A@X.COM", "Statut": "Actif"},
		},
	})
	_, _, err := session.AutoMap()
	require.NoError(t, err)
	_, err = session.AutoMapValues(context.Background())
	require.NoError(t, err)
	duplicates, err := session.Prepare(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, duplicates)
	_, err = session.Commit(context.Background(), 200, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crm/migration/report", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dtos.ReportResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Duplicates)
	assert.Equal(t, 1, resp.Total)
}
