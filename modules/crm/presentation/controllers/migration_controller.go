package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/presentation/controllers/dtos"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/services"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/serrors"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/tabular"
)

// MigrationController exposes the migration session over HTTP. Thin glue:
// every decision lives in the services layer.
type MigrationController struct {
	session       *services.SessionService
	log           *logrus.Logger
	maxUploadSize int64
	basePath      string
}

func NewMigrationController(session *services.SessionService, log *logrus.Logger, maxUploadSize int64) *MigrationController {
	return &MigrationController{
		session:       session,
		log:           log,
		maxUploadSize: maxUploadSize,
		basePath:      "/crm/migration",
	}
}

func (c *MigrationController) Key() string {
	return c.basePath
}

func (c *MigrationController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/upload", c.Upload).Methods(http.MethodPost)
	router.HandleFunc("/mapping:auto", c.AutoMap).Methods(http.MethodPost)
	router.HandleFunc("/mapping/suggestions", c.SuggestColumns).Methods(http.MethodGet)
	router.HandleFunc("/mapping", c.SetMapping).Methods(http.MethodPut)
	router.HandleFunc("/values:auto", c.AutoMapValues).Methods(http.MethodPost)
	router.HandleFunc("/values", c.SetValue).Methods(http.MethodPut)
	router.HandleFunc("/sources", c.CreateSource).Methods(http.MethodPost)
	router.HandleFunc("/commit", c.Commit).Methods(http.MethodPost)
	router.HandleFunc("/report", c.Report).Methods(http.MethodGet)
	router.HandleFunc("/exports/failed", c.ExportFailed).Methods(http.MethodGet)
	router.HandleFunc("/exports/updated", c.ExportUpdated).Methods(http.MethodGet)
	router.HandleFunc("/reset", c.Reset).Methods(http.MethodPost)
}

func (c *MigrationController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize)
	if err := r.ParseMultipartForm(c.maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "uploaded file exceeds the size limit")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNREADABLE_FILE", err.Error())
		return
	}

	opts := tabular.Options{
		TreatFirstRowAsData: r.URL.Query().Get("firstRowAsData") == "true",
	}

	var table *tabular.Table
	kind := mimetype.Detect(data)
	switch {
	case kind.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		table, err = tabular.ParseWorkbook(data, opts)
	case kind.Is("text/csv") || kind.Is("text/plain"):
		table, err = tabular.ParseCSV(data, opts)
	default:
		writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "expected a CSV file or an xlsx workbook")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	c.session.SetTable(table)
	writeJSON(w, http.StatusOK, dtos.UploadResponse{Headers: table.Headers, Rows: len(table.Rows)})
}

func (c *MigrationController) AutoMap(w http.ResponseWriter, r *http.Request) {
	mapping, mapped, err := c.session.AutoMap()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.AutoMapResponse{Mapping: mapping, Mapped: mapped})
}

func (c *MigrationController) SetMapping(w http.ResponseWriter, r *http.Request) {
	var req dtos.SetMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	c.session.SetMapping(migration.ColumnMapping(req.Mapping))
	w.WriteHeader(http.StatusNoContent)
}

func (c *MigrationController) AutoMapValues(w http.ResponseWriter, r *http.Request) {
	values, err := c.session.AutoMapValues(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (c *MigrationController) SetValue(w http.ResponseWriter, r *http.Request) {
	var req dtos.SetValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if strings.TrimSpace(req.Field) == "" || strings.TrimSpace(req.Value) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "field and value are required")
		return
	}
	c.session.SetValue(req.Field, req.Value, req.TargetID)
	w.WriteHeader(http.StatusNoContent)
}

func (c *MigrationController) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	id, err := c.session.EnsureSourceValue(r.Context(), req.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.CreateSourceResponse{SourceID: id})
}

func (c *MigrationController) Commit(w http.ResponseWriter, r *http.Request) {
	var req dtos.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	duplicates, err := c.session.Prepare(r.Context(), req.DedupOnEmail)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	report, err := c.session.Commit(r.Context(), req.BatchSize, func(processed, total int) {
		c.log.WithFields(logrus.Fields{"processed": processed, "total": total}).Info("migration progress")
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewReportResponse(report, duplicates))
}

func (c *MigrationController) Report(w http.ResponseWriter, r *http.Request) {
	report := c.session.Report()
	if report == nil {
		writeError(w, http.StatusNotFound, "NO_REPORT", "no migration run has completed")
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewReportResponse(*report, c.session.Duplicates()))
}

// SuggestColumns returns the current headers ranked by similarity to one
// target field, for the mapping picker.
func (c *MigrationController) SuggestColumns(w http.ResponseWriter, r *http.Request) {
	field := strings.TrimSpace(r.URL.Query().Get("field"))
	if field == "" {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "query parameter 'field' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 5
	}

	columns, err := c.session.SuggestColumns(field, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.SuggestionsResponse{Field: field, Columns: columns})
}

func (c *MigrationController) ExportFailed(w http.ResponseWriter, r *http.Request) {
	data, err := c.session.FailedRowsCSV()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeCSV(w, "failed_rows.csv", data)
}

func (c *MigrationController) ExportUpdated(w http.ResponseWriter, r *http.Request) {
	data, err := c.session.UpdatedRowsCSV()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeCSV(w, "updated_rows.csv", data)
}

func (c *MigrationController) Reset(w http.ResponseWriter, r *http.Request) {
	c.session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dtos.ErrorResponse{Code: code, Message: message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	var be *serrors.BaseError
	if errors.As(err, &be) {
		status := http.StatusUnprocessableEntity
		switch be.Code {
		case "RUN_IN_PROGRESS":
			status = http.StatusConflict
		case "NO_TABLE", "NO_REPORT":
			status = http.StatusNotFound
		}
		writeError(w, status, be.Code, be.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
}
