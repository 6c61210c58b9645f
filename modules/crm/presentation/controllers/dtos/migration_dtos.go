package dtos

import "github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"

type UploadResponse struct {
	Headers []string `json:"headers"`
	Rows    int      `json:"rows"`
}

type AutoMapResponse struct {
	Mapping map[string]string `json:"mapping"`
	Mapped  int               `json:"mapped"`
}

type SuggestionsResponse struct {
	Field   string   `json:"field"`
	Columns []string `json:"columns"`
}

type SetMappingRequest struct {
	Mapping map[string]string `json:"mapping"`
}

type SetValueRequest struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	TargetID string `json:"targetId"`
}

type CreateSourceRequest struct {
	Value string `json:"value"`
}

type CreateSourceResponse struct {
	SourceID string `json:"sourceId"`
}

type CommitRequest struct {
	DedupOnEmail bool `json:"dedupOnEmail"`
	BatchSize    int  `json:"batchSize"`
}

type ReportResponse struct {
	Total          int            `json:"total"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	Created        int            `json:"created"`
	Updated        int            `json:"updated"`
	Duplicates     int            `json:"duplicatesInFile"`
	FailureReasons map[string]int `json:"failureReasons"`
}

func NewReportResponse(report migration.Report, duplicates int) ReportResponse {
	reasons := make(map[string]int, len(report.FailureReasons))
	for reason, n := range report.FailureReasons {
		reasons[string(reason)] = n
	}
	return ReportResponse{
		Total:          report.Total,
		Succeeded:      report.Succeeded,
		Failed:         report.Failed,
		Created:        report.Created,
		Updated:        report.Updated,
		Duplicates:     duplicates,
		FailureReasons: reasons,
	}
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
