package migration

import "strings"

type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeFailed  OutcomeKind = "failed"
)

// FailReason is the coarse failure taxonomy surfaced in the report.
type FailReason string

const (
	ReasonDuplicateInFile FailReason = "DuplicateInFile"
	ReasonAlreadyInStore  FailReason = "AlreadyInStore"
	ReasonConnection      FailReason = "ConnectionError"
	ReasonOther           FailReason = "Other"
)

// Structured error codes of the bulk-upsert contract. Message inspection is
// only a fallback for stores that predate the codes.
const (
	CodeDuplicateInFile = "duplicate_in_file"
	CodeAlreadyExists   = "already_exists"
	CodeConnection      = "connection"
)

// Outcome is the terminal state of one submitted row.
type Outcome struct {
	RowIndex      int
	Kind          OutcomeKind
	Reason        FailReason
	Message       string
	ContactID     string
	UpdatedFields []string
}

// Report is the terminal artifact of a migration run. Immutable once built;
// Succeeded always equals Created + Updated and Failed always equals
// Total - Succeeded.
type Report struct {
	Total          int
	Succeeded      int
	Failed         int
	Created        int
	Updated        int
	FailureReasons map[FailReason]int
	Outcomes       []Outcome
}

// BuildReport aggregates per-row outcomes into consistent counts.
func BuildReport(outcomes []Outcome) Report {
	report := Report{
		Total:          len(outcomes),
		FailureReasons: make(map[FailReason]int),
		Outcomes:       outcomes,
	}
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeCreated:
			report.Created++
		case OutcomeUpdated:
			report.Updated++
		case OutcomeFailed:
			report.Failed++
			reason := o.Reason
			if reason == "" {
				reason = ReasonOther
			}
			report.FailureReasons[reason]++
		}
	}
	report.Succeeded = report.Created + report.Updated
	return report
}

// filePhrases must be checked before storePhrases: the store's wording for
// both overlaps on "doublon"/"duplicate".
var (
	filePhrases  = []string{"doublon dans le fichier", "duplicate in file", "dans le fichier"}
	storePhrases = []string{"existe deja", "existe déjà", "already exists", "doublon", "duplicate"}
	connPhrases  = []string{"connexion", "connection", "timeout", "indisponible", "unavailable", "timed out"}
)

// ClassifyFailure maps a per-row store error onto the failure taxonomy.
// A structured code wins outright; otherwise the message is inspected
// case-insensitively, file-duplicate phrasing before store-duplicate
// phrasing.
func ClassifyFailure(code, message string) FailReason {
	switch code {
	case CodeDuplicateInFile:
		return ReasonDuplicateInFile
	case CodeAlreadyExists:
		return ReasonAlreadyInStore
	case CodeConnection:
		return ReasonConnection
	}

	lowered := strings.ToLower(message)
	for _, p := range filePhrases {
		if strings.Contains(lowered, p) {
			return ReasonDuplicateInFile
		}
	}
	for _, p := range storePhrases {
		if strings.Contains(lowered, p) {
			return ReasonAlreadyInStore
		}
	}
	for _, p := range connPhrases {
		if strings.Contains(lowered, p) {
			return ReasonConnection
		}
	}
	return ReasonOther
}
