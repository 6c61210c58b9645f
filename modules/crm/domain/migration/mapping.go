package migration

import (
	"strings"

	"github.com/Laurentvial/LeadFlow-sub003/pkg/tabular"
)

// ColumnMapping maps a target field key to the source column claimed for
// it. An absent or empty entry means the field is ignored. Treated as an
// immutable value: mutations go through Clone + assignment.
type ColumnMapping map[string]string

func (m ColumnMapping) Clone() ColumnMapping {
	out := make(ColumnMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsMapped reports whether the field already claims a column.
func (m ColumnMapping) IsMapped(fieldKey string) bool {
	return strings.TrimSpace(m[fieldKey]) != ""
}

// ValueMapping maps a distinct source cell value to a resolved target
// identifier or literal, for one field. Entries are sticky for the session:
// they are never recomputed once present.
type ValueMapping map[string]string

func (m ValueMapping) Clone() ValueMapping {
	out := make(ValueMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValueMappings groups the per-field dictionaries by target field key.
type ValueMappings map[string]ValueMapping

// DefaultOrigin tracks how the session's default confirming agent was set,
// so a once-only default is never re-applied over a deliberate user choice
// or a deliberate clear.
type DefaultOrigin string

const (
	DefaultUnset      DefaultOrigin = "unset"
	DefaultAutomatic  DefaultOrigin = "defaulted"
	DefaultUserChosen DefaultOrigin = "userChosen"
)

// AgentDefault is the tri-state default confirming agent of a session.
type AgentDefault struct {
	Origin DefaultOrigin
	UserID string
}

// ApplyAutomatic sets an automatic default only while the state is unset.
func (d AgentDefault) ApplyAutomatic(userID string) AgentDefault {
	if d.Origin != DefaultUnset {
		return d
	}
	return AgentDefault{Origin: DefaultAutomatic, UserID: userID}
}

// Choose records an explicit user choice; an empty userID is a deliberate
// clear and still counts as user chosen.
func (d AgentDefault) Choose(userID string) AgentDefault {
	return AgentDefault{Origin: DefaultUserChosen, UserID: userID}
}

// ResolvedRow is one source row transformed into target field values. Index
// points back at the originating row in the ingested table.
type ResolvedRow struct {
	Index  int
	Fields map[string]string
	// ExistingID carries the identifier of a pre-existing store record
	// matched by legacy identifier; non-empty turns the commit into an
	// update.
	ExistingID string
	// Duplicate marks a row excluded by intra-file deduplication.
	Duplicate bool
}

func (r ResolvedRow) Field(key string) string {
	return r.Fields[key]
}

// Resolve applies the column mapping and value dictionaries to every
// ingested row. Reference and enum fields take the dictionary entry for the
// trimmed cell value when one exists, otherwise the raw value passes
// through for downstream validation to accept or reject.
func Resolve(rows []tabular.Row, fields []TargetField, mapping ColumnMapping, values ValueMappings) []ResolvedRow {
	resolved := make([]ResolvedRow, 0, len(rows))
	for i, row := range rows {
		out := make(map[string]string, len(fields))
		for _, field := range fields {
			column := mapping[field.Key]
			if column == "" {
				continue
			}
			cell := strings.TrimSpace(row[column])
			if cell == "" {
				continue
			}
			if dict, ok := values[field.Key]; ok {
				if id, ok := dict[cell]; ok {
					out[field.Key] = id
					continue
				}
			}
			out[field.Key] = cell
		}
		resolved = append(resolved, ResolvedRow{Index: i, Fields: out})
	}
	return resolved
}
