package services

import (
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/matching"
)

// Score tiers of the auto-mapper. A header is accepted for a field only
// when its best score reaches scoreAccept.
const (
	scoreKeyExact     = 100
	scoreLabelExact   = 90
	scoreSynonym      = 85
	scoreKeyContains  = 70
	scoreLabelContain = 60
	scoreAccept       = 70

	containMinKeyLen = 4
)

// genericColumns are headers too unspecific for containment matching;
// "id" inside "statusId" must not claim a bare "ID" column.
var genericColumns = map[string]struct{}{
	"id":   {},
	"code": {},
	"ref":  {},
	"key":  {},
	"type": {},
	"date": {},
}

// FieldMappingService maps target schema fields onto source columns, by
// deterministic scoring over normalized header names.
type FieldMappingService struct {
	fields []migration.TargetField
}

func NewFieldMappingService(fields []migration.TargetField) *FieldMappingService {
	return &FieldMappingService{fields: fields}
}

func (s *FieldMappingService) Fields() []migration.TargetField {
	return s.fields
}

// AutoMap assigns a column to every still-unmapped field. Existing entries
// are never overwritten; a column claimed earlier in the pass is excluded
// for later fields. The returned count says how many fields were newly
// mapped; zero with no headers means there was nothing to map.
func (s *FieldMappingService) AutoMap(headers []string, existing migration.ColumnMapping) (migration.ColumnMapping, int) {
	result := existing.Clone()
	if len(headers) == 0 {
		return result, 0
	}

	// Only columns assigned during this pass are excluded; columns claimed
	// by pre-existing manual mappings stay eligible.
	taken := make(map[string]struct{}, len(headers))

	mapped := 0
	for _, field := range s.fields {
		if result.IsMapped(field.Key) {
			continue
		}
		column := bestHeader(field, headers, taken)
		if column == "" {
			continue
		}
		result[field.Key] = column
		taken[column] = struct{}{}
		mapped++
	}
	return result, mapped
}

// AutoMapOne maps a single field, ignoring columns claimed by other fields
// in the existing mapping. Returns "" when no header scores high enough.
// An already-mapped field keeps its column.
func (s *FieldMappingService) AutoMapOne(fieldKey, fieldLabel string, headers []string, existing migration.ColumnMapping) string {
	if existing.IsMapped(fieldKey) {
		return existing[fieldKey]
	}

	field := migration.TargetField{Key: fieldKey, Label: fieldLabel}
	for _, f := range s.fields {
		if f.Key == fieldKey {
			field = f
			if fieldLabel != "" {
				field.Label = fieldLabel
			}
			break
		}
	}

	taken := make(map[string]struct{})
	for key, column := range existing {
		if key != fieldKey && existing.IsMapped(key) {
			taken[column] = struct{}{}
		}
	}
	return bestHeader(field, headers, taken)
}

// SuggestColumns returns headers ranked by fuzzy similarity to the field
// label, for the interactive mapping picker. Purely advisory.
func (s *FieldMappingService) SuggestColumns(fieldKey string, headers []string, limit int) []string {
	for _, f := range s.fields {
		if f.Key == fieldKey {
			return matching.Suggest(f.Label, headers, limit)
		}
	}
	return matching.Suggest(fieldKey, headers, limit)
}

// bestHeader picks the highest-scoring header not yet taken; ties keep the
// first header in input order.
func bestHeader(field migration.TargetField, headers []string, taken map[string]struct{}) string {
	best := ""
	bestScore := 0
	for _, header := range headers {
		if _, claimed := taken[header]; claimed {
			continue
		}
		if score := ScoreHeader(field, header); score > bestScore {
			best = header
			bestScore = score
		}
	}
	if bestScore < scoreAccept {
		return ""
	}
	return best
}

// ScoreHeader computes the match score of one header for one field.
func ScoreHeader(field migration.TargetField, header string) int {
	nh := matching.Normalize(header)
	if nh == "" {
		return 0
	}
	nk := matching.Normalize(field.Key)
	nl := matching.Normalize(field.Label)

	if nh == nk {
		return scoreKeyExact
	}
	if nl != "" && nh == nl {
		return scoreLabelExact
	}
	for _, syn := range field.Synonyms {
		if nh == matching.Normalize(syn) {
			return scoreSynonym
		}
	}
	if containmentMatch(nh, nk) {
		return scoreKeyContains
	}
	if containmentMatch(nh, nl) {
		return scoreLabelContain
	}
	return 0
}

// containmentMatch applies the guarded substring rule: the needle must be
// reasonably long, the header must not be a generic column name, and the
// header must not dwarf the needle.
func containmentMatch(header, needle string) bool {
	if len(needle) < containMinKeyLen {
		return false
	}
	if _, generic := genericColumns[header]; generic {
		return false
	}
	if len(header)*2 > len(needle)*3 {
		return false
	}
	return matching.ContainsNormalized(header, needle)
}
