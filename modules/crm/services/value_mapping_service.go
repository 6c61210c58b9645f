package services

import (
	"context"
	"strings"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/reference"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/matching"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/tabular"
)

const (
	valueScoreExact   = 100
	valueScoreContain = 70
	valueScoreAccept  = 70
)

// ValueMappingService builds per-field dictionaries from distinct source
// cell values to resolved target identifiers, against the reference
// directories. One scoring algorithm serves every reference field.
type ValueMappingService struct {
	statuses  reference.StatusDirectory
	platforms reference.PlatformDirectory
	sources   reference.SourceDirectory
	users     reference.UserDirectory
}

func NewValueMappingService(
	statuses reference.StatusDirectory,
	platforms reference.PlatformDirectory,
	sources reference.SourceDirectory,
	users reference.UserDirectory,
) *ValueMappingService {
	return &ValueMappingService{
		statuses:  statuses,
		platforms: platforms,
		sources:   sources,
		users:     users,
	}
}

// ResolveEntityValues maps every distinct value onto the best-matching
// entity. Values already present in the existing dictionary are sticky and
// never recomputed; unmatched values stay absent so the raw value passes
// through downstream.
func ResolveEntityValues(values []string, entities []reference.Entity, existing migration.ValueMapping) migration.ValueMapping {
	result := existing.Clone()
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, done := result[value]; done {
			continue
		}
		if id, ok := bestEntity(value, entities); ok {
			result[value] = id
		}
	}
	return result
}

// ResolveUserValues is ResolveEntityValues for person-like directories:
// username and email participate in matching alongside the display name.
func ResolveUserValues(values []string, users []reference.User, existing migration.ValueMapping) migration.ValueMapping {
	entities := make([]reference.Entity, 0, len(users)*3)
	for _, u := range users {
		entities = append(entities, reference.Entity{ID: u.ID, Name: u.Name})
		if u.Username != "" {
			entities = append(entities, reference.Entity{ID: u.ID, Name: u.Username})
		}
		if u.Email != "" {
			entities = append(entities, reference.Entity{ID: u.ID, Name: u.Email})
		}
	}
	return ResolveEntityValues(values, entities, existing)
}

// ResolveEnumValues resolves a constrained enumeration; the state literal
// doubles as its identifier.
func ResolveEnumValues(values []string, states []string, existing migration.ValueMapping) migration.ValueMapping {
	entities := make([]reference.Entity, 0, len(states))
	for _, state := range states {
		entities = append(entities, reference.Entity{ID: state, Name: state})
	}
	return ResolveEntityValues(values, entities, existing)
}

func bestEntity(value string, entities []reference.Entity) (string, bool) {
	bestID := ""
	bestScore := 0
	for _, e := range entities {
		score := scoreEntity(value, e)
		if score > bestScore {
			bestID = e.ID
			bestScore = score
		}
	}
	if bestScore < valueScoreAccept {
		return "", false
	}
	return bestID, true
}

func scoreEntity(value string, e reference.Entity) int {
	if value == e.ID || matching.EqualNormalized(value, e.Name) {
		return valueScoreExact
	}
	if matching.ContainsNormalized(value, e.Name) || matching.ContainsNormalized(e.Name, value) {
		return valueScoreContain
	}
	return 0
}

// MapStatusValues resolves status cell values against the status directory.
func (s *ValueMappingService) MapStatusValues(ctx context.Context, values []string, existing migration.ValueMapping) (migration.ValueMapping, error) {
	entities, err := s.statuses.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveEntityValues(values, entities, existing), nil
}

func (s *ValueMappingService) MapPlatformValues(ctx context.Context, values []string, existing migration.ValueMapping) (migration.ValueMapping, error) {
	entities, err := s.platforms.Platforms(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveEntityValues(values, entities, existing), nil
}

func (s *ValueMappingService) MapSourceValues(ctx context.Context, values []string, existing migration.ValueMapping) (migration.ValueMapping, error) {
	entities, err := s.sources.Sources(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveEntityValues(values, entities, existing), nil
}

func (s *ValueMappingService) MapConfirmingAgentValues(ctx context.Context, values []string, existing migration.ValueMapping) (migration.ValueMapping, error) {
	users, err := s.users.ConfirmingAgents(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveUserValues(values, users, existing), nil
}

func (s *ValueMappingService) MapOperatorValues(ctx context.Context, values []string, existing migration.ValueMapping) (migration.ValueMapping, error) {
	users, err := s.users.Operators(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveUserValues(values, users, existing), nil
}

func (s *ValueMappingService) MapContractStateValues(_ context.Context, values []string, existing migration.ValueMapping) (migration.ValueMapping, error) {
	return ResolveEnumValues(values, migration.ContractStates(), existing), nil
}

// EnsureSource returns the source matching the literal value, creating one
// when nothing matches. Lookup is case-insensitive to avoid duplicates.
func (s *ValueMappingService) EnsureSource(ctx context.Context, name string) (reference.Entity, error) {
	name = strings.TrimSpace(name)
	entities, err := s.sources.Sources(ctx)
	if err != nil {
		return reference.Entity{}, err
	}
	for _, e := range entities {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return s.sources.CreateSource(ctx, name)
}

// DistinctValues collects the distinct non-empty trimmed cell values of one
// mapped column, in first-seen order.
func DistinctValues(rows []tabular.Row, column string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, row := range rows {
		value := strings.TrimSpace(row[column])
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
