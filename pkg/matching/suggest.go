package matching

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest ranks candidates by edit distance to the query, closest first.
// It backs the interactive "did you mean" list next to the deterministic
// auto-mapper and never participates in auto-mapping decisions.
func Suggest(query string, candidates []string, limit int) []string {
	if query == "" || len(candidates) == 0 {
		return nil
	}

	q := Normalize(query)
	type ranked struct {
		index    int
		distance int
	}
	ranks := make([]ranked, len(candidates))
	for i, c := range candidates {
		ranks[i] = ranked{index: i, distance: fuzzy.LevenshteinDistance(q, Normalize(c))}
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].distance < ranks[j].distance
	})

	if limit <= 0 || limit > len(ranks) {
		limit = len(ranks)
	}
	out := make([]string, 0, limit)
	for _, r := range ranks[:limit] {
		out = append(out, candidates[r.index])
	}
	return out
}
