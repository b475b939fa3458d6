package core

import (
	"cmp"
	"slices"

	"github.com/huangsam/outlier/core/algo"
	"github.com/huangsam/outlier/schema"
)

// assemble turns detector findings into results ordered by record id.
// Detectors already report each record at most once.
func assemble(method schema.Method, findings []algo.Finding) []schema.AnomalyResult {
	out := make([]schema.AnomalyResult, 0, len(findings))
	for _, f := range findings {
		out = append(out, schema.AnomalyResult{
			ID:     f.ID,
			Method: method,
			Value:  f.Value,
			Score:  f.Score,
			Reason: f.Reason,
		})
	}
	slices.SortStableFunc(out, func(a, b schema.AnomalyResult) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
