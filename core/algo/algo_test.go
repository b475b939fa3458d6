package algo

import (
	"math"
	"time"

	"github.com/huangsam/outlier/schema"
)

// monthly returns the first day of the month offset months after January 2022.
func monthly(offset int) time.Time {
	return time.Date(2022, time.January+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
}

// valueRecords builds undated records with ids starting at 1. NaN means missing.
func valueRecords(values ...float64) []schema.Record {
	out := make([]schema.Record, len(values))
	for i, v := range values {
		out[i] = schema.Record{ID: int64(i + 1)}
		if !math.IsNaN(v) {
			out[i].Value = schema.Float(v)
		}
	}
	return out
}

// monthlyRecords builds one record per month with ids starting at 1.
func monthlyRecords(values []float64) []schema.Record {
	out := make([]schema.Record, len(values))
	for i, v := range values {
		out[i] = schema.Record{ID: int64(i + 1), Value: schema.Float(v), Date: monthly(i)}
	}
	return out
}

// seasonalBase is three years of a strong yearly pattern on a slow trend with
// a little non-repeating noise.
func seasonalBase() []float64 {
	pattern := []float64{100, 120, 140, 160, 180, 200, 190, 170, 150, 130, 110, 105}
	out := make([]float64, 36)
	for i := range out {
		out[i] = pattern[i%12] + float64(i)*0.5 + 2*math.Sin(float64(i)*1.7)
	}
	return out
}

func mustSet(records []schema.Record) schema.RecordSet {
	rs, err := schema.NewRecordSet(records)
	if err != nil {
		panic(err)
	}
	return rs
}

func findingIDs(findings []Finding) []int64 {
	ids := make([]int64, len(findings))
	for i, f := range findings {
		ids[i] = f.ID
	}
	return ids
}
