package schema

import "math"

// Severity labels for flagged records.
const (
	CriticalLabel = "Critical"
	HighLabel     = "High"
	ModerateLabel = "Moderate"
)

// EnrichedAnomaly joins an AnomalyResult with the record it flags.
type EnrichedAnomaly struct {
	Rank     int    `json:"rank"`
	Severity string `json:"severity"`
	Date     string `json:"date,omitempty"`
	AnomalyResult
	Attributes map[string]string `json:"attributes,omitempty"`
}

// GetSeverity grades how far past the limit a result is. Z-scores are compared
// with the threshold; range results use the overshoot relative to the value.
func GetSeverity(a AnomalyResult, threshold float64) string {
	if a.Method == RangeMethod {
		rel := 1.0
		if a.Value != 0 {
			rel = math.Abs(a.Score) / math.Abs(a.Value)
		}
		switch {
		case rel >= 0.5:
			return CriticalLabel
		case rel >= 0.25:
			return HighLabel
		default:
			return ModerateLabel
		}
	}
	score := math.Abs(a.Score)
	switch {
	case score >= threshold+2:
		return CriticalLabel
	case score >= threshold+1:
		return HighLabel
	default:
		return ModerateLabel
	}
}

// EnrichAnomalies joins results with their records by id, keeping result order.
func EnrichAnomalies(results []AnomalyResult, records []Record, threshold float64) []EnrichedAnomaly {
	byID := make(map[int64]Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	out := make([]EnrichedAnomaly, len(results))
	for i, a := range results {
		rec := byID[a.ID]
		out[i] = EnrichedAnomaly{
			Rank:          i + 1,
			Severity:      GetSeverity(a, threshold),
			Date:          rec.DateString(),
			AnomalyResult: a,
			Attributes:    rec.Attributes,
		}
	}
	return out
}

// DetectionReport is the outcome of one detection over a filtered record set.
type DetectionReport struct {
	RunID        int64             `json:"run_id,omitempty"`
	Method       Method            `json:"method"`
	Params       map[string]any    `json:"params"`
	Filter       map[string]any    `json:"filter,omitempty"`
	TotalRecords int               `json:"total_records"`
	FlaggedCount int               `json:"flagged_count"`
	Anomalies    []EnrichedAnomaly `json:"anomalies"`
}

// NewDetectionReport enriches results with their records and keeps at most
// limit anomalies. A limit of 0 keeps all of them; FlaggedCount always counts
// every result.
func NewDetectionReport(req DetectionRequest, filter RecordFilter, records []Record, results []AnomalyResult, limit int) DetectionReport {
	shown := results
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	return DetectionReport{
		Method:       req.Method,
		Params:       req.Describe(),
		Filter:       filter.Describe(),
		TotalRecords: len(records),
		FlaggedCount: len(results),
		Anomalies:    EnrichAnomalies(shown, records, req.Threshold()),
	}
}
