package schema

import "time"

// RunRecord represents a row from the detection_runs table.
type RunRecord struct {
	RunID        int64      `json:"run_id"`
	Method       Method     `json:"method"`
	Params       string     `json:"params"` // JSON-encoded request params
	Filter       string     `json:"filter"` // JSON-encoded filter
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationMs   *int64     `json:"duration_ms,omitempty"`
	TotalRecords int        `json:"total_records"`
	FlaggedCount int        `json:"flagged_count"`
	ErrorMessage *string    `json:"error,omitempty"`
}

// FlagRecord represents a row from the detection_flags table.
type FlagRecord struct {
	RunID    int64   `json:"run_id"`
	RecordID int64   `json:"record_id"`
	Value    float64 `json:"value"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

// Option is one selectable filter value.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterOptions lists the distinct values available for each filter.
type FilterOptions struct {
	PortNames    []Option `json:"port_names"`
	States       []Option `json:"states"`
	Borders      []Option `json:"borders"`
	Measures     []Option `json:"measures"`
	Dates        []Option `json:"dates"`
	PortCodes    []Option `json:"port_codes"`
	AnomalyTypes []Option `json:"anomaly_types"`
}

// MethodOptions returns the detection methods as filter options.
func MethodOptions() []Option {
	out := make([]Option, 0, len(AllMethods))
	for _, m := range AllMethods {
		out = append(out, Option{Value: string(m), Label: MethodLabels[m]})
	}
	return out
}

// StoreStatus reports on the record store and run history.
type StoreStatus struct {
	Backend      string           `json:"backend"`
	Connected    bool             `json:"connected"`
	TotalRecords int64            `json:"total_records"`
	TotalRuns    int64            `json:"total_runs"`
	LastRunTime  *time.Time       `json:"last_run_time,omitempty"`
	TableSizes   map[string]int64 `json:"table_sizes"`
}
