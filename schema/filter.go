package schema

import (
	"strconv"
	"time"
)

// RecordFilter holds the categorical and date criteria a user selected.
// Empty fields match everything.
type RecordFilter struct {
	PortName string     `json:"port_name,omitempty"`
	State    string     `json:"state,omitempty"`
	Border   string     `json:"border,omitempty"`
	Measure  string     `json:"measure,omitempty"`
	PortCode *int       `json:"port_code,omitempty"`
	Date     *time.Time `json:"date,omitempty"`  // exact month
	Start    *time.Time `json:"start,omitempty"` // inclusive
	End      *time.Time `json:"end,omitempty"`   // inclusive
}

// IsEmpty reports whether no criteria are set.
func (f RecordFilter) IsEmpty() bool {
	return f.PortName == "" && f.State == "" && f.Border == "" && f.Measure == "" &&
		f.PortCode == nil && f.Date == nil && f.Start == nil && f.End == nil
}

// Match applies the filter to a record held in memory. Records without a date
// never match a date criterion.
func (f RecordFilter) Match(r Record) bool {
	attrs := r.Attributes
	if f.PortName != "" && attrs[AttrPortName] != f.PortName {
		return false
	}
	if f.State != "" && attrs[AttrState] != f.State {
		return false
	}
	if f.Border != "" && attrs[AttrBorder] != f.Border {
		return false
	}
	if f.Measure != "" && attrs[AttrMeasure] != f.Measure {
		return false
	}
	if f.PortCode != nil && attrs[AttrPortCode] != strconv.Itoa(*f.PortCode) {
		return false
	}
	if f.Date == nil && f.Start == nil && f.End == nil {
		return true
	}
	if !r.HasDate() {
		return false
	}
	day := truncateDay(r.Date)
	if f.Date != nil && !day.Equal(truncateDay(*f.Date)) {
		return false
	}
	if f.Start != nil && day.Before(truncateDay(*f.Start)) {
		return false
	}
	if f.End != nil && day.After(truncateDay(*f.End)) {
		return false
	}
	return true
}

// Apply returns the records matching the filter, preserving order.
func (f RecordFilter) Apply(records []Record) []Record {
	if f.IsEmpty() {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Describe renders the filter as a flat map, for logging and run history.
func (f RecordFilter) Describe() map[string]any {
	out := make(map[string]any)
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set(AttrPortName, f.PortName)
	set(AttrState, f.State)
	set(AttrBorder, f.Border)
	set(AttrMeasure, f.Measure)
	if f.PortCode != nil {
		out[AttrPortCode] = *f.PortCode
	}
	for k, t := range map[string]*time.Time{"date": f.Date, "start": f.Start, "end": f.End} {
		if t != nil {
			out[k] = t.Format(DateLayout)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
