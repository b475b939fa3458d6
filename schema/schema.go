// Package schema has the models, constants and errors shared by all parts of outlier.
package schema

import (
	"math"
	"slices"
	"time"
)

// Attribute keys populated for border crossing records.
const (
	AttrPortName  = "port_name"
	AttrState     = "state"
	AttrPortCode  = "port_code"
	AttrBorder    = "border"
	AttrMeasure   = "measure"
	AttrLatitude  = "latitude"
	AttrLongitude = "longitude"
	AttrPoint     = "point"
)

// DateLayout is the canonical date representation used by stores and outputs.
const DateLayout = "2006-01-02"

// Record is one row of the monthly count dataset.
// Value and Date may independently be missing.
type Record struct {
	ID         int64             `json:"id"`
	Value      *float64          `json:"value"`                // nil, NaN or Inf means missing
	Date       time.Time         `json:"date"`                 // zero means missing or unparsable
	Attributes map[string]string `json:"attributes,omitempty"` // opaque to the engine
}

// HasValue reports whether the record carries a usable numeric value.
func (r Record) HasValue() bool {
	return r.Value != nil && !math.IsNaN(*r.Value) && !math.IsInf(*r.Value, 0)
}

// HasDate reports whether the record carries a calendar date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// FloatValue returns the value, or NaN when missing.
func (r Record) FloatValue() float64 {
	if !r.HasValue() {
		return math.NaN()
	}
	return *r.Value
}

// DateString returns the date in DateLayout, or an empty string when missing.
func (r Record) DateString() string {
	if !r.HasDate() {
		return ""
	}
	return r.Date.Format(DateLayout)
}

// Float returns a pointer to v, for building records and params.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// RecordSet is a read-only view of the records evaluated in one detection run.
type RecordSet struct {
	records []Record
}

// NewRecordSet copies records into a RecordSet, rejecting duplicate ids.
func NewRecordSet(records []Record) (RecordSet, error) {
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			return RecordSet{}, MalformedInputError("duplicate record id %d", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return RecordSet{records: slices.Clone(records)}, nil
}

// Len returns the number of records.
func (rs RecordSet) Len() int {
	return len(rs.records)
}

// At returns the i-th record.
func (rs RecordSet) At(i int) Record {
	return rs.records[i]
}

// ValidValues returns the present values in record order.
func (rs RecordSet) ValidValues() []float64 {
	values := make([]float64, 0, len(rs.records))
	for _, r := range rs.records {
		if r.HasValue() {
			values = append(values, *r.Value)
		}
	}
	return values
}

// AnyDate reports whether at least one record has a date.
func (rs RecordSet) AnyDate() bool {
	for _, r := range rs.records {
		if r.HasDate() {
			return true
		}
	}
	return false
}
