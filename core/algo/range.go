package algo

import (
	"fmt"

	"github.com/huangsam/outlier/schema"
)

// DetectRange flags records whose value lies outside [Min, Max]. The minimum is
// checked first, so a record violating both bounds is reported once, against
// the minimum. Records without a value are skipped.
func DetectRange(rs schema.RecordSet, p schema.RangeParams) []Finding {
	if p.Min == nil && p.Max == nil {
		return nil
	}

	var out []Finding
	for i := range rs.Len() {
		r := rs.At(i)
		if !r.HasValue() {
			continue
		}
		v := *r.Value
		switch {
		case p.Min != nil && v < *p.Min:
			d := *p.Min - v
			out = append(out, Finding{
				ID:     r.ID,
				Value:  v,
				Score:  d,
				Reason: fmt.Sprintf("Out of Range: Value %s is below minimum %s by %s", schema.FormatNumber(v), schema.FormatNumber(*p.Min), formatDistance(d)),
			})
		case p.Max != nil && v > *p.Max:
			d := v - *p.Max
			out = append(out, Finding{
				ID:     r.ID,
				Value:  v,
				Score:  d,
				Reason: fmt.Sprintf("Out of Range: Value %s is above maximum %s by %s", schema.FormatNumber(v), schema.FormatNumber(*p.Max), formatDistance(d)),
			})
		}
	}
	return out
}

// formatDistance hides float noise such as 37.699999999999996.
func formatDistance(d float64) string {
	return schema.FormatNumber(schema.RoundTo(d, 6))
}
