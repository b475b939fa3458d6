package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/outlier/schema"
)

// DetectStatistical flags records whose z-score against the set's own mean and
// sample standard deviation exceeds the threshold in absolute value. Fewer than
// two values, or values that are all equal, yield no findings.
func DetectStatistical(rs schema.RecordSet, p schema.StatisticalParams) []Finding {
	threshold := p.ThresholdOrDefault()
	values := rs.ValidValues()
	mean, std, ok := MeanStdDev(values)
	if !ok || degenerate(std, maxAbs(values)) {
		return nil
	}

	var out []Finding
	for i := range rs.Len() {
		r := rs.At(i)
		if !r.HasValue() {
			continue
		}
		z := (*r.Value - mean) / std
		if math.Abs(z) <= threshold {
			continue
		}
		out = append(out, Finding{
			ID:    r.ID,
			Value: *r.Value,
			Score: z,
			Reason: fmt.Sprintf("Statistical: Value %s has Z-score %s exceeding threshold %s",
				schema.FormatNumber(*r.Value), formatZ(z), schema.FormatNumber(threshold)),
		})
	}
	return out
}
