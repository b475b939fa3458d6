package algo

import (
	"math"

	"github.com/huangsam/outlier/schema"
	"gonum.org/v1/gonum/stat"
)

// Finding is a detector's verdict on one flagged record.
type Finding struct {
	ID     int64
	Value  float64
	Score  float64
	Reason string
}

// MeanStdDev returns the mean and sample standard deviation of values.
// ok is false when fewer than two values are given.
func MeanStdDev(values []float64) (mean, std float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}
	mean, std = stat.MeanStdDev(values, nil)
	return mean, std, true
}

// degenerate reports whether std is too small to divide by, relative to the
// magnitude of the data it was computed from.
func degenerate(std, scale float64) bool {
	return std <= 1e-9*max(1, scale)
}

func maxAbs(values []float64) float64 {
	var m float64
	for _, v := range values {
		m = max(m, math.Abs(v))
	}
	return m
}

func formatZ(z float64) string {
	return schema.FormatFixed(z, schema.ReasonPrecision)
}
