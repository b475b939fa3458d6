package algo

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/huangsam/outlier/schema"
)

// MinSeasonalPoints is the smallest series, in distinct dates, that is decomposed
// for the given period: two full cycles plus one point of edge padding.
func MinSeasonalPoints(period int) int {
	return 2*period + 1
}

// enoughPoints reports whether n >= MinSeasonalPoints(period) without
// overflowing for large periods.
func enoughPoints(n, period int) bool {
	return n > 0 && period <= (n-1)/2
}

// datedValue is a record that can be placed on the series.
type datedValue struct {
	id    int64
	day   time.Time
	raw   float64
	value float64 // raw, or its log for the multiplicative model
	pos   int
}

// DetectSeasonal decomposes the dated values into trend, seasonal and residual
// parts and flags records whose residual z-score exceeds the threshold.
//
// Records sharing a date are averaged into one series position; each keeps its
// own residual against that position's fit. Series shorter than
// MinSeasonalPoints yield no findings. A set in which no record has a date is
// malformed.
func DetectSeasonal(rs schema.RecordSet, p schema.SeasonalParams) ([]Finding, error) {
	if rs.Len() == 0 {
		return nil, nil
	}
	if !rs.AnyDate() {
		return nil, schema.MalformedInputError("seasonal detection needs dated records, none of %d has a date", rs.Len())
	}

	threshold := p.ThresholdOrDefault()
	period := p.PeriodOrDefault()
	multiplicative := p.ModelOrDefault() == schema.MultiplicativeModel

	points := make([]datedValue, 0, rs.Len())
	for i := range rs.Len() {
		r := rs.At(i)
		if !r.HasDate() || !r.HasValue() {
			continue
		}
		raw := *r.Value
		v := raw
		if multiplicative {
			if v <= 0 {
				return nil, schema.MalformedInputError("multiplicative model needs positive values, record %d has %s", r.ID, schema.FormatNumber(raw))
			}
			v = math.Log(v)
		}
		y, m, d := r.Date.Date()
		points = append(points, datedValue{id: r.ID, day: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), raw: raw, value: v})
	}
	slices.SortFunc(points, func(a, b datedValue) int {
		if c := a.day.Compare(b.day); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	series := buildSeries(points)
	if !enoughPoints(len(series), period) {
		return nil, nil
	}

	dec, err := Decompose(series, DefaultSTLConfig(period))
	if err != nil {
		return nil, fmt.Errorf("decompose series: %w", err)
	}

	residuals := make([]float64, len(points))
	for i, pt := range points {
		residuals[i] = pt.value - dec.Trend[pt.pos] - dec.Seasonal[pt.pos]
	}
	mean, std, ok := MeanStdDev(residuals)
	if !ok || degenerate(std, maxAbs(series)) {
		return nil, nil
	}

	var out []Finding
	for i, pt := range points {
		z := (residuals[i] - mean) / std
		if math.Abs(z) <= threshold {
			continue
		}
		out = append(out, Finding{
			ID:    pt.id,
			Value: pt.raw,
			Score: z,
			Reason: fmt.Sprintf("Time Series STL: Residual Z-score %s exceeds threshold %s (value %s, residual %s)",
				formatZ(z), schema.FormatNumber(threshold), schema.FormatNumber(pt.raw),
				schema.FormatNumber(schema.RoundTo(residuals[i], schema.ReasonPrecision))),
		})
	}
	return out, nil
}

// buildSeries assigns each sorted point its series position and returns the
// per-date averages.
func buildSeries(points []datedValue) []float64 {
	var series []float64
	var count int
	for i := range points {
		if i == 0 || !points[i].day.Equal(points[i-1].day) {
			if count > 0 {
				series[len(series)-1] /= float64(count)
			}
			series = append(series, 0)
			count = 0
		}
		series[len(series)-1] += points[i].value
		count++
		points[i].pos = len(series) - 1
	}
	if count > 0 {
		series[len(series)-1] /= float64(count)
	}
	return series
}
