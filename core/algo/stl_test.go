package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSTLConfig(t *testing.T) {
	cfg := DefaultSTLConfig(12)
	assert.Equal(t, 7, cfg.SeasonalSpan)
	assert.Equal(t, 23, cfg.TrendSpan)
	assert.Equal(t, 13, cfg.LowPassSpan)
	assert.Positive(t, cfg.OuterLoops)

	cfg = DefaultSTLConfig(4)
	assert.Equal(t, 9, cfg.TrendSpan)
	assert.Equal(t, 5, cfg.LowPassSpan)
}

func TestDecompose_SeasonalPlusLinearTrend(t *testing.T) {
	pattern := []float64{100, 120, 140, 160, 180, 200, 190, 170, 150, 130, 110, 105}
	y := make([]float64, 48)
	for i := range y {
		y[i] = pattern[i%12] + 2*float64(i)
	}

	dec, err := Decompose(y, DefaultSTLConfig(12))
	require.NoError(t, err)
	require.Len(t, dec.Seasonal, len(y))
	require.Len(t, dec.Trend, len(y))
	require.Len(t, dec.Residual, len(y))

	// The pattern averages 146.25, which ends up in the trend.
	for i := range y {
		assert.InDelta(t, pattern[i%12]-146.25, dec.Seasonal[i], 1e-6, "seasonal at %d", i)
		assert.InDelta(t, 146.25+2*float64(i), dec.Trend[i], 1e-6, "trend at %d", i)
		assert.InDelta(t, 0, dec.Residual[i], 1e-6, "residual at %d", i)
	}
}

func TestDecompose_ComponentsSumToSeries(t *testing.T) {
	y := seasonalBase()
	y[20] += 150

	dec, err := Decompose(y, DefaultSTLConfig(12))
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], dec.Trend[i]+dec.Seasonal[i]+dec.Residual[i], 1e-9)
	}
	// The spike is left in the residual and carries no robustness weight.
	assert.InDelta(t, 150, dec.Residual[20], 5)
	assert.Zero(t, dec.Weights[20])
}

func TestDecompose_NonRobust(t *testing.T) {
	cfg := DefaultSTLConfig(12)
	cfg.OuterLoops = 0
	cfg.InnerLoops = 2

	dec, err := Decompose(seasonalBase(), cfg)
	require.NoError(t, err)
	for _, w := range dec.Weights {
		assert.Equal(t, 1.0, w)
	}
}

func TestDecompose_Errors(t *testing.T) {
	_, err := Decompose(make([]float64, 23), DefaultSTLConfig(12))
	assert.Error(t, err)

	_, err = Decompose(make([]float64, 10), DefaultSTLConfig(1))
	assert.Error(t, err)

	_, err = Decompose(make([]float64, 30), STLConfig{Period: 1 << 62, SeasonalSpan: 7, TrendSpan: 7, LowPassSpan: 7})
	assert.Error(t, err)

	cfg := DefaultSTLConfig(12)
	cfg.SeasonalSpan = 1
	_, err = Decompose(make([]float64, 36), cfg)
	assert.Error(t, err)
}

func TestMovingAverage(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	ave := make([]float64, 4)
	movingAverage(x, len(x), 3, ave)
	assert.Equal(t, []float64{2, 3, 4, 5}, ave)
}

func TestLoessSmooth_ReproducesLine(t *testing.T) {
	y := []float64{1, 3, 5, 7, 9, 11, 13, 15, 17}
	ys := make([]float64, len(y))
	w := make([]float64, len(y))
	loessSmooth(y, len(y), 5, 1, false, nil, ys, w)
	for i := range y {
		assert.InDelta(t, y[i], ys[i], 1e-9)
	}
}
