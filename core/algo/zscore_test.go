package algo

import (
	"math"
	"testing"

	"github.com/huangsam/outlier/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStdDev(t *testing.T) {
	mean, std, ok := MeanStdDev([]float64{10, 10, 10, 10, 100})
	require.True(t, ok)
	assert.InDelta(t, 28.0, mean, 1e-9)
	assert.InDelta(t, 40.2492, std, 1e-4)

	_, _, ok = MeanStdDev([]float64{42})
	assert.False(t, ok)
	_, _, ok = MeanStdDev(nil)
	assert.False(t, ok)
}

func TestDetectStatistical(t *testing.T) {
	values := []float64{10, 10, 10, 10, 100}

	t.Run("below default threshold", func(t *testing.T) {
		// z(100) is about 1.79, well under 3.
		got := DetectStatistical(mustSet(valueRecords(values...)), schema.StatisticalParams{})
		assert.Empty(t, got)
	})

	t.Run("lower threshold flags the outlier", func(t *testing.T) {
		got := DetectStatistical(mustSet(valueRecords(values...)), schema.StatisticalParams{Threshold: schema.Float(1.5)})
		require.Len(t, got, 1)
		assert.Equal(t, int64(5), got[0].ID)
		assert.InDelta(t, 1.7889, got[0].Score, 1e-4)
		assert.Equal(t, "Statistical: Value 100 has Z-score 1.79 exceeding threshold 1.5", got[0].Reason)
	})

	t.Run("negative z-scores flag too", func(t *testing.T) {
		got := DetectStatistical(mustSet(valueRecords(100, 100, 100, 100, 10)), schema.StatisticalParams{Threshold: schema.Float(1.5)})
		require.Len(t, got, 1)
		assert.Equal(t, int64(5), got[0].ID)
		assert.Negative(t, got[0].Score)
		assert.Contains(t, got[0].Reason, "Z-score -1.79")
	})

	t.Run("identical values are degenerate", func(t *testing.T) {
		got := DetectStatistical(mustSet(valueRecords(7, 7, 7, 7)), schema.StatisticalParams{Threshold: schema.Float(0.1)})
		assert.Empty(t, got)
	})

	t.Run("single value is insufficient", func(t *testing.T) {
		got := DetectStatistical(mustSet(valueRecords(7, math.NaN())), schema.StatisticalParams{Threshold: schema.Float(0.1)})
		assert.Empty(t, got)
	})

	t.Run("missing values are skipped", func(t *testing.T) {
		got := DetectStatistical(mustSet(valueRecords(10, math.NaN(), 10, 10, 10, 100)), schema.StatisticalParams{Threshold: schema.Float(1.5)})
		assert.Equal(t, []int64{6}, findingIDs(got))
	})
}

func TestDetectStatistical_TwoValues(t *testing.T) {
	// Two values always sit at |z| = 1/sqrt(2), about 0.707.
	rs := mustSet(valueRecords(0, 10))
	assert.Empty(t, DetectStatistical(rs, schema.StatisticalParams{Threshold: schema.Float(0.71)}))
	assert.Equal(t, []int64{1, 2}, findingIDs(DetectStatistical(rs, schema.StatisticalParams{Threshold: schema.Float(0.7)})))
}
