package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/outlier/schema"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeInvalid, Outcome(schema.UnknownMethodError("nope")))
	assert.Equal(t, OutcomeInvalid, Outcome(schema.NewParamError("min", "bad")))
	assert.Equal(t, OutcomeError, Outcome(errors.New("database is locked")))
}

func TestObserveDetection(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveDetection(schema.RangeMethod, nil, 10*time.Millisecond, 3)
	r.ObserveDetection(schema.RangeMethod, nil, 20*time.Millisecond, 0)
	r.ObserveDetection(schema.RangeMethod, schema.NewParamError("min", "bad"), time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.detections.WithLabelValues("range", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.detections.WithLabelValues("range", OutcomeInvalid)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
		if f.GetName() == "outlier_flagged_records" {
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, uint64(2), f.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.Contains(t, names, "outlier_detection_duration_seconds")
	assert.Contains(t, names, "outlier_flagged_records")
}

func TestObserveRequest(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.ObserveRequest("/api/anomalies", "GET", 400, time.Millisecond)
	r.ObserveRequest("/api/anomalies", "GET", 400, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/anomalies", "GET", "400")))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveDetection(schema.StatisticalMethod, nil, time.Second, 1)
		r.ObserveRequest("/hello", "GET", 200, time.Second)
	})
}

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
}
