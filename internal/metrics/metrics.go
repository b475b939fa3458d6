// Package metrics records detection and HTTP metrics with Prometheus.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/huangsam/outlier/schema"
)

// Detection outcomes used as metric labels.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid" // caller error: bad method, params or records
	OutcomeError   = "error"
)

// Recorder holds the Prometheus collectors. A nil Recorder records nothing.
type Recorder struct {
	detections   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	flagged      *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// New creates a Recorder whose collectors are registered with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		detections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outlier_detections_total",
				Help: "Total number of detection runs by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "outlier_detection_duration_seconds",
				Help:    "Duration of detection runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		flagged: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "outlier_flagged_records",
				Help:    "Number of records flagged per detection run",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500, 1000},
			},
			[]string{"method"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outlier_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "outlier_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

// Default returns the Recorder registered with the default Prometheus registry.
func Default() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = New(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// Outcome classifies a detection error for labeling.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case schema.IsCallerError(err):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// ObserveDetection records one detection run. Flagged counts are only
// observed for successful runs.
func (r *Recorder) ObserveDetection(method schema.Method, err error, d time.Duration, flagged int) {
	if r == nil {
		return
	}
	m := string(method)
	outcome := Outcome(err)
	r.detections.WithLabelValues(m, outcome).Inc()
	r.latency.WithLabelValues(m).Observe(d.Seconds())
	if outcome == OutcomeSuccess {
		r.flagged.WithLabelValues(m).Observe(float64(flagged))
	}
}

// ObserveRequest records one HTTP request. Use the route template, not the raw
// URL, to keep label cardinality low.
func (r *Recorder) ObserveRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
