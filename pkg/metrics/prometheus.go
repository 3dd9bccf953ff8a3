package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	queriesTotal *prometheus.CounterVec
	groupsTotal  *prometheus.HistogramVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the summary metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		queriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_summary_queries_total",
				Help: "Total number of summary queries by mode and grouping",
			},
			[]string{"mode", "group_by"},
		),
		groupsTotal: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_summary_groups",
				Help:    "Number of groups returned per summary query",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 365},
			},
			[]string{"mode"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordQuery(mode, groupBy string) {
	r.queriesTotal.WithLabelValues(mode, groupBy).Inc()
}

func (r *Recorder) RecordGroups(mode string, n int) {
	r.groupsTotal.WithLabelValues(mode).Observe(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordQuery(string, string)    {}
func (Noop) RecordGroups(string, int)      {}
func (Noop) RecordError(string)            {}
func (Noop) RecordLatency(string, float64) {}
