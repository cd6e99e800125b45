package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/ports"
)

// Recorder collects pipeline counters on its own registry.
type Recorder struct {
	registry       *prometheus.Registry
	intercepted    *prometheus.CounterVec
	filtered       *prometheus.CounterVec
	trackingErrors *prometheus.CounterVec
	duration       prometheus.Histogram
}

// New creates a Recorder with every collector registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		intercepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_intercepted_commands_total",
				Help: "Shell commands intercepted, by command type and outcome.",
			},
			[]string{"type", "outcome"},
		),
		filtered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_filtered_commands_total",
				Help: "Shell command spans removed from assistant replies, by command type.",
			},
			[]string{"type"},
		),
		trackingErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shellgate_tracking_errors_total",
				Help: "Tracker calls that failed and were swallowed.",
			},
			[]string{"call"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "shellgate_conversion_duration_seconds",
				Help: "Time spent converting one intercepted command.",
				Buckets: []float64{
					0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1,
				},
			},
		),
	}
	r.registry.MustRegister(r.intercepted, r.filtered, r.trackingErrors, r.duration)
	return r
}

// RecordInterception counts one intercepted command.
func (r *Recorder) RecordInterception(commandType domain.CommandType, converted bool, seconds float64) {
	outcome := "blocked"
	if converted {
		outcome = "converted"
	}
	r.intercepted.WithLabelValues(labelFor(commandType), outcome).Inc()
	r.duration.Observe(seconds)
}

// RecordFiltered counts one span removed by the response filter.
func (r *Recorder) RecordFiltered(commandType domain.CommandType) {
	r.filtered.WithLabelValues(labelFor(commandType)).Inc()
}

// RecordTrackingError counts a swallowed tracker failure.
func (r *Recorder) RecordTrackingError(call string) {
	r.trackingErrors.WithLabelValues(call).Inc()
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func labelFor(commandType domain.CommandType) string {
	if commandType == "" {
		return string(domain.CommandShell)
	}
	return string(commandType)
}

var _ ports.MetricsRecorder = (*Recorder)(nil)
