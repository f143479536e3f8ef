// Package metrics records report generation outcomes for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for generated reports.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeEmpty      = "empty"
	OutcomeFailure    = "failure"
)

// Recorder receives one observation per dispatched report.
type Recorder interface {
	ObserveReport(kind, outcome string, elapsed time.Duration)
}

// Prometheus is a Recorder backed by a counter and a duration histogram.
type Prometheus struct {
	generated *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewPrometheus registers the report collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		generated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assaylab_reports_generated_total",
			Help: "Reports dispatched, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assaylab_report_duration_seconds",
			Help:    "Time spent producing a report, by kind.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
	}
}

func (p *Prometheus) ObserveReport(kind, outcome string, elapsed time.Duration) {
	p.generated.WithLabelValues(kind, outcome).Inc()
	p.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Noop discards observations.
type Noop struct{}

func (Noop) ObserveReport(string, string, time.Duration) {}
