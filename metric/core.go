package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all pipeline-level metrics (not stage-specific)
type Metrics struct {
	// Stage metrics
	StageStatus        *prometheus.GaugeVec
	UnitsReceived      *prometheus.CounterVec
	UnitsForwarded     *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	FailuresTotal      *prometheus.CounterVec

	// Flow-control metrics
	BackpressureTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		StageStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streamkit",
				Subsystem: "stage",
				Name:      "status",
				Help:      "Stage status (0=created, 1=started, 2=stopped, 3=failed)",
			},
			[]string{"pipeline", "stage"},
		),

		UnitsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamkit",
				Subsystem: "units",
				Name:      "received_total",
				Help:      "Total number of units taken from a stage inbound queue",
			},
			[]string{"pipeline", "stage"},
		),

		UnitsForwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamkit",
				Subsystem: "units",
				Name:      "forwarded_total",
				Help:      "Total number of units delivered downstream",
			},
			[]string{"pipeline", "stage", "status"},
		),

		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "streamkit",
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Unit processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "stage"},
		),

		FailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamkit",
				Subsystem: "failures",
				Name:      "total",
				Help:      "Total number of failures reported to the pipeline failure path",
			},
			[]string{"pipeline", "stage", "class"},
		),

		BackpressureTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamkit",
				Subsystem: "stage",
				Name:      "backpressure_total",
				Help:      "Total number of forwarding attempts refused by a full downstream queue",
			},
			[]string{"pipeline", "stage"},
		),
	}
}

// RecordUnitReceived increments the received counter for a stage.
func (m *Metrics) RecordUnitReceived(pipeline, stage string) {
	m.UnitsReceived.WithLabelValues(pipeline, stage).Inc()
}

// RecordUnitForwarded increments the forwarded counter for a stage.
// Status is "decoded" or "passthrough".
func (m *Metrics) RecordUnitForwarded(pipeline, stage, status string) {
	m.UnitsForwarded.WithLabelValues(pipeline, stage, status).Inc()
}

// RecordProcessingDuration observes one unit's processing time.
func (m *Metrics) RecordProcessingDuration(pipeline, stage string, duration time.Duration) {
	m.ProcessingDuration.WithLabelValues(pipeline, stage).Observe(duration.Seconds())
}

// RecordFailure increments the failure counter for a stage.
func (m *Metrics) RecordFailure(pipeline, stage, class string) {
	m.FailuresTotal.WithLabelValues(pipeline, stage, class).Inc()
}

// RecordBackpressure increments the backpressure counter for a stage.
func (m *Metrics) RecordBackpressure(pipeline, stage string) {
	m.BackpressureTotal.WithLabelValues(pipeline, stage).Inc()
}
