package codec

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/streamkit/metric"
)

// decoderMetrics holds the stage-local metrics for one decoder.
// All methods are nil-safe so a decoder without a registry skips
// instrumentation entirely.
type decoderMetrics struct {
	results        *prometheus.CounterVec
	decodeDuration *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	backpressure   *prometheus.CounterVec
	pending        *prometheus.GaugeVec
}

func newDecoderMetrics(registry *metric.MetricsRegistry, component string) (*decoderMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &decoderMetrics{
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamkit",
				Subsystem: "decoder",
				Name:      "results_total",
				Help:      "Decode outcomes by status (decoded, passthrough, need-more, filtered, error)",
			},
			[]string{"stage", "status"},
		),
		decodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "streamkit",
				Subsystem: "decoder",
				Name:      "decode_duration_seconds",
				Help:      "Time spent in the decode transform per input unit",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamkit",
				Subsystem: "decoder",
				Name:      "errors_total",
				Help:      "Decode failures by error class",
			},
			[]string{"stage", "class"},
		),
		backpressure: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamkit",
				Subsystem: "decoder",
				Name:      "backpressure_total",
				Help:      "Forwarding attempts refused by the downstream sink",
			},
			[]string{"stage"},
		),
		pending: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streamkit",
				Subsystem: "decoder",
				Name:      "pending_occupied",
				Help:      "Whether the stage holds an undelivered output (0 or 1)",
			},
			[]string{"stage"},
		),
	}

	if err := registry.RegisterCounterVec(component, "results_total", m.results); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(component, "decode_duration_seconds", m.decodeDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(component, "errors_total", m.errorsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(component, "backpressure_total", m.backpressure); err != nil {
		return nil, err
	}
	if err := registry.RegisterGaugeVec(component, "pending_occupied", m.pending); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *decoderMetrics) recordResult(stage, status string) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(stage, status).Inc()
}

func (m *decoderMetrics) recordDecodeDuration(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.decodeDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *decoderMetrics) recordError(stage, class string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(stage, class).Inc()
}

func (m *decoderMetrics) recordBackpressure(stage string) {
	if m == nil {
		return
	}
	m.backpressure.WithLabelValues(stage).Inc()
}

func (m *decoderMetrics) setPendingOccupied(stage string, occupied bool) {
	if m == nil {
		return
	}
	v := 0.0
	if occupied {
		v = 1.0
	}
	m.pending.WithLabelValues(stage).Set(v)
}
