package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the coordinator.
type Metrics struct {
	StateTransitions  *prometheus.CounterVec
	WakeEvents        *prometheus.CounterVec
	RecordingOutcomes *prometheus.CounterVec
	RecordingDuration prometheus.Histogram
	DownstreamTimeout *prometheus.CounterVec
	BusMessages       *prometheus.CounterVec
	BusConnected      prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		StateTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Session state transitions by destination state.",
		}, []string{"state"}),
		WakeEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wake_events_total",
			Help:      "Wake events by outcome (started, interrupt, ignored, dropped_offline).",
		}, []string{"outcome"}),
		RecordingOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_outcomes_total",
			Help:      "Recording attempts by terminal outcome.",
		}, []string{"outcome"}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_duration_seconds",
			Help:      "Duration of captured utterances in seconds.",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 8, 12, 15},
		}),
		DownstreamTimeout: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downstream_timeouts_total",
			Help:      "Transcription and persona request timeouts by stage.",
		}, []string{"stage"}),
		BusMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_messages_total",
			Help:      "Bus messages by direction and topic.",
		}, []string{"direction", "topic"}),
		BusConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bus_connected",
			Help:      "1 while the bus transport is connected, 0 otherwise.",
		}),
	}
}

func (m *Metrics) ObserveRecordingDuration(d time.Duration) {
	m.RecordingDuration.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
