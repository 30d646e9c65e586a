package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
	outcomeSkipped = "skipped"
)

// Metrics counts delivery outcomes and gateway latency.
type Metrics struct {
	Deliveries   *prometheus.CounterVec
	SendDuration prometheus.Histogram
	CircuitState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moniftar_notifications_total",
			Help: "Notifications by outcome (sent, failed, dropped, skipped)",
		}, []string{"outcome"}),
		SendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "moniftar_notification_send_duration_seconds",
			Help:    "Latency of gateway Send calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CircuitState: f.NewGauge(prometheus.GaugeOpts{
			Name: "moniftar_notification_circuit_open",
			Help: "1 while the gateway circuit is open",
		}),
	}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(outcome).Inc()
	if outcome == outcomeSent || outcome == outcomeFailed {
		m.SendDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) setCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitState.Set(1)
		return
	}
	m.CircuitState.Set(0)
}
