package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts vouchers issued and scan outcomes.
type Metrics struct {
	Issued      prometheus.Counter
	Redemptions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Issued: f.NewCounter(prometheus.CounterOpts{
			Name: "moniftar_vouchers_issued_total",
			Help: "Vouchers created, one per beneficiary per day",
		}),
		Redemptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moniftar_voucher_scans_total",
			Help: "Voucher scans by outcome (redeemed or the rejection code)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) incIssued() {
	if m == nil {
		return
	}
	m.Issued.Inc()
}

func (m *Metrics) incRedemption(outcome string) {
	if m == nil {
		return
	}
	m.Redemptions.WithLabelValues(outcome).Inc()
}
