package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"moniftar/internal/domain"
)

// Metrics tracks membership changes.
type Metrics struct {
	Added      *prometheus.CounterVec
	Removed    *prometheus.CounterVec
	Promotions prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Added: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moniftar_list_members_added_total",
			Help: "Beneficiaries added to a distribution list, by placement",
		}, []string{"placement"}),
		Removed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moniftar_list_members_removed_total",
			Help: "Removal attempts, by the sub-list the beneficiary left (none when absent)",
		}, []string{"from"}),
		Promotions: f.NewCounter(prometheus.CounterOpts{
			Name: "moniftar_list_promotions_total",
			Help: "Waiting-list members promoted to the main list",
		}),
	}
}

func (m *Metrics) incAdded(p domain.Placement) {
	if m == nil {
		return
	}
	m.Added.WithLabelValues(string(p)).Inc()
}

func (m *Metrics) incRemoved(from domain.Placement, promoted bool) {
	if m == nil {
		return
	}
	m.Removed.WithLabelValues(string(from)).Inc()
	if promoted {
		m.Promotions.Inc()
	}
}
