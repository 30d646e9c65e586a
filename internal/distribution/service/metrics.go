package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Created     prometheus.Counter
	Decremented prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounter(prometheus.CounterOpts{
			Name: "moniftar_distributions_created_total",
			Help: "Distribution events scheduled",
		}),
		Decremented: f.NewCounter(prometheus.CounterOpts{
			Name: "moniftar_distribution_stock_decremented_total",
			Help: "Stock units removed by manual decrements",
		}),
	}
}

func (m *Metrics) incCreated() {
	if m == nil {
		return
	}
	m.Created.Inc()
}

func (m *Metrics) addDecremented(qty int) {
	if m == nil {
		return
	}
	m.Decremented.Add(float64(qty))
}
