package clientpolicy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Переходы конечного автомата мастера
	Transitions *prometheus.CounterVec

	// Latency вызовов шлюза по операциям (list/update) и итогу
	GatewayDuration *prometheus.HistogramVec

	// Открытые сессии мастера
	ActiveSessions prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Transitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "client_policy_workflow_transitions_total",
			Help: "Client policy workflow phase transitions.",
		}, []string{"from", "to"}),

		GatewayDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "client_policy_gateway_duration_seconds",
			Help:    "Latency of policy store gateway calls.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op", "status"}),

		ActiveSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "client_policy_sessions_active",
			Help: "Number of mounted client policy workflow sessions.",
		}),
	}
}
