package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы проверки сессии
const (
	OutcomeAuthorized = "authorized"
	OutcomeRejected   = "rejected"
	OutcomeAbsent     = "absent"
	OutcomeError      = "error"
)

type Metrics struct {
	// Gate: сколько проверок и с каким исходом (scope: admin/user)
	GateChecks *prometheus.CounterVec

	// Решения, которые пришли после размонтирования и были отброшены
	GateStale *prometheus.CounterVec

	// Poller: тики и ошибки по имени опросчика
	PollTicks  *prometheus.CounterVec
	PollErrors *prometheus.CounterVec

	// Gateway: трафик /api/cycle
	ProxyRequests *prometheus.CounterVec
	ProxyDuration *prometheus.HistogramVec

	// Состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object: если регистр не передан, пишем в локальный, никуда не подключенный
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		GateChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bpo_console_gate_checks_total",
			Help: "Session checks performed by the auth gate.",
		}, []string{"scope", "outcome"}),

		GateStale: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bpo_console_gate_stale_total",
			Help: "Gate decisions discarded because their mount was gone.",
		}, []string{"scope"}),

		PollTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bpo_console_poll_ticks_total",
			Help: "Poller invocations.",
		}, []string{"poller"}),

		PollErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bpo_console_poll_errors_total",
			Help: "Poller invocations that returned an error.",
		}, []string{"poller"}),

		ProxyRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bpo_gateway_proxy_requests_total",
			Help: "Requests proxied to the backend by status.",
		}, []string{"route", "status"}),

		ProxyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bpo_gateway_proxy_duration_seconds",
			Help:    "Histogram of upstream call latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route"}),

		CircuitBreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bpo_gateway_circuit_breaker_state",
			Help: "Current state of the upstream circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"upstream"}),
	}
}
