package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_NilRegistry(t *testing.T) {
	m := NewMetrics(nil)
	m.GateChecks.WithLabelValues("admin", OutcomeAuthorized).Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(m.GateChecks.WithLabelValues("admin", OutcomeAuthorized)))
}

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.PollTicks.WithLabelValues("metrics").Inc()
	m.CircuitBreakerState.WithLabelValues("backend").Set(2)

	count, err := testutil.GatherAndCount(reg, "bpo_console_poll_ticks_total", "bpo_gateway_circuit_breaker_state")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Повторная регистрация в том же реестре — паника promauto
	require.Panics(t, func() { NewMetrics(reg) })
}
