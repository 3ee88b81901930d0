package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/bpo-console/internal/backend"
	"github.com/xela07ax/bpo-console/internal/infra"
	"github.com/xela07ax/bpo-console/internal/telemetry"
)

// CycleForwarder — отправка POST /cycle на бэкенд (реализует backend.Client)
type CycleForwarder interface {
	ForwardCycle(ctx context.Context, authorization string, body []byte) (json.RawMessage, error)
}

// ProtectedUpstream оборачивает бэкенд лимитером и предохранителем.
// Повторов нет: создание тикета не идемпотентно.
type ProtectedUpstream struct {
	next    CycleForwarder
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewProtectedUpstream(next CycleForwarder, cfg infra.GatewayConfig, metrics *telemetry.Metrics, logger *zap.Logger) *ProtectedUpstream {
	const name = "bpo-backend"
	failures := cfg.CBFailures
	if failures == 0 {
		failures = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Отказ бэкенда по 4xx — это ответ, а не авария
		IsSuccessful: func(err error) bool {
			var se *backend.StatusError
			if errors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("upstream", name), zap.String("from", from.String()), zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &ProtectedUpstream{
		next:    next,
		cb:      cb,
		limiter: rate.NewLimiter(limit, cfg.RateBurst),
	}
}

func (u *ProtectedUpstream) ForwardCycle(ctx context.Context, authorization string, body []byte) (json.RawMessage, error) {
	// 1. Rate Limiter
	if err := u.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 2. Circuit Breaker
	res, err := u.cb.Execute(func() (interface{}, error) {
		return u.next.ForwardCycle(ctx, authorization, body)
	})
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

// State — текущее состояние предохранителя
func (u *ProtectedUpstream) State() gobreaker.State {
	return u.cb.State()
}

// upstreamTimeout ограничивает один вызов бэкенда, даже если клиент ждет дольше
const upstreamTimeout = 10 * time.Second
