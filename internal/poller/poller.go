// Package poller периодически перезапускает функцию загрузки, пока жив её владелец.
//
// Каждый запуск — fire-and-forget в своей горутине: перекрытия не
// координируются, ошибки только логируются и не останавливают расписание.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/telemetry"
)

// Func — одна итерация опроса
type Func func(ctx context.Context) error

type Poller struct {
	clock   clock.Clock
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

func New(clk clock.Clock, logger *zap.Logger, metrics *telemetry.Metrics) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics(nil)
	}
	return &Poller{clock: clk, logger: logger.Named("poller"), metrics: metrics}
}

// Handle — запущенный опрос. Cancel синхронный и идемпотентный.
type Handle struct {
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	ticker *clock.Ticker
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	once    sync.Once
}

// Start вызывает fn сразу и далее каждые interval до Cancel.
// Контекст вызовов отменяется при Cancel или при отмене parent.
func (p *Poller) Start(parent context.Context, name string, interval time.Duration, fn Func) *Handle {
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{
		name:   name,
		ctx:    ctx,
		cancel: cancel,
		// Тикер создаем до запуска горутины: мок-часы должны его уже видеть
		ticker: p.clock.Ticker(interval),
		done:   make(chan struct{}),
	}
	logger := p.logger.With(zap.String("poller", name))

	fire := func() {
		h.mu.Lock()
		if h.stopped {
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()

		p.metrics.PollTicks.WithLabelValues(name).Inc()
		go func() {
			if err := fn(ctx); err != nil {
				p.metrics.PollErrors.WithLabelValues(name).Inc()
				logger.Warn("poll failed", zap.Error(err))
			}
		}()
	}

	fire()
	go func() {
		defer close(h.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.ticker.C:
				fire()
			}
		}
	}()

	logger.Debug("poller started", zap.Duration("interval", interval))
	return h
}

// Cancel останавливает расписание. После возврата новых вызовов не будет;
// уже идущие получают отмененный контекст, а их поздний результат должен
// отбросить потребитель.
func (h *Handle) Cancel() {
	h.once.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()

		h.ticker.Stop()
		h.cancel()
		<-h.done
	})
}

// Done закрывается, когда цикл расписания завершился.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) Name() string { return h.name }
