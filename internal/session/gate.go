package session

/*
Файл gate.go реализует Auth Gate — охранника защищенных маршрутов консоли.

Жизненный цикл одного монтирования:
  - Mount: состояние LOADING, выдается новый id монтирования.
  - Check: читаем токен из хранилища; нет токена — UNAUTHORIZED без обращения
    к верификатору; есть — ровно один вызов Verifier.
  - Resolve: решение применяется только к "своему" и еще живому монтированию,
    всё остальное отбрасывается как устаревшее. UNAUTHORIZED ровно один раз
    вызывает Navigator с адресом логина.
  - View: пока LOADING — только заглушка ожидания, при UNAUTHORIZED — пусто,
    защищенный контент рендерится только в AUTHORIZED.

Проверка выполняется один раз на монтирование и по таймеру не повторяется:
отозванный токен будет замечен только при следующей навигации.
*/

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/credstore"
	"github.com/xela07ax/bpo-console/internal/domain"
	"github.com/xela07ax/bpo-console/internal/telemetry"
)

type State int

const (
	StateLoading State = iota
	StateAuthorized
	StateUnauthorized
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateAuthorized:
		return "AUTHORIZED"
	case StateUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "UNKNOWN"
	}
}

// Navigator выполняет переход на другой маршрут.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc — адаптер функции к Navigator
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// Decision — результат Check для конкретного монтирования.
type Decision struct {
	MountID  uint64
	State    State
	Redirect string
	Err      error
}

// errCheckStarted — повторный Check для того же монтирования
var errCheckStarted = errors.New("session: check already started for this mount")

type GateConfig struct {
	Scope     domain.Scope
	LoginPath string
	Store     credstore.Store
	Verifier  Verifier
	Navigator Navigator
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics
}

type Gate struct {
	scope     domain.Scope
	key       string
	loginPath string
	store     credstore.Store
	verifier  Verifier
	navigator Navigator
	logger    *zap.Logger
	metrics   *telemetry.Metrics

	seq atomic.Uint64
}

func NewGate(cfg GateConfig) *Gate {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetrics(nil)
	}
	if cfg.Navigator == nil {
		cfg.Navigator = NavigatorFunc(func(string) {})
	}
	return &Gate{
		scope:     cfg.Scope,
		key:       cfg.Scope.TokenKey(),
		loginPath: cfg.LoginPath,
		store:     cfg.Store,
		verifier:  cfg.Verifier,
		navigator: cfg.Navigator,
		logger:    cfg.Logger.Named("gate").With(zap.String("scope", string(cfg.Scope))),
		metrics:   cfg.Metrics,
	}
}

func (g *Gate) Scope() domain.Scope { return g.scope }

// Mount начинает новое монтирование защищенного маршрута path.
// Контекст монтирования отменяется в Unmount, вместе с ним и запрос проверки.
func (g *Gate) Mount(ctx context.Context, path string) *Mount {
	ctx, cancel := context.WithCancel(ctx)
	return &Mount{
		gate:   g,
		id:     g.seq.Add(1),
		path:   path,
		ctx:    ctx,
		cancel: cancel,
		state:  StateLoading,
		active: true,
	}
}

// Run — синхронный вариант: Mount + Check + Resolve.
func (g *Gate) Run(ctx context.Context, path string) *Mount {
	m := g.Mount(ctx, path)
	m.Resolve(m.Check())
	return m
}

type Mount struct {
	gate   *Gate
	id     uint64
	path   string
	ctx    context.Context
	cancel context.CancelFunc

	started atomic.Bool

	mu     sync.Mutex
	state  State
	active bool
}

func (m *Mount) ID() uint64   { return m.id }
func (m *Mount) Path() string { return m.path }

func (m *Mount) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Check выполняет проверку сессии. Блокирует до ответа верификатора,
// поэтому в UI вызывается из фоновой команды. Второй вызов для того же
// монтирования верификатор не трогает.
func (m *Mount) Check() Decision {
	g := m.gate
	if !m.started.CompareAndSwap(false, true) {
		return Decision{MountID: m.id, State: StateLoading, Err: errCheckStarted}
	}

	unauthorized := func(err error) Decision {
		return Decision{
			MountID:  m.id,
			State:    StateUnauthorized,
			Redirect: LoginURL(g.loginPath, m.path),
			Err:      err,
		}
	}

	token, err := g.store.Get(m.ctx, g.key)
	if err != nil {
		if errors.Is(err, credstore.ErrNoToken) {
			g.metrics.GateChecks.WithLabelValues(string(g.scope), telemetry.OutcomeAbsent).Inc()
		} else {
			// Ошибка хранилища равносильна отсутствию токена
			g.logger.Warn("credential store read failed", zap.Error(err))
			g.metrics.GateChecks.WithLabelValues(string(g.scope), telemetry.OutcomeError).Inc()
		}
		return unauthorized(err)
	}

	if err := g.verifier.Verify(m.ctx, token); err != nil {
		g.logger.Info("session rejected", zap.String("path", m.path), zap.Uint64("mount", m.id), zap.Error(err))
		g.metrics.GateChecks.WithLabelValues(string(g.scope), telemetry.OutcomeRejected).Inc()
		return unauthorized(err)
	}

	g.metrics.GateChecks.WithLabelValues(string(g.scope), telemetry.OutcomeAuthorized).Inc()
	return Decision{MountID: m.id, State: StateAuthorized}
}

// Resolve применяет решение. Возвращает false, если решение устарело:
// чужое монтирование, уже размонтировано или уже разрешено.
func (m *Mount) Resolve(d Decision) bool {
	g := m.gate

	m.mu.Lock()
	if d.MountID != m.id || !m.active || m.state != StateLoading || d.State == StateLoading {
		m.mu.Unlock()
		g.metrics.GateStale.WithLabelValues(string(g.scope)).Inc()
		g.logger.Debug("stale gate decision discarded", zap.Uint64("mount", m.id), zap.Uint64("decision_mount", d.MountID))
		return false
	}
	m.state = d.State
	m.mu.Unlock()

	if d.State == StateUnauthorized {
		g.navigator.Navigate(d.Redirect)
	}
	return true
}

// Unmount завершает монтирование: отменяет проверку в полете,
// последующие Resolve будут отброшены. Идемпотентен.
func (m *Mount) Unmount() {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
	m.cancel()
}

// Active — монтирование еще не снято
func (m *Mount) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// View реализует политику рендера: content вызывается только в AUTHORIZED.
func (m *Mount) View(interstitial string, content func() string) string {
	switch m.State() {
	case StateAuthorized:
		return content()
	case StateUnauthorized:
		return ""
	default:
		return interstitial
	}
}
