// Package tui — терминальная консоль оператора на bubbletea.
//
// Экраны соответствуют маршрутам; защищенные маршруты проходят через
// session.Gate. Всё, что блокирует (проверка сессии, логин, загрузки),
// уходит в tea.Cmd, а результат применяется в Update с проверкой владельца.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/console/view"
	"github.com/xela07ax/bpo-console/internal/credstore"
	"github.com/xela07ax/bpo-console/internal/domain"
	"github.com/xela07ax/bpo-console/internal/poller"
	"github.com/xela07ax/bpo-console/internal/session"
)

// Interstitial — что видно, пока гейт в LOADING
const Interstitial = "Verifying access..."

const metricsPoller = "admin-metrics"

// Deps — всё, что консоли нужно снаружи. Гейты должны использовать Nav как Navigator.
type Deps struct {
	Store      credstore.Store
	AdminGate  *session.Gate
	UserGate   *session.Gate
	AdminLogin *session.AdminLogin
	UserLogin  *session.UserLogin
	Dashboard  *view.Dashboard
	Tickets    *view.Tickets
	Analytics  *view.Analytics
	Poller     *poller.Poller

	PollInterval time.Duration
	Nav          *NavQueue
	Sender       Sender
	Logger       *zap.Logger
}

// Сообщения фоновых команд. Каждое несет владельца, по которому Update
// решает, не устарело ли оно.
type (
	navigateMsg struct{ target string }

	gateCheckedMsg struct {
		mount    *session.Mount
		decision session.Decision
	}

	metricsMsg struct {
		scope *view.Scope
		patch domain.MetricsPatch
	}

	ticketsLoadedMsg struct {
		scope *view.Scope
		err   error
	}

	ticketCreatedMsg struct {
		scope *view.Scope
		res   *domain.CycleResult
		err   error
	}

	analyticsMsg struct {
		scope  *view.Scope
		points []domain.ActivityPoint
	}

	homeMsg struct {
		scope   *view.Scope
		expires time.Time
		ok      bool
	}

	loginDoneMsg struct {
		route  Route
		target string
		err    error
	}

	logoutDoneMsg struct {
		target string
		err    error
	}
)

type Model struct {
	ctx    context.Context
	deps   Deps
	keys   KeyMap
	help   help.Model
	logger *zap.Logger

	initial string
	route   Route
	path    string

	// Текущий экран: монтирование гейта, опрос и область владения
	mount *session.Mount
	poll  *poller.Handle
	scope *view.Scope

	spinner spinner.Model

	// Формы логина
	adminKey   textinput.Model
	username   textinput.Model
	password   textinput.Model
	returnTo   string
	formErr    string
	submitting bool

	// Тикеты
	prompt textinput.Model
	table  table.Model
	alert  string

	activity  []domain.ActivityPoint
	expiresAt time.Time
	hasExpiry bool
	width     int
	height    int
	quitting  bool
}

func NewModel(ctx context.Context, deps Deps, initial string) *Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Nav == nil {
		deps.Nav = NewNavQueue()
	}
	if deps.Sender == nil {
		deps.Sender = &ProgramSender{}
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = 10 * time.Second
	}
	if initial == "" {
		initial = string(RouteHome)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = warnStyle

	adminKey := textinput.New()
	adminKey.Placeholder = "admin key"
	adminKey.EchoMode = textinput.EchoPassword
	adminKey.EchoCharacter = '•'

	username := textinput.New()
	username.Placeholder = "username"

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	prompt := textinput.New()
	prompt.Placeholder = "Describe the task..."
	prompt.CharLimit = 500

	return &Model{
		ctx:      ctx,
		deps:     deps,
		keys:     DefaultKeyMap,
		help:     help.New(),
		logger:   deps.Logger.Named("tui"),
		initial:  initial,
		spinner:  sp,
		adminKey: adminKey,
		username: username,
		password: password,
		prompt:   prompt,
		table:    newTicketTable(),
	}
}

func (m *Model) Init() tea.Cmd {
	target := m.initial
	return func() tea.Msg { return navigateMsg{target: target} }
}

// Route — текущий экран
func (m *Model) Route() Route { return m.route }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case navigateMsg:
		return m, m.navigate(msg.target)

	case gateCheckedMsg:
		// Решение чужого или снятого монтирования Resolve отбросит сам
		if !msg.mount.Resolve(msg.decision) {
			return m, nil
		}
		if msg.decision.State != session.StateAuthorized {
			return m, m.drainNav()
		}
		return m, m.onAuthorized()

	case metricsMsg:
		m.deps.Dashboard.Apply(msg.scope, msg.patch)
		return m, nil

	case ticketsLoadedMsg:
		if msg.scope == m.scope {
			m.refreshTable()
		}
		return m, nil

	case ticketCreatedMsg:
		if msg.scope != m.scope || !msg.scope.Alive() {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.alert = view.MsgProcessFailed
			return m, nil
		}
		m.alert = view.CreatedMessage(msg.res)
		m.prompt.Reset()
		m.refreshTable()
		return m, nil

	case analyticsMsg:
		if msg.scope == m.scope && msg.scope.Alive() {
			m.activity = msg.points
		}
		return m, nil

	case homeMsg:
		if msg.scope == m.scope && msg.scope.Alive() {
			m.expiresAt, m.hasExpiry = msg.expires, msg.ok
		}
		return m, nil

	case loginDoneMsg:
		if msg.route != m.route {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.formErr = session.UserMessage(msg.err)
			return m, nil
		}
		return m, m.navigate(msg.target)

	case logoutDoneMsg:
		if msg.err != nil {
			m.logger.Error("logout failed", zap.Error(msg.err))
		}
		return m, m.navigate(msg.target)

	case spinner.TickMsg:
		if m.mount == nil || m.mount.State() != session.StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, m.updateInputs(msg)
}

// navigate снимает текущий экран и монтирует новый.
func (m *Model) navigate(target string) tea.Cmd {
	m.leave()

	route, u := routeFor(target)
	m.route = route
	m.path = u.String()
	m.formErr = ""
	m.alert = ""
	m.submitting = false
	m.logger.Debug("navigate", zap.String("target", m.path))

	switch route {
	case RouteLogin:
		m.returnTo = session.ReturnTarget(m.path)
		m.adminKey.Reset()
		return m.adminKey.Focus()
	case RouteSignin:
		m.returnTo = session.ReturnTarget(m.path)
		m.username.Reset()
		m.password.Reset()
		m.password.Blur()
		return m.username.Focus()
	}

	m.mount = m.gateFor(route).Mount(m.ctx, u.Path)
	return tea.Batch(m.spinner.Tick, checkGate(m.mount))
}

// leave — размонтирование: опрос, область и монтирование гейта
func (m *Model) leave() {
	if m.poll != nil {
		m.poll.Cancel()
		m.poll = nil
	}
	if m.scope != nil {
		m.scope.Close()
		m.scope = nil
	}
	switch m.route {
	case RouteAdmin:
		m.deps.Dashboard.Unmount()
	case RouteTickets:
		m.deps.Tickets.Unmount()
		m.table.SetRows(nil)
	}
	if m.mount != nil {
		m.mount.Unmount()
		m.mount = nil
	}
	m.prompt.Blur()
	m.activity = nil
	m.hasExpiry = false
}

func (m *Model) gateFor(route Route) *session.Gate {
	if route == RouteAdmin {
		return m.deps.AdminGate
	}
	return m.deps.UserGate
}

func (m *Model) drainNav() tea.Cmd {
	targets := m.deps.Nav.Drain()
	if len(targets) == 0 {
		return nil
	}
	return m.navigate(targets[len(targets)-1])
}

func checkGate(mount *session.Mount) tea.Cmd {
	return func() tea.Msg {
		return gateCheckedMsg{mount: mount, decision: mount.Check()}
	}
}

// onAuthorized запускает загрузки экрана, когда гейт пропустил.
func (m *Model) onAuthorized() tea.Cmd {
	switch m.route {
	case RouteAdmin:
		scope := m.deps.Dashboard.Mount()
		m.scope = scope
		dashboard, sender := m.deps.Dashboard, m.deps.Sender
		m.poll = m.deps.Poller.Start(m.ctx, metricsPoller, m.deps.PollInterval, func(ctx context.Context) error {
			patch, err := dashboard.Fetch(ctx)
			if err != nil {
				return err
			}
			sender.Send(metricsMsg{scope: scope, patch: patch})
			return nil
		})
		return nil

	case RouteTickets:
		m.scope = m.deps.Tickets.Mount()
		m.refreshTable()
		return m.loadTickets(m.scope)

	case RouteAnalytics:
		scope := view.NewScope()
		m.scope = scope
		analytics, ctx := m.deps.Analytics, m.ctx
		return func() tea.Msg {
			return analyticsMsg{scope: scope, points: analytics.Load(ctx)}
		}

	default:
		scope := view.NewScope()
		m.scope = scope
		store, ctx := m.deps.Store, m.ctx
		return func() tea.Msg {
			token, err := store.Get(ctx, domain.UserTokenKey)
			if err != nil {
				return homeMsg{scope: scope}
			}
			expires, ok := session.ExpiryHint(token)
			return homeMsg{scope: scope, expires: expires, ok: ok}
		}
	}
}

func (m *Model) loadTickets(scope *view.Scope) tea.Cmd {
	tickets, ctx := m.deps.Tickets, m.ctx
	return func() tea.Msg {
		return ticketsLoadedMsg{scope: scope, err: tickets.Load(ctx, scope)}
	}
}

func (m *Model) authorized() bool {
	return m.mount != nil && m.mount.State() == session.StateAuthorized
}

// Quitting — консоль завершается
func (m *Model) Quitting() bool { return m.quitting }

func (m *Model) quit() tea.Cmd {
	m.leave()
	m.quitting = true
	return tea.Quit
}
