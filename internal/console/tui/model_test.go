package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xela07ax/bpo-console/internal/backend"
	"github.com/xela07ax/bpo-console/internal/console/view"
	"github.com/xela07ax/bpo-console/internal/credstore"
	"github.com/xela07ax/bpo-console/internal/domain"
	"github.com/xela07ax/bpo-console/internal/poller"
	"github.com/xela07ax/bpo-console/internal/session"
)

const (
	adminKey  = "cosmic_admin_2024"
	userToken = "user-token"
)

// fakeAPI — минимальный BPO API: один админский ключ, один пользовательский токен.
type fakeAPI struct {
	mu       sync.Mutex
	tickets  []domain.Ticket
	failPost bool
	failList bool

	verifyCalls  atomic.Int32
	metricsCalls atomic.Int32
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(backend.PathAdminVerify, func(w http.ResponseWriter, r *http.Request) {
		f.verifyCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+adminKey {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(backend.PathMetrics, func(w http.ResponseWriter, r *http.Request) {
		f.metricsCalls.Add(1)
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+adminKey && auth != "Bearer "+userToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"stability":97.5,"agents":12}`))
	})
	mux.HandleFunc(backend.PathToken, func(w http.ResponseWriter, r *http.Request) {
		var req domain.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "operator" || req.Password != "secret" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"` + userToken + `"}`))
	})
	mux.HandleFunc(backend.PathCycle, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPost {
			if f.failPost {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			var req domain.CycleRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			tk := domain.Ticket{ID: "T-2", Task: req.Prompt, Status: "done", QAScore: 97}
			f.tickets = append(f.tickets, tk)
			_ = json.NewEncoder(w).Encode(domain.CycleResult{Result: tk})
			return
		}
		if f.failList {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.TicketList{Result: f.tickets})
	})
	return mux
}

// chanSender подменяет tea.Program в тестах
type chanSender chan tea.Msg

func (s chanSender) Send(msg tea.Msg) { s <- msg }

type harness struct {
	t     *testing.T
	api   *fakeAPI
	store *credstore.MemoryStore
	clock *clock.Mock
	sent  chanSender
	model *Model
	deps  Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeAPI{tickets: []domain.Ticket{{ID: "T-1", Task: "seed", Status: "done", QAScore: 95}}}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	logger := zaptest.NewLogger(t)
	client := backend.NewClient(srv.URL, 2*time.Second, logger)
	store := credstore.NewMemoryStore()
	nav := NewNavQueue()
	mock := clock.NewMock()
	sent := make(chanSender, 16)

	deps := Deps{
		Store: store,
		AdminGate: session.NewGate(session.GateConfig{
			Scope: domain.ScopeAdmin, LoginPath: string(RouteLogin), Store: store,
			Verifier: session.NewHTTPVerifier(client, http.MethodGet, backend.PathAdminVerify), Navigator: nav, Logger: logger,
		}),
		UserGate: session.NewGate(session.GateConfig{
			Scope: domain.ScopeUser, LoginPath: string(RouteSignin), Store: store,
			Verifier: session.NewHTTPVerifier(client, http.MethodGet, backend.PathMetrics), Navigator: nav, Logger: logger,
		}),
		AdminLogin:   session.NewAdminLogin(store, session.NewHTTPVerifier(client, http.MethodPost, backend.PathAdminVerify), logger),
		UserLogin:    session.NewUserLogin(store, client, logger),
		Dashboard:    view.NewDashboard(client, store, domain.ScopeAdmin, logger),
		Tickets:      view.NewTickets(client, store, logger),
		Analytics:    view.NewAnalytics(client, store, logger),
		Poller:       poller.New(mock, logger, nil),
		PollInterval: 10 * time.Second,
		Nav:          nav,
		Sender:       sent,
		Logger:       logger,
	}
	h := &harness{t: t, api: api, store: store, clock: mock, sent: sent, deps: deps}
	h.model = NewModel(context.Background(), deps, "")
	t.Cleanup(h.model.leave)
	return h
}

// runCmd исполняет команду; мигание курсора и тики спиннера нам не нужны
func runCmd(cmd tea.Cmd) tea.Msg {
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg
	case <-time.After(time.Second):
		return nil
	}
}

// drive прогоняет команду и все порожденные ею сообщения консоли через Update.
func (h *harness) drive(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case navigateMsg, gateCheckedMsg, metricsMsg, ticketsLoadedMsg, ticketCreatedMsg,
			analyticsMsg, homeMsg, loginDoneMsg, logoutDoneMsg:
			_, next := h.model.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (h *harness) open(target string) {
	_, cmd := h.model.Update(navigateMsg{target: target})
	h.drive(cmd)
}

func (h *harness) typeText(s string) {
	_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	h.drive(cmd)
}

func (h *harness) press(k tea.KeyType) {
	_, cmd := h.model.Update(tea.KeyMsg{Type: k})
	h.drive(cmd)
}

// nextSent ждет сообщение, отправленное из фоновой горутины
func (h *harness) nextSent() tea.Msg {
	select {
	case msg := <-h.sent:
		return msg
	case <-time.After(2 * time.Second):
		h.t.Fatal("no message sent to the program")
		return nil
	}
}

func TestInit_OpensHome(t *testing.T) {
	h := newHarness(t)
	h.drive(h.model.Init())

	// Без токена домашний экран уводит на вход
	assert.Equal(t, RouteSignin, h.model.Route())
	assert.Equal(t, "/signin?redirect=%2F", h.model.path)
}

func TestProtectedRoute_NoTokenRedirectsWithoutVerify(t *testing.T) {
	h := newHarness(t)
	h.open("/tickets")

	assert.Equal(t, RouteSignin, h.model.Route())
	assert.Equal(t, "/tickets", h.model.returnTo)
	assert.Zero(t, h.api.metricsCalls.Load())
}

func TestProtectedRoute_ShowsInterstitialWhileLoading(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), domain.AdminTokenKey, adminKey))

	// Команду проверки не исполняем: гейт остается в LOADING
	_, _ = h.model.Update(navigateMsg{target: "/admin"})

	out := h.model.View()
	assert.Contains(t, out, Interstitial)
	assert.NotContains(t, out, "BPO Admin Dashboard")
}

func TestAdminLogin_InvalidKeyThenSuccess(t *testing.T) {
	h := newHarness(t)
	h.open("/admin")
	require.Equal(t, RouteLogin, h.model.Route())
	require.Equal(t, "/admin", h.model.returnTo)

	// Пустой ключ не отправляется
	h.press(tea.KeyEnter)
	assert.Zero(t, h.api.verifyCalls.Load())

	h.typeText("wrong")
	h.press(tea.KeyEnter)
	assert.Equal(t, session.MsgInvalidAdminKey, h.model.formErr)
	assert.Equal(t, RouteLogin, h.model.Route())
	_, err := h.store.Get(context.Background(), domain.AdminTokenKey)
	require.ErrorIs(t, err, credstore.ErrNoToken)

	h.model.adminKey.SetValue(adminKey)
	h.press(tea.KeyEnter)

	require.Equal(t, RouteAdmin, h.model.Route())
	require.Equal(t, session.StateAuthorized, h.model.mount.State())
	assert.Contains(t, h.model.View(), "BPO Admin Dashboard")
}

func TestAdminDashboard_PollsAndStopsOnLeave(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), domain.AdminTokenKey, adminKey))
	h.open("/admin")
	require.Equal(t, session.StateAuthorized, h.model.mount.State())

	// Первый опрос — сразу после монтирования
	first := h.nextSent()
	_, _ = h.model.Update(first)
	snap := h.deps.Dashboard.Snapshot()
	assert.Equal(t, 97.5, snap.Stability)
	assert.Equal(t, 12.0, snap.Agents)
	assert.Equal(t, 98.5, snap.Ethics)

	h.clock.Add(10 * time.Second)
	_, _ = h.model.Update(h.nextSent())
	require.Equal(t, 2, h.deps.Dashboard.Updates())

	// Уход с экрана: опрос остановлен, поздний результат отброшен
	h.typeText("h")
	_, _ = h.model.Update(first)
	assert.Equal(t, 2, h.deps.Dashboard.Updates())

	calls := h.api.metricsCalls.Load()
	h.clock.Add(30 * time.Second)
	select {
	case msg := <-h.sent:
		t.Fatalf("unexpected poll after leaving: %#v", msg)
	case <-time.After(50 * time.Millisecond):
	}
	// Домашний экран без токена пользователя не трогает /metrics
	assert.Equal(t, calls, h.api.metricsCalls.Load())
}

func TestStaleGateDecisionIsIgnored(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), domain.UserTokenKey, userToken))

	// Первый заход на /admin без админского токена: решение придет позже
	_, stale := h.model.Update(navigateMsg{target: "/admin"})
	h.open("/analytics")
	require.Equal(t, RouteAnalytics, h.model.Route())

	h.drive(stale)

	assert.Equal(t, RouteAnalytics, h.model.Route())
	assert.Empty(t, h.deps.Nav.Drain())
}

func TestTickets_CreateShowsAlertAndRefetches(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), domain.UserTokenKey, userToken))
	h.open("/tickets")
	require.Equal(t, session.StateAuthorized, h.model.mount.State())
	require.Len(t, h.model.table.Rows(), 1)

	h.typeText("c")
	require.True(t, h.model.prompt.Focused())
	h.typeText("triage inbox")
	h.press(tea.KeyEnter)

	assert.Equal(t, "Processed: T-2", h.model.alert)
	assert.Len(t, h.model.table.Rows(), 2)
	assert.Contains(t, h.model.View(), "Processed: T-2")

	// Любая клавиша закрывает алерт
	h.typeText("x")
	assert.Empty(t, h.model.alert)
}

func TestTickets_CreateFailureKeepsList(t *testing.T) {
	h := newHarness(t)
	h.api.failPost = true
	require.NoError(t, h.store.Set(context.Background(), domain.UserTokenKey, userToken))
	h.open("/tickets")

	h.typeText("c")
	h.typeText("will fail")
	h.press(tea.KeyEnter)

	assert.Equal(t, view.MsgProcessFailed, h.model.alert)
	assert.Len(t, h.model.table.Rows(), 1)
}

func TestTickets_FreshListAfterRelogin(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), domain.UserTokenKey, userToken))
	h.open("/tickets")
	require.Len(t, h.model.table.Rows(), 1)

	h.typeText("L")
	require.Equal(t, RouteSignin, h.model.Route())
	assert.Empty(t, h.deps.Tickets.List())
	assert.Empty(t, h.model.table.Rows())

	h.typeText("operator")
	h.press(tea.KeyTab)
	h.typeText("secret")
	h.press(tea.KeyEnter)
	require.Equal(t, RouteHome, h.model.Route())

	h.api.mu.Lock()
	h.api.failList = true
	h.api.mu.Unlock()

	// Гейт разрешаем вручную, чтобы увидеть экран до ответа GET /cycle
	_, _ = h.model.Update(navigateMsg{target: "/tickets"})
	mount := h.model.mount
	_, load := h.model.Update(gateCheckedMsg{mount: mount, decision: mount.Check()})
	require.Equal(t, session.StateAuthorized, mount.State())
	assert.Empty(t, h.model.table.Rows())
	assert.Contains(t, h.model.View(), "No tickets yet")

	h.drive(load)
	assert.Empty(t, h.deps.Tickets.List())
	assert.Empty(t, h.model.table.Rows())
}

func TestSignin_StoresTokenAndReturns(t *testing.T) {
	h := newHarness(t)
	h.open("/analytics")
	require.Equal(t, RouteSignin, h.model.Route())

	h.typeText("operator")
	h.press(tea.KeyTab)
	h.typeText("secret")
	h.press(tea.KeyEnter)

	require.Equal(t, RouteAnalytics, h.model.Route())
	token, err := h.store.Get(context.Background(), domain.UserTokenKey)
	require.NoError(t, err)
	assert.Equal(t, userToken, token)
	assert.Len(t, h.model.activity, 3)
	assert.Contains(t, h.model.View(), "total logins 19")
}

func TestSignin_Failure(t *testing.T) {
	h := newHarness(t)
	h.open("/signin")

	h.typeText("operator")
	h.press(tea.KeyTab)
	h.typeText("nope")
	h.press(tea.KeyEnter)

	assert.Equal(t, RouteSignin, h.model.Route())
	assert.Equal(t, session.MsgLoginFailed, h.model.formErr)
}

func TestLogout_ClearsUserToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), domain.UserTokenKey, userToken))
	h.open("/")
	require.Equal(t, session.StateAuthorized, h.model.mount.State())

	h.typeText("L")

	assert.Equal(t, RouteSignin, h.model.Route())
	_, err := h.store.Get(context.Background(), domain.UserTokenKey)
	require.ErrorIs(t, err, credstore.ErrNoToken)
}

func TestUnknownRouteFallsBackHome(t *testing.T) {
	route, u := routeFor("/nowhere?x=1")
	assert.Equal(t, RouteHome, route)
	assert.Equal(t, "/", u.Path)
	assert.True(t, strings.HasPrefix(string(RouteAdmin), "/"))
	assert.False(t, RouteLogin.protected())
	assert.True(t, RouteTickets.protected())
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, h.model.Quitting())
	assert.Empty(t, h.model.View())
}
