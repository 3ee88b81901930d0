package view

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xela07ax/bpo-console/internal/credstore"
	"github.com/xela07ax/bpo-console/internal/domain"
)

func ptr(v float64) *float64 { return &v }

type stubMetrics struct {
	mu     sync.Mutex
	patch  domain.MetricsPatch
	err    error
	tokens []string
}

func (s *stubMetrics) FetchMetrics(_ context.Context, token string) (domain.MetricsPatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	return s.patch, s.err
}

func TestMetricsMerge_Partial(t *testing.T) {
	snap := domain.DefaultMetrics()
	snap.Agents = 5
	snap.Throughput = 10

	got := snap.Merge(domain.MetricsPatch{Agents: ptr(7)})

	require.Equal(t, 7.0, got.Agents)
	require.Equal(t, 10.0, got.Throughput)
	require.Equal(t, 99.9, got.Stability)
	require.True(t, domain.MetricsPatch{}.Empty())
}

func TestDashboard_ApplyRequiresLiveScope(t *testing.T) {
	d := NewDashboard(&stubMetrics{}, credstore.NewMemoryStore(), domain.ScopeAdmin, zaptest.NewLogger(t))

	first := d.Mount()
	require.True(t, d.Apply(first, domain.MetricsPatch{Agents: ptr(5), Throughput: ptr(10)}))

	second := d.Mount()
	require.False(t, first.Alive())
	require.False(t, d.Apply(first, domain.MetricsPatch{Agents: ptr(100)}), "result of a previous mount")
	require.True(t, d.Apply(second, domain.MetricsPatch{Agents: ptr(7)}))

	d.Unmount()
	require.False(t, d.Apply(second, domain.MetricsPatch{Agents: ptr(9)}))
	require.False(t, d.Apply(nil, domain.MetricsPatch{Agents: ptr(9)}))

	// Второе монтирование начинает с дефолтов: throughput первого не виден
	snap := d.Snapshot()
	require.Equal(t, 7.0, snap.Agents)
	require.Zero(t, snap.Throughput)
	require.Equal(t, 99.9, snap.Stability)
	require.Equal(t, 2, d.Updates())
}

func TestDashboard_MountResetsSnapshot(t *testing.T) {
	d := NewDashboard(&stubMetrics{}, credstore.NewMemoryStore(), domain.ScopeAdmin, nil)

	scope := d.Mount()
	require.True(t, d.Apply(scope, domain.MetricsPatch{Stability: ptr(50), Revenue: ptr(1000)}))
	d.Unmount()

	d.Mount()
	require.Equal(t, domain.DefaultMetrics(), d.Snapshot())
}

func TestDashboard_RefreshUsesAdminToken(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, domain.AdminTokenKey, "admin"))
	source := &stubMetrics{patch: domain.MetricsPatch{Latency: ptr(42)}}
	d := NewDashboard(source, store, domain.ScopeAdmin, nil)
	scope := d.Mount()

	require.NoError(t, d.Refresh(ctx, scope))
	require.Equal(t, 42.0, d.Snapshot().Latency)
	require.Equal(t, []string{"admin"}, source.tokens)
}

func TestDashboard_RefreshErrorKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, domain.AdminTokenKey, "admin"))
	source := &stubMetrics{err: errors.New("connection refused")}
	d := NewDashboard(source, store, domain.ScopeAdmin, nil)
	scope := d.Mount()
	require.True(t, d.Apply(scope, domain.MetricsPatch{Agents: ptr(3)}))

	require.Error(t, d.Refresh(ctx, scope))
	require.Equal(t, 3.0, d.Snapshot().Agents)
}

func TestDashboard_FetchWithoutToken(t *testing.T) {
	d := NewDashboard(&stubMetrics{}, credstore.NewMemoryStore(), domain.ScopeAdmin, nil)
	_, err := d.Fetch(context.Background())
	require.ErrorIs(t, err, credstore.ErrNoToken)
}

type stubTickets struct {
	list      []domain.Ticket
	listErr   error
	createErr error
	lists     int
}

func (s *stubTickets) ListTickets(context.Context, string) ([]domain.Ticket, error) {
	s.lists++
	return s.list, s.listErr
}

func (s *stubTickets) CreateTicket(_ context.Context, _ string, prompt string) (*domain.CycleResult, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	t := domain.Ticket{ID: "T-2", Task: prompt, Status: "queued"}
	s.list = append(s.list, t)
	return &domain.CycleResult{Result: t}, nil
}

func userStore(t *testing.T) credstore.Store {
	t.Helper()
	store := credstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), domain.UserTokenKey, "user"))
	return store
}

func TestTickets_CreateRefetches(t *testing.T) {
	source := &stubTickets{list: []domain.Ticket{{ID: "T-1", Task: "first"}}}
	tickets := NewTickets(source, userStore(t), zaptest.NewLogger(t))
	scope := tickets.Mount()
	ctx := context.Background()

	require.NoError(t, tickets.Load(ctx, scope))
	require.Len(t, tickets.List(), 1)

	res, err := tickets.Create(ctx, scope, "second")
	require.NoError(t, err)
	require.Equal(t, "Processed: T-2", CreatedMessage(res))
	require.Len(t, tickets.List(), 2)
	require.Equal(t, 2, source.lists)
}

func TestTickets_CreateFailureLeavesList(t *testing.T) {
	source := &stubTickets{list: []domain.Ticket{{ID: "T-1"}}}
	tickets := NewTickets(source, userStore(t), nil)
	scope := tickets.Mount()
	ctx := context.Background()
	require.NoError(t, tickets.Load(ctx, scope))

	source.createErr = errors.New("500")
	_, err := tickets.Create(ctx, scope, "boom")
	require.Error(t, err)
	require.Len(t, tickets.List(), 1)
	require.Equal(t, 1, source.lists, "no refetch after failed create")

	_, err = tickets.Create(ctx, scope, "   ")
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestTickets_LoadErrorKeepsList(t *testing.T) {
	source := &stubTickets{list: []domain.Ticket{{ID: "T-1"}}}
	tickets := NewTickets(source, userStore(t), nil)
	scope := tickets.Mount()
	ctx := context.Background()
	require.NoError(t, tickets.Load(ctx, scope))

	source.listErr = errors.New("timeout")
	require.Error(t, tickets.Load(ctx, scope))
	require.Len(t, tickets.List(), 1)
}

func TestTickets_LoadWithoutToken(t *testing.T) {
	source := &stubTickets{list: []domain.Ticket{{ID: "T-1"}}}
	tickets := NewTickets(source, credstore.NewMemoryStore(), nil)
	scope := tickets.Mount()

	require.ErrorIs(t, tickets.Load(context.Background(), scope), credstore.ErrNoToken)
	require.Zero(t, source.lists)
	require.Empty(t, tickets.List())
}

func TestTickets_MountStartsEmpty(t *testing.T) {
	source := &stubTickets{list: []domain.Ticket{{ID: "T-1"}}}
	tickets := NewTickets(source, userStore(t), nil)
	ctx := context.Background()

	first := tickets.Mount()
	require.NoError(t, tickets.Load(ctx, first))
	require.Len(t, tickets.List(), 1)

	second := tickets.Mount()
	require.False(t, first.Alive())
	require.Empty(t, tickets.List())

	source.listErr = errors.New("timeout")
	require.Error(t, tickets.Load(ctx, second))
	require.Empty(t, tickets.List(), "a failed load must not bring back the old list")

	tickets.Unmount()
	require.Empty(t, tickets.List())
}

func TestTickets_LateResultDiscarded(t *testing.T) {
	source := &stubTickets{list: []domain.Ticket{{ID: "T-1"}}}
	tickets := NewTickets(source, userStore(t), nil)
	ctx := context.Background()

	closed := tickets.Mount()
	tickets.Unmount()
	require.NoError(t, tickets.Load(ctx, closed))
	require.Empty(t, tickets.List())

	// Живая, но чужая область тоже не применяется
	foreign := NewScope()
	tickets.Mount()
	require.NoError(t, tickets.Load(ctx, foreign))
	require.Empty(t, tickets.List())
}

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	source := &stubMetrics{}
	a := NewAnalytics(source, credstore.NewMemoryStore(), zaptest.NewLogger(t))

	points := a.Load(ctx)
	require.Len(t, points, 3)
	sum := domain.Summarize(points)
	require.Equal(t, int64(19), sum.TotalLogins)
	require.InDelta(t, 37.0/3, sum.AvgSessions, 1e-9)
	require.InDelta(t, 98.0, sum.AvgEthics, 1e-9)

	source.err = errors.New("offline")
	require.Empty(t, a.Load(ctx))
	require.Equal(t, domain.ActivitySummary{}, domain.Summarize(nil))
}
