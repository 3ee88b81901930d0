package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/backend"
	"github.com/xela07ax/bpo-console/internal/console/tui"
	"github.com/xela07ax/bpo-console/internal/console/view"
	"github.com/xela07ax/bpo-console/internal/domain"
	"github.com/xela07ax/bpo-console/internal/infra"
	"github.com/xela07ax/bpo-console/internal/poller"
	"github.com/xela07ax/bpo-console/internal/session"
	"github.com/xela07ax/bpo-console/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bpo-console:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		route      string
		logFile    string
	)
	flag.StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ./config.yaml or ./configs/config.yaml)")
	flag.StringVarP(&route, "route", "r", "/", "initial route: /, /admin, /tickets, /analytics, /login, /signin")
	flag.StringVar(&logFile, "log-file", filepath.Join(os.TempDir(), "bpo-console.log"), "log file (the terminal belongs to the UI)")
	flag.Parse()

	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Logger.Output = []string{logFile}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Хранилище токенов
	startCtx, startCancel := context.WithTimeout(appCtx, 10*time.Second)
	store, closer, err := infra.OpenCredentialStore(startCtx, cfg, logger)
	startCancel()
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}
	defer closer.Close()

	// 3. Метрики (опционально)
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	if cfg.Telemetry.Addr != "" {
		go serveMetrics(cfg.Telemetry.Addr, reg, logger)
	}

	// 4. Сессии: два независимых гейта с общим навигатором
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	nav := tui.NewNavQueue()
	sender := &tui.ProgramSender{}

	adminGate := session.NewGate(session.GateConfig{
		Scope:     domain.ScopeAdmin,
		LoginPath: string(tui.RouteLogin),
		Store:     store,
		Verifier:  session.NewHTTPVerifier(client, http.MethodGet, cfg.Backend.AdminVerifyPath),
		Navigator: nav,
		Logger:    logger,
		Metrics:   metrics,
	})
	userGate := session.NewGate(session.GateConfig{
		Scope:     domain.ScopeUser,
		LoginPath: string(tui.RouteSignin),
		Store:     store,
		Verifier:  session.NewHTTPVerifier(client, http.MethodGet, cfg.Backend.UserVerifyPath),
		Navigator: nav,
		Logger:    logger,
		Metrics:   metrics,
	})

	model := tui.NewModel(appCtx, tui.Deps{
		Store:        store,
		AdminGate:    adminGate,
		UserGate:     userGate,
		AdminLogin:   session.NewAdminLogin(store, session.NewHTTPVerifier(client, http.MethodPost, cfg.Backend.AdminVerifyPath), logger),
		UserLogin:    session.NewUserLogin(store, client, logger),
		Dashboard:    view.NewDashboard(client, store, domain.ScopeAdmin, logger),
		Tickets:      view.NewTickets(client, store, logger),
		Analytics:    view.NewAnalytics(client, store, logger),
		Poller:       poller.New(nil, logger, metrics),
		PollInterval: cfg.Poll.MetricsInterval,
		Nav:          nav,
		Sender:       sender,
		Logger:       logger,
	}, route)

	// 5. UI
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(appCtx))
	sender.SetProgram(program)

	logger.Info("console started", zap.String("backend", client.BaseURL()), zap.String("store", cfg.Store.Driver))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("ui: %w", err)
	}
	logger.Info("console exited")
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	srv := &http.Server{Addr: addr, Handler: metricsRouter(reg), ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

// metricsRouter — /metrics консоли на том же chi, что и у шлюза
func metricsRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}
