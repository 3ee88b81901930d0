package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/backend"
	"github.com/xela07ax/bpo-console/internal/gateway"
	"github.com/xela07ax/bpo-console/internal/infra"
	"github.com/xela07ax/bpo-console/internal/telemetry"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to config.yaml")
	flag.Parse()

	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		os.Stderr.WriteString("gateway: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		os.Stderr.WriteString("gateway: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	// 3. Бэкенд за лимитером и Circuit Breaker (без повторов)
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	upstream := gateway.NewProtectedUpstream(client, cfg.Gateway, metrics, logger)
	cycleHandler := gateway.NewCycleHandler(upstream, cfg.Gateway.MaxBodyBytes, metrics, logger)

	// 4. HTTP Server
	srv := &http.Server{
		Addr:         cfg.Gateway.Addr,
		Handler:      gateway.NewServer(logger, cycleHandler, reg),
		ReadTimeout:  cfg.Gateway.ReadTimeout,
		WriteTimeout: cfg.Gateway.WriteTimeout,
	}

	// 5. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("gateway started", zap.String("addr", srv.Addr), zap.String("backend", client.BaseURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("gateway stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return
	}
	logger.Info("gateway exited properly")
}
