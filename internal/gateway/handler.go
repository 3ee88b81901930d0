package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/backend"
	"github.com/xela07ax/bpo-console/internal/telemetry"
)

// MsgProxyFailed — единственный ответ клиенту при любой ошибке прокси
const MsgProxyFailed = "Proxy failed"

const routeCycle = "/api/cycle"

// CycleHandler проксирует создание тикета на бэкенд, пробрасывая Authorization как есть.
type CycleHandler struct {
	upstream CycleForwarder
	maxBody  int64
	metrics  *telemetry.Metrics
	logger   *zap.Logger
}

func NewCycleHandler(upstream CycleForwarder, maxBody int64, metrics *telemetry.Metrics, logger *zap.Logger) *CycleHandler {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &CycleHandler{
		upstream: upstream,
		maxBody:  maxBody,
		metrics:  metrics,
		logger:   logger.Named("cycle"),
	}
}

func (h *CycleHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		h.metrics.ProxyRequests.WithLabelValues(routeCycle, strconv.Itoa(status)).Inc()
		h.metrics.ProxyDuration.WithLabelValues(routeCycle).Observe(time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil || !json.Valid(body) {
		h.logger.Info("invalid request body", zap.Error(err))
		status = http.StatusInternalServerError
		writeJSONError(w, status, MsgProxyFailed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		ctx = backend.WithRequestID(ctx, traceID)
	}

	raw, err := h.upstream.ForwardCycle(ctx, r.Header.Get("Authorization"), body)
	if err != nil {
		h.logger.Warn("cycle proxy failed", zap.String("trace_id", TraceIDFromContext(ctx)), zap.Error(err))
		status = http.StatusInternalServerError
		writeJSONError(w, status, MsgProxyFailed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
