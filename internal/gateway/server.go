package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	router *chi.Mux
	logger *zap.Logger

	cycleHandler *CycleHandler // /api/cycle
	gatherer     prometheus.Gatherer
}

// NewServer собирает роутер шлюза со всеми зависимостями
func NewServer(logger *zap.Logger, cycleH *CycleHandler, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		logger:       logger.Named("gateway"),
		cycleHandler: cycleH,
		gatherer:     gatherer,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// --- 3. ПРОКСИ (нужен bearer, проверяет его бэкенд) ---
	r.Group(func(r chi.Router) {
		r.Use(RequireBearer(s.logger))
		r.Post(routeCycle, s.cycleHandler.Create)
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
