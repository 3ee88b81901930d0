package view

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/credstore"
	"github.com/xela07ax/bpo-console/internal/domain"
)

// Analytics — экран пользовательской аналитики. Настоящих вычислений нет:
// /metrics опрашивается только как проверка доступности, дальше мок-ряд.
type Analytics struct {
	source MetricsSource
	store  credstore.Store
	logger *zap.Logger
}

func NewAnalytics(source MetricsSource, store credstore.Store, logger *zap.Logger) *Analytics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analytics{source: source, store: store, logger: logger.Named("analytics")}
}

// Load возвращает ряд активности; при ошибке — пустой ряд.
func (a *Analytics) Load(ctx context.Context) []domain.ActivityPoint {
	token, err := a.store.Get(ctx, domain.UserTokenKey)
	if err != nil && !errors.Is(err, credstore.ErrNoToken) {
		a.logger.Warn("read token failed", zap.Error(err))
		return nil
	}
	if _, err := a.source.FetchMetrics(ctx, token); err != nil {
		a.logger.Warn("analytics probe failed", zap.Error(err))
		return nil
	}
	return MockActivity()
}

func MockActivity() []domain.ActivityPoint {
	return []domain.ActivityPoint{
		{Date: "2025-12-10", Logins: 5, Sessions: 12, Ethics: 98},
		{Date: "2025-12-11", Logins: 8, Sessions: 15, Ethics: 99},
		{Date: "2025-12-12", Logins: 6, Sessions: 10, Ethics: 97},
	}
}

// StabilityPoint — точка графика на домашнем экране
type StabilityPoint struct {
	Name      string
	Stability float64
	Ethics    float64
}

func HomeSeries() []StabilityPoint {
	return []StabilityPoint{
		{Name: "Mon", Stability: 99, Ethics: 98},
		{Name: "Tue", Stability: 99.5, Ethics: 97.5},
		{Name: "Wed", Stability: 100, Ethics: 99},
	}
}
