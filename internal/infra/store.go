package infra

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/xela07ax/bpo-console/internal/credstore"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenCredentialStore создает хранилище токенов по store.driver.
// Возвращаемый io.Closer закрывает соединения драйвера (для redis).
func OpenCredentialStore(ctx context.Context, cfg *Config, logger *zap.Logger) (credstore.Store, io.Closer, error) {
	switch credstore.Driver(cfg.Store.Driver) {
	case credstore.DriverMemory:
		return credstore.NewMemoryStore(), nopCloser{}, nil
	case credstore.DriverFile:
		store, err := credstore.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("using file credential store", zap.String("path", cfg.Store.Path))
		return store, nopCloser{}, nil
	case credstore.DriverRedis:
		rdb, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return credstore.NewRedisStore(rdb, cfg.Redis.KeyPrefix), rdb, nil
	default:
		return nil, nil, fmt.Errorf("unknown credential store driver %q", cfg.Store.Driver)
	}
}
