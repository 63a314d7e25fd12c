package cache

import (
	"fmt"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore creates the idempotency store selected by
// configuration. With the redis backend a connection failure falls back
// to the in-memory store so startup never blocks on Redis.
func NewIdempotencyStore(cfg *config.Config, logger *zap.Logger) (shared.IdempotencyStore, error) {
	switch cfg.Event.IdempotencyBackend {
	case "memory", "":
		logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil

	case "redis":
		store, err := NewRedisIdempotencyStore(RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory idempotency store",
				zap.Error(err),
			)
			return NewInMemoryIdempotencyStore(), nil
		}
		logger.Info("using redis idempotency store",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown idempotency backend: %s", cfg.Event.IdempotencyBackend)
	}
}
