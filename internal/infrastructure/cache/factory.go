package cache

import (
	"fmt"

	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/anchala/pos/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SnapshotStoreFactory creates the catalog snapshot tier based on configuration
type SnapshotStoreFactory struct {
	redisConfig   config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

// SnapshotStoreFactoryOption is a functional option for configuring the factory
type SnapshotStoreFactoryOption func(*SnapshotStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SnapshotStoreFactoryOption {
	return func(f *SnapshotStoreFactory) {
		f.logger = logger
	}
}

// WithFallback controls whether an unreachable Redis disables the snapshot
// tier instead of failing startup. Default is true.
func WithFallback(allow bool) SnapshotStoreFactoryOption {
	return func(f *SnapshotStoreFactory) {
		f.allowFallback = allow
	}
}

// NewSnapshotStoreFactory creates a new factory
func NewSnapshotStoreFactory(cfg config.RedisConfig, opts ...SnapshotStoreFactoryOption) *SnapshotStoreFactory {
	f := &SnapshotStoreFactory{
		redisConfig:   cfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the Redis snapshot store, or nil when Redis is
// disabled. A nil store with a nil error means the catalog is served from
// the source table only. The returned closer is never nil.
func (f *SnapshotStoreFactory) CreateStore() (catalog.SnapshotStore, func() error, error) {
	noop := func() error { return nil }
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, catalog snapshot tier off")
		return nil, noop, nil
	}

	store, err := NewRedisCatalogSnapshot(f.redisConfig, WithSnapshotLogger(f.logger))
	if err == nil {
		f.logger.Info("Using Redis catalog snapshot", zap.String("addr", f.redisConfig.Addr()))
		return store, store.Close, nil
	}

	if !f.allowFallback {
		return nil, noop, fmt.Errorf("redis required for catalog snapshot but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, catalog snapshot tier off", zap.Error(err))
	return nil, noop, nil
}
