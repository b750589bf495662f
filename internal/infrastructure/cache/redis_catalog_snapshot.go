package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/anchala/pos/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultSnapshotKey is the Redis key holding the serialized catalog
const DefaultSnapshotKey = "pos:catalog:snapshot"

// RedisCatalogSnapshot implements catalog.SnapshotStore using Redis.
// The snapshot is a single JSON value with a TTL matching the catalog
// refresh window.
type RedisCatalogSnapshot struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	key        string
	logger     *zap.Logger
	now        func() time.Time
}

// RedisCatalogSnapshotOption is a functional option for configuring the store
type RedisCatalogSnapshotOption func(*RedisCatalogSnapshot)

// WithSnapshotKey overrides the Redis key
func WithSnapshotKey(key string) RedisCatalogSnapshotOption {
	return func(s *RedisCatalogSnapshot) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSnapshotLogger sets the logger for the store
func WithSnapshotLogger(logger *zap.Logger) RedisCatalogSnapshotOption {
	return func(s *RedisCatalogSnapshot) {
		s.logger = logger
	}
}

// NewRedisCatalogSnapshot connects to Redis and verifies the connection
func NewRedisCatalogSnapshot(cfg config.RedisConfig, opts ...RedisCatalogSnapshotOption) (*RedisCatalogSnapshot, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s := NewRedisCatalogSnapshotWithClient(client, opts...)
	s.ownsClient = true
	return s, nil
}

// NewRedisCatalogSnapshotWithClient creates a store over an existing client
func NewRedisCatalogSnapshotWithClient(client *redis.Client, opts ...RedisCatalogSnapshotOption) *RedisCatalogSnapshot {
	s := &RedisCatalogSnapshot{
		client: client,
		key:    DefaultSnapshotKey,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the stored catalog, or nil on a miss
func (s *RedisCatalogSnapshot) Load(ctx context.Context) (*catalog.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug("Catalog snapshot miss", zap.String("key", s.key))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog snapshot: %w", err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil || snap == nil {
		return nil, err
	}
	s.logger.Debug("Catalog snapshot hit",
		zap.String("key", s.key),
		zap.Int("entries", len(snap.Entries)),
		zap.Time("saved_at", snap.SavedAt))
	return snap, nil
}

// Save replaces the snapshot
func (s *RedisCatalogSnapshot) Save(ctx context.Context, entries []catalog.CatalogEntry, ttl time.Duration) error {
	data, err := encodeSnapshot(entries, s.now())
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write catalog snapshot: %w", err)
	}
	s.logger.Debug("Saved catalog snapshot",
		zap.String("key", s.key),
		zap.Int("entries", len(entries)),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate drops the snapshot
func (s *RedisCatalogSnapshot) Invalidate(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete catalog snapshot: %w", err)
	}
	return nil
}

// Client returns the underlying Redis client, for sharing the connection
// with other Redis-backed stores
func (s *RedisCatalogSnapshot) Client() *redis.Client {
	return s.client
}

// Close closes the Redis client if this store created it
func (s *RedisCatalogSnapshot) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

// Ensure RedisCatalogSnapshot implements catalog.SnapshotStore
var _ catalog.SnapshotStore = (*RedisCatalogSnapshot)(nil)
