package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds how stale the local catalog copy may get
const DefaultCacheTTL = 10 * time.Minute

// SourceStore is the load source reported by Refresh
const SourceStore = "store"

// InventoryLookupService resolves scanned or typed product codes against a
// local copy of the catalog.
//
// The copy is rebuilt from the catalog source when it is older than the TTL,
// or on demand. When a snapshot store is configured, a cold start reads the
// snapshot first and every reload from the source writes it back. A warmed
// copy keeps the snapshot's save time, so its age counts from when the
// source was read.
type InventoryLookupService struct {
	source   catalog.CatalogSource
	snapshot catalog.SnapshotStore
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	loadMu   sync.Mutex // serializes reloads
	mu       sync.RWMutex
	index    *catalog.Index
	loadedAt time.Time
}

// LookupOption configures an InventoryLookupService
type LookupOption func(*InventoryLookupService)

// WithSnapshotStore enables the out-of-process snapshot tier. A nil store is ignored.
func WithSnapshotStore(store catalog.SnapshotStore) LookupOption {
	return func(s *InventoryLookupService) {
		s.snapshot = store
	}
}

// WithCacheTTL overrides DefaultCacheTTL
func WithCacheTTL(ttl time.Duration) LookupOption {
	return func(s *InventoryLookupService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) LookupOption {
	return func(s *InventoryLookupService) {
		s.now = now
	}
}

// NewInventoryLookupService creates a new InventoryLookupService. Nothing is
// loaded until the first lookup.
func NewInventoryLookupService(source catalog.CatalogSource, logger *zap.Logger, opts ...LookupOption) *InventoryLookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InventoryLookupService{
		source: source,
		ttl:    DefaultCacheTTL,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindByCode returns the catalog entry for a raw code. Codes are matched
// after trimming and lowercasing. A miss is a NOT_FOUND domain error.
func (s *InventoryLookupService) FindByCode(ctx context.Context, raw string) (*catalog.CatalogEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "find_by_code",
		telemetry.WithAttribute(telemetry.SpanAttrProductCode, raw))
	defer span.End()

	if catalog.NormalizeCode(raw) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot be empty")
	}

	idx, err := s.currentIndex(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entry, ok := idx.Lookup(raw)
	if !ok {
		return nil, shared.NewNotFoundError("product not found")
	}
	return &entry, nil
}

// Refresh reloads the catalog from its source regardless of age and
// replaces the snapshot. When the reload fails the snapshot is dropped so
// no till warms from the copy the operator asked to replace.
func (s *InventoryLookupService) Refresh(ctx context.Context) (*RefreshResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "refresh")
	defer span.End()

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	idx, err := s.loadFromSource(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.invalidateSnapshot(ctx)
		return nil, err
	}
	loadedAt := s.now()
	s.install(idx, loadedAt)
	return &RefreshResponse{
		Entries:    idx.Len(),
		Duplicates: idx.Duplicates(),
		Source:     SourceStore,
		LoadedAt:   loadedAt.Format(time.RFC3339),
	}, nil
}

// Size returns the number of distinct codes currently cached
func (s *InventoryLookupService) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Len()
}

// LoadedAt returns when the cached copy was built; zero before the first load
func (s *InventoryLookupService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *InventoryLookupService) fresh() (*catalog.Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, false
	}
	return s.index, s.now().Sub(s.loadedAt) < s.ttl
}

// currentIndex returns a fresh index, reloading it when expired. If the
// reload fails but an older copy exists, the older copy is served.
func (s *InventoryLookupService) currentIndex(ctx context.Context) (*catalog.Index, error) {
	if idx, ok := s.fresh(); ok {
		return idx, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// another request may have reloaded while we waited
	stale, ok := s.fresh()
	if ok {
		return stale, nil
	}

	if stale == nil {
		if idx, savedAt := s.loadFromSnapshot(ctx); idx != nil {
			s.install(idx, savedAt)
			return idx, nil
		}
	}

	idx, err := s.loadFromSource(ctx)
	if err != nil {
		if stale != nil {
			s.logger.Warn("Catalog reload failed, serving previous copy",
				zap.Time("loaded_at", s.LoadedAt()),
				zap.Error(err))
			return stale, nil
		}
		return nil, err
	}
	s.install(idx, s.now())
	return idx, nil
}

func (s *InventoryLookupService) install(idx *catalog.Index, loadedAt time.Time) {
	s.mu.Lock()
	s.index = idx
	s.loadedAt = loadedAt
	s.mu.Unlock()
}

func (s *InventoryLookupService) loadFromSource(ctx context.Context) (*catalog.Index, error) {
	entries, err := s.source.LoadAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load catalog", zap.Error(err))
		return nil, err
	}

	idx := catalog.NewIndex(entries)
	s.logger.Info("Catalog loaded",
		zap.Int("rows", len(entries)),
		zap.Int("codes", idx.Len()),
		zap.Int("duplicates", idx.Duplicates()))
	if idx.Duplicates() > 0 {
		s.logger.Warn("Catalog has duplicate product codes, first row wins",
			zap.Int("shadowed", idx.Duplicates()))
	}

	if s.snapshot != nil {
		if err := s.snapshot.Save(ctx, entries, s.ttl); err != nil {
			s.logger.Warn("Failed to save catalog snapshot", zap.Error(err))
		}
	}
	return idx, nil
}

// loadFromSnapshot returns the snapshot's index and save time, or nil when
// there is no usable snapshot. A snapshot at or past the TTL is dropped.
func (s *InventoryLookupService) loadFromSnapshot(ctx context.Context) (*catalog.Index, time.Time) {
	if s.snapshot == nil {
		return nil, time.Time{}
	}
	snap, err := s.snapshot.Load(ctx)
	if err != nil {
		s.logger.Warn("Catalog snapshot unavailable, reading source", zap.Error(err))
		return nil, time.Time{}
	}
	if snap == nil || len(snap.Entries) == 0 {
		return nil, time.Time{}
	}

	now := s.now()
	savedAt := snap.SavedAt
	if savedAt.After(now) {
		savedAt = now
	}
	if age := now.Sub(savedAt); age >= s.ttl {
		s.logger.Info("Catalog snapshot expired, reading source",
			zap.Duration("age", age),
			zap.Duration("ttl", s.ttl))
		s.invalidateSnapshot(ctx)
		return nil, time.Time{}
	}

	idx := catalog.NewIndex(snap.Entries)
	s.logger.Info("Catalog warmed from snapshot",
		zap.Int("codes", idx.Len()),
		zap.Time("saved_at", savedAt))
	return idx, savedAt
}

func (s *InventoryLookupService) invalidateSnapshot(ctx context.Context) {
	if s.snapshot == nil {
		return
	}
	if err := s.snapshot.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to drop catalog snapshot", zap.Error(err))
	}
}
