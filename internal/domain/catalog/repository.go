package catalog

import (
	"context"
	"time"
)

// CatalogSource loads the externally maintained catalog in bulk.
// The catalog is read-only from the till's point of view.
type CatalogSource interface {
	// LoadAll returns every catalog row. Rows come back in the source's
	// configured order; without one, which duplicate of a code comes first
	// is up to the database.
	LoadAll(ctx context.Context) ([]CatalogEntry, error)
}

// Snapshot is a stored copy of the catalog and the time it was read from
// the source
type Snapshot struct {
	Entries []CatalogEntry
	SavedAt time.Time
}

// Age returns how long ago the snapshot was taken
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.SavedAt)
}

// SnapshotStore keeps a serialized copy of the whole catalog outside the
// process so a restarted till can warm its index without reading the source
// table. Implementations are optional; a nil store means no snapshot tier.
type SnapshotStore interface {
	// Load returns the stored snapshot, or nil on a miss
	Load(ctx context.Context) (*Snapshot, error)
	// Save replaces the snapshot; it expires after ttl
	Save(ctx context.Context, entries []CatalogEntry, ttl time.Duration) error
	// Invalidate drops the snapshot
	Invalidate(ctx context.Context) error
}
