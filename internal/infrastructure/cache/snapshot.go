package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// snapshotVersion is bumped whenever the wire layout changes; older
// snapshots are treated as a miss.
const snapshotVersion = 1

type snapshotEntry struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Cost  decimal.Decimal `json:"cost"`
	Price decimal.Decimal `json:"price"`
}

type catalogSnapshot struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Entries []snapshotEntry `json:"entries"`
}

func encodeSnapshot(entries []catalog.CatalogEntry, now time.Time) ([]byte, error) {
	snap := catalogSnapshot{
		Version: snapshotVersion,
		SavedAt: now.UTC(),
		Entries: make([]snapshotEntry, len(entries)),
	}
	for i, e := range entries {
		snap.Entries[i] = snapshotEntry{Code: e.ProductCode, Name: e.ProductName, Cost: e.Cost, Price: e.Price}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog snapshot: %w", err)
	}
	return data, nil
}

// decodeSnapshot returns nil for a snapshot written by another layout
// version
func decodeSnapshot(data []byte) (*catalog.Snapshot, error) {
	var snap catalogSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode catalog snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, nil
	}
	entries := make([]catalog.CatalogEntry, len(snap.Entries))
	for i, e := range snap.Entries {
		entries[i] = catalog.CatalogEntry{ProductCode: e.Code, ProductName: e.Name, Cost: e.Cost, Price: e.Price}
	}
	return &catalog.Snapshot{Entries: entries, SavedAt: snap.SavedAt}, nil
}
