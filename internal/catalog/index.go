// Package catalog provides read-only access to the vehicle catalog for the
// reconciliation engine, plus the matcher that resolves free-text vehicle
// descriptions against it. It is intentionally small and side-effect free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic candidate ordering (catalog insertion order is preserved)
//   - The matcher is a pure query component: it never persists anything
//
// Two catalog accessors exist: the in-memory Index built once per batch run,
// and a live store-backed implementation (see the repo package) used by
// interactive merges, which always sees the current catalog.
package catalog

import (
	"context"

	"github.com/tbourn/go-workshop-backend/internal/displacement"
	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// Catalog is the accessor contract the Matcher queries. Implementations must
// return only active entries and be safe for concurrent use.
type Catalog interface {
	// Entries returns every active catalog entry, in a stable order.
	Entries(ctx context.Context) ([]domain.VehicleCatalogEntry, error)

	// ByDisplacement returns the active entries whose displacement
	// normalizes to the given canonical form (see displacement.Normalize).
	ByDisplacement(ctx context.Context, canonical string) ([]domain.VehicleCatalogEntry, error)
}

// Index is an immutable in-memory snapshot of the active catalog, grouped by
// canonical displacement for O(1)-average candidate lookup. Build it once per
// batch job and share it freely; it never invalidates itself, so callers must
// rebuild between batches if the catalog may have changed.
type Index struct {
	entries []domain.VehicleCatalogEntry
	byDisp  map[string][]domain.VehicleCatalogEntry
}

// BuildIndex constructs an Index from a full catalog listing. Inactive
// entries are dropped; insertion order is preserved so that "first indexed
// entry wins" tie-breaks are deterministic. Entries whose displacement cannot
// be normalized stay reachable through Entries but join no displacement
// bucket.
func BuildIndex(entries []domain.VehicleCatalogEntry) *Index {
	idx := &Index{
		entries: make([]domain.VehicleCatalogEntry, 0, len(entries)),
		byDisp:  make(map[string][]domain.VehicleCatalogEntry),
	}
	for _, e := range entries {
		if !e.Active {
			continue
		}
		idx.entries = append(idx.entries, e)
		if canon := displacement.Normalize(e.Displacement); canon != "" {
			idx.byDisp[canon] = append(idx.byDisp[canon], e)
		}
	}
	return idx
}

// Entries returns the active entries in insertion order. The slice is shared;
// callers must not mutate it.
func (i *Index) Entries(ctx context.Context) ([]domain.VehicleCatalogEntry, error) {
	return i.entries, nil
}

// ByDisplacement returns the bucket for the given canonical displacement, or
// nil when no active entry has that engine size.
func (i *Index) ByDisplacement(ctx context.Context, canonical string) ([]domain.VehicleCatalogEntry, error) {
	return i.byDisp[canonical], nil
}

// Len reports how many active entries the snapshot holds.
func (i *Index) Len() int { return len(i.entries) }
