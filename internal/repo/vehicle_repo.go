package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/displacement"
	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// ListActiveVehicles returns every active catalog entry for a tenant in
// insertion order. Batch imports snapshot this once per run.
func ListActiveVehicles(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.VehicleCatalogEntry, error) {
	var out []domain.VehicleCatalogEntry
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// GetActiveVehicle fetches one active catalog entry by id, or ErrNotFound.
// Inactive entries are invisible here: an approval pointing at a retired
// entry must fail rather than silently link to it.
func GetActiveVehicle(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.VehicleCatalogEntry, error) {
	var e domain.VehicleCatalogEntry
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND active = ?", tenantID, id, true).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateVehicle inserts a catalog entry. Used by the legacy importer when
// seeding the catalog from an export file.
func CreateVehicle(ctx context.Context, db *gorm.DB, e *domain.VehicleCatalogEntry) error {
	return db.WithContext(ctx).Create(e).Error
}

// StoreCatalog adapts the vehicle catalog table to the catalog.Catalog
// accessor so the matcher can run against live data during interactive
// merges. Displacement buckets are computed per call; interactive traffic is
// low enough that no caching is needed.
type StoreCatalog struct {
	DB       *gorm.DB
	TenantID string
}

// Entries returns the tenant's active catalog entries.
func (s StoreCatalog) Entries(ctx context.Context) ([]domain.VehicleCatalogEntry, error) {
	return ListActiveVehicles(ctx, s.DB, s.TenantID)
}

// ByDisplacement returns the active entries whose canonical displacement
// equals the given canonical value.
func (s StoreCatalog) ByDisplacement(ctx context.Context, canonical string) ([]domain.VehicleCatalogEntry, error) {
	if canonical == "" {
		return nil, nil
	}
	entries, err := ListActiveVehicles(ctx, s.DB, s.TenantID)
	if err != nil {
		return nil, err
	}
	var out []domain.VehicleCatalogEntry
	for _, e := range entries {
		if displacement.Normalize(e.Displacement) == canonical {
			out = append(out, e)
		}
	}
	return out, nil
}
