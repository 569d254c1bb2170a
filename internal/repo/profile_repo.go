// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// CustomerProfile model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a profile is not found, single-row functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - Inserting a second profile for the same (tenant, plate) violates the
//     composite unique index; the raw gorm error is propagated and the merge
//     engine translates it into its duplicate-key recovery path.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// FindProfilesByPlate returns every profile for (tenantID, plate), matching
// the top-level plate column or the legacy nested vehicle plate, ordered by
// most recently updated first. An empty result is not an error: the merge
// engine treats it as "no profile yet".
//
// Under the unique index at most one row matches the top-level plate, but
// legacy imports that stored the plate only under vehicle_plate can produce
// additional matches — the merge engine demotes those duplicates.
func FindProfilesByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) ([]domain.CustomerProfile, error) {
	var out []domain.CustomerProfile
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND (plate = ? OR vehicle_plate = ?)", tenantID, plate, plate).
		Order("updated_at desc, created_at desc").
		Find(&out).Error
	return out, err
}

// CreateProfile inserts a new profile row. The ID is a randomly generated
// UUID when unset, and CreatedAt is set to UTC. A duplicate (tenant, plate)
// insert returns the raw unique-constraint error.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(p).Error
}

// SaveProfile persists the full state of an existing profile row.
func SaveProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error {
	return db.WithContext(ctx).Save(p).Error
}

// DeleteProfiles removes the given profile rows for a tenant. Used by the
// merge engine's duplicate demotion and by the unassigned-vehicle delete
// cascade; history rows are intentionally left untouched.
func DeleteProfiles(ctx context.Context, db *gorm.DB, tenantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&domain.CustomerProfile{}).Error
}

// GetProfileByID fetches a single profile by primary key within a tenant, or
// ErrNotFound if missing.
func GetProfileByID(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.CustomerProfile, error) {
	var p domain.CustomerProfile
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfileByPlate fetches the profile for (tenantID, plate) by the
// top-level plate column, or ErrNotFound if missing.
func GetProfileByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) (*domain.CustomerProfile, error) {
	var p domain.CustomerProfile
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND plate = ?", tenantID, plate).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountProfiles returns the number of profiles matching the optional search
// term (plate, customer name, phone or id number, case-insensitive).
func CountProfiles(ctx context.Context, db *gorm.DB, tenantID, search string) (int64, error) {
	var total int64
	err := profileSearchScope(db.WithContext(ctx), tenantID, search).
		Model(&domain.CustomerProfile{}).
		Count(&total).Error
	return total, err
}

// ListProfilesPage returns a page of profiles ordered by plate, filtered by
// the optional search term. Use CountProfiles for pagination metadata.
func ListProfilesPage(ctx context.Context, db *gorm.DB, tenantID, search string, offset, limit int) ([]domain.CustomerProfile, error) {
	var out []domain.CustomerProfile
	err := profileSearchScope(db.WithContext(ctx), tenantID, search).
		Order("plate asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateProfileTier sets the loyalty tier for (tenantID, plate). Returns
// ErrNotFound when no profile matches.
func UpdateProfileTier(ctx context.Context, db *gorm.DB, tenantID, plate, tier string) error {
	res := db.WithContext(ctx).
		Model(&domain.CustomerProfile{}).
		Where("tenant_id = ? AND plate = ?", tenantID, plate).
		Update("tier", tier)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetProfileVehicle overwrites the catalog link fields of a profile's vehicle
// from a chosen catalog entry. Year comes from the operator-visible raw data,
// not the catalog. Used by the unassigned-vehicle approve transition.
func SetProfileVehicle(ctx context.Context, db *gorm.DB, tenantID, profileID string, e domain.VehicleCatalogEntry, year *int) error {
	res := db.WithContext(ctx).
		Model(&domain.CustomerProfile{}).
		Where("tenant_id = ? AND id = ?", tenantID, profileID).
		Updates(map[string]any{
			"vehicle_vehicle_id": e.ID,
			"vehicle_brand":      e.Make,
			"vehicle_line":       e.Line,
			"vehicle_engine":     e.Displacement,
			"vehicle_year":       year,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// profileSearchScope applies the tenant filter plus the optional free-text
// search across plate and customer identity columns.
func profileSearchScope(db *gorm.DB, tenantID, search string) *gorm.DB {
	q := db.Where("tenant_id = ?", tenantID)
	if search != "" {
		like := "%" + search + "%"
		q = q.Where(
			"plate LIKE ? OR customer_name LIKE ? OR customer_phone LIKE ? OR customer_id_number LIKE ?",
			like, like, like, like,
		)
	}
	return q
}
