package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// CreateUnassigned inserts a new unassigned-vehicle record in pending state.
func CreateUnassigned(ctx context.Context, db *gorm.DB, u *domain.UnassignedVehicle) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = domain.StatusPending
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(u).Error
}

// GetUnassigned fetches one record by id within a tenant, or ErrNotFound.
func GetUnassigned(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.UnassignedVehicle, error) {
	var u domain.UnassignedVehicle
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindPendingByProfileOrPlate returns the pending record attached to the
// profile, or failing that one with the same raw plate, so repeated merges of
// the same unresolved fragment do not pile up queue entries. Returns
// (nil, nil) when no pending record exists.
func FindPendingByProfileOrPlate(ctx context.Context, db *gorm.DB, tenantID, profileID, plate string) (*domain.UnassignedVehicle, error) {
	var u domain.UnassignedVehicle
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND (profile_id = ? OR vehicle_plate = ?)",
			tenantID, domain.StatusPending, profileID, plate).
		Order("created_at asc").
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CountUnassignedByStatus returns per-status totals for a tenant. Statuses
// with no rows are absent from the map.
func CountUnassignedByStatus(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := db.WithContext(ctx).
		Model(&domain.UnassignedVehicle{}).
		Select("status, count(*) as n").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// CountUnassigned returns the number of records for a tenant, optionally
// filtered by status.
func CountUnassigned(ctx context.Context, db *gorm.DB, tenantID, status string) (int64, error) {
	var total int64
	err := unassignedScope(db.WithContext(ctx), tenantID, status).
		Model(&domain.UnassignedVehicle{}).
		Count(&total).Error
	return total, err
}

// ListUnassignedPage returns a page of records for a tenant, newest first,
// optionally filtered by status.
func ListUnassignedPage(ctx context.Context, db *gorm.DB, tenantID, status string, offset, limit int) ([]domain.UnassignedVehicle, error) {
	var out []domain.UnassignedVehicle
	err := unassignedScope(db.WithContext(ctx), tenantID, status).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TransitionUnassigned flips a record from pending to the given terminal
// status, appending the optional note. The pending precondition rides in the
// WHERE clause so two concurrent operators cannot both win: the loser sees
// zero rows affected and gets ErrNotFound, which the service layer maps to
// its not-pending error after re-reading the record.
func TransitionUnassigned(ctx context.Context, db *gorm.DB, tenantID, id, status, notes string) error {
	updates := map[string]any{"status": status}
	if notes != "" {
		updates["notes"] = notes
	}
	res := db.WithContext(ctx).
		Model(&domain.UnassignedVehicle{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, domain.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func unassignedScope(db *gorm.DB, tenantID, status string) *gorm.DB {
	q := db.Where("tenant_id = ?", tenantID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return q
}
