package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// AppendHistory inserts one audit row into the profile history ledger. The
// ledger is append-only: there are no update or delete functions here.
func AppendHistory(ctx context.Context, db *gorm.DB, h *domain.CustomerProfileHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(h).Error
}

// CountHistory returns the number of ledger rows for (tenantID, plate).
func CountHistory(ctx context.Context, db *gorm.DB, tenantID, plate string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.CustomerProfileHistory{}).
		Where("tenant_id = ? AND plate = ?", tenantID, plate).
		Count(&total).Error
	return total, err
}

// ListHistoryPage returns a page of ledger rows for (tenantID, plate),
// newest first. Rows survive the deletion of their profile.
func ListHistoryPage(ctx context.Context, db *gorm.DB, tenantID, plate string, offset, limit int) ([]domain.CustomerProfileHistory, error) {
	var out []domain.CustomerProfileHistory
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND plate = ?", tenantID, plate).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
