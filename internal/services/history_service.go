package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// HistoryReadRepo is the ledger read contract used by HistoryService.
type HistoryReadRepo interface {
	CountHistory(ctx context.Context, db *gorm.DB, tenantID, plate string) (int64, error)
	ListHistoryPage(ctx context.Context, db *gorm.DB, tenantID, plate string, offset, limit int) ([]domain.CustomerProfileHistory, error)
}

// HistoryService exposes the audit ledger for a plate, newest first. The
// ledger outlives its profile, so lookups go by plate, not profile id.
type HistoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the ledger repository used by this service.
	Repo HistoryReadRepo
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(db *gorm.DB, r HistoryReadRepo) *HistoryService {
	return &HistoryService{DB: db, Repo: r}
}

// ListPage returns a page of ledger rows for the plate plus the total.
// An unknown plate yields an empty page, not an error: an empty trail is a
// valid answer.
func (s *HistoryService) ListPage(ctx context.Context, tenantID, plate string, page, pageSize int) ([]domain.CustomerProfileHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	plate = normKey(plate)
	total, err := s.Repo.CountHistory(ctx, s.DB, tenantID, plate)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.CustomerProfileHistory{}, 0, nil
	}

	items, err := s.Repo.ListHistoryPage(ctx, s.DB, tenantID, plate, offset, pageSize)
	return items, total, err
}
