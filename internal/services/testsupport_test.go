package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-workshop-backend/internal/domain"
	"github.com/tbourn/go-workshop-backend/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// gormRepos adapts the repository free functions to every service contract so
// tests exercise the real persistence path end to end.
type gormRepos struct{}

func (gormRepos) FindProfilesByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) ([]domain.CustomerProfile, error) {
	return repo.FindProfilesByPlate(ctx, db, tenantID, plate)
}

func (gormRepos) CreateProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error {
	return repo.CreateProfile(ctx, db, p)
}

func (gormRepos) SaveProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error {
	return repo.SaveProfile(ctx, db, p)
}

func (gormRepos) DeleteProfiles(ctx context.Context, db *gorm.DB, tenantID string, ids []string) error {
	return repo.DeleteProfiles(ctx, db, tenantID, ids)
}

func (gormRepos) GetProfileByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) (*domain.CustomerProfile, error) {
	return repo.GetProfileByPlate(ctx, db, tenantID, plate)
}

func (gormRepos) CountProfiles(ctx context.Context, db *gorm.DB, tenantID, search string) (int64, error) {
	return repo.CountProfiles(ctx, db, tenantID, search)
}

func (gormRepos) ListProfilesPage(ctx context.Context, db *gorm.DB, tenantID, search string, offset, limit int) ([]domain.CustomerProfile, error) {
	return repo.ListProfilesPage(ctx, db, tenantID, search, offset, limit)
}

func (gormRepos) UpdateProfileTier(ctx context.Context, db *gorm.DB, tenantID, plate, tier string) error {
	return repo.UpdateProfileTier(ctx, db, tenantID, plate, tier)
}

func (gormRepos) SetProfileVehicle(ctx context.Context, db *gorm.DB, tenantID, profileID string, e domain.VehicleCatalogEntry, year *int) error {
	return repo.SetProfileVehicle(ctx, db, tenantID, profileID, e, year)
}

func (gormRepos) AppendHistory(ctx context.Context, db *gorm.DB, h *domain.CustomerProfileHistory) error {
	return repo.AppendHistory(ctx, db, h)
}

func (gormRepos) CountHistory(ctx context.Context, db *gorm.DB, tenantID, plate string) (int64, error) {
	return repo.CountHistory(ctx, db, tenantID, plate)
}

func (gormRepos) ListHistoryPage(ctx context.Context, db *gorm.DB, tenantID, plate string, offset, limit int) ([]domain.CustomerProfileHistory, error) {
	return repo.ListHistoryPage(ctx, db, tenantID, plate, offset, limit)
}

func (gormRepos) FindPendingByProfileOrPlate(ctx context.Context, db *gorm.DB, tenantID, profileID, plate string) (*domain.UnassignedVehicle, error) {
	return repo.FindPendingByProfileOrPlate(ctx, db, tenantID, profileID, plate)
}

func (gormRepos) CreateUnassigned(ctx context.Context, db *gorm.DB, u *domain.UnassignedVehicle) error {
	return repo.CreateUnassigned(ctx, db, u)
}

func (gormRepos) GetUnassigned(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.UnassignedVehicle, error) {
	return repo.GetUnassigned(ctx, db, tenantID, id)
}

func (gormRepos) CountUnassigned(ctx context.Context, db *gorm.DB, tenantID, status string) (int64, error) {
	return repo.CountUnassigned(ctx, db, tenantID, status)
}

func (gormRepos) ListUnassignedPage(ctx context.Context, db *gorm.DB, tenantID, status string, offset, limit int) ([]domain.UnassignedVehicle, error) {
	return repo.ListUnassignedPage(ctx, db, tenantID, status, offset, limit)
}

func (gormRepos) CountUnassignedByStatus(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error) {
	return repo.CountUnassignedByStatus(ctx, db, tenantID)
}

func (gormRepos) TransitionUnassigned(ctx context.Context, db *gorm.DB, tenantID, id, status, notes string) error {
	return repo.TransitionUnassigned(ctx, db, tenantID, id, status, notes)
}

func (gormRepos) GetActiveVehicle(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.VehicleCatalogEntry, error) {
	return repo.GetActiveVehicle(ctx, db, tenantID, id)
}

func seedCatalogEntry(t *testing.T, db *gorm.DB, id, make, line, disp string) {
	t.Helper()
	e := &domain.VehicleCatalogEntry{
		ID: id, TenantID: "t1", Make: make, Line: line, Displacement: disp, Active: true,
	}
	if err := repo.CreateVehicle(context.Background(), db, e); err != nil {
		t.Fatalf("seed catalog %s: %v", id, err)
	}
}

func intp(v int) *int { return &v }
