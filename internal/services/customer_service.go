// Package services – CustomerService
//
// This file implements read-side customer operations (plate lookup, listing
// with search) and the loyalty tier update, which lives outside the merge
// flow on purpose: tier changes are commercial decisions, not observations,
// and must never be clobbered by reconciliation.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// Loyalty tiers accepted by UpdateTier.
var validTiers = map[string]bool{
	"General": true,
	"GOLD":    true,
}

// CustomerRepo defines the repository contract required by CustomerService.
type CustomerRepo interface {
	// GetProfileByPlate fetches the profile for the plate.
	GetProfileByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) (*domain.CustomerProfile, error)

	// CountProfiles counts profiles matching the optional search term.
	CountProfiles(ctx context.Context, db *gorm.DB, tenantID, search string) (int64, error)

	// ListProfilesPage returns a page of profiles ordered by plate.
	ListProfilesPage(ctx context.Context, db *gorm.DB, tenantID, search string, offset, limit int) ([]domain.CustomerProfile, error)

	// UpdateProfileTier sets the loyalty tier for the plate.
	UpdateProfileTier(ctx context.Context, db *gorm.DB, tenantID, plate, tier string) error
}

// CustomerService provides profile lookups and tier management.
type CustomerService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the profile repository used by this service.
	Repo CustomerRepo
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(db *gorm.DB, r CustomerRepo) *CustomerService {
	return &CustomerService{DB: db, Repo: r}
}

// SearchByPlate returns the profile for the plate, or ErrProfileNotFound.
// The plate is normalized the same way the merge engine normalizes it.
func (s *CustomerService) SearchByPlate(ctx context.Context, tenantID, plate string) (*domain.CustomerProfile, error) {
	plate = normKey(plate)
	if plate == "" {
		return nil, ErrPlateRequired
	}
	p, err := s.Repo.GetProfileByPlate(ctx, s.DB, tenantID, plate)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListPage returns a page of profiles plus the total, filtered by the
// optional free-text search. It applies defaults for invalid page/pageSize.
func (s *CustomerService) ListPage(ctx context.Context, tenantID, search string, page, pageSize int) ([]domain.CustomerProfile, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountProfiles(ctx, s.DB, tenantID, search)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.CustomerProfile{}, 0, nil
	}

	items, err := s.Repo.ListProfilesPage(ctx, s.DB, tenantID, search, offset, pageSize)
	return items, total, err
}

// UpdateTier sets the loyalty tier for the plate's profile. Only known tiers
// are accepted; a missing profile returns ErrProfileNotFound.
func (s *CustomerService) UpdateTier(ctx context.Context, tenantID, plate, tier string) error {
	if !validTiers[tier] {
		return ErrInvalidTier
	}
	plate = normKey(plate)
	if plate == "" {
		return ErrPlateRequired
	}
	if err := s.Repo.UpdateProfileTier(ctx, s.DB, tenantID, plate, tier); err != nil {
		if isNotFound(err) {
			return ErrProfileNotFound
		}
		return err
	}
	return nil
}
