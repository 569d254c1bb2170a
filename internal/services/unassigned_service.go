// Package services – UnassignedService
//
// This file implements the operator workflow around unassigned vehicles:
// listing and inspecting the pending queue, and driving records from pending
// to exactly one terminal state. Approve and Delete touch the owning profile
// and therefore run inside a transaction; the status flip itself re-checks
// the pending precondition at the storage layer so concurrent operators
// cannot both win.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/domain"
)

// UnassignedWorkflowRepo defines the queue persistence contract required by
// UnassignedService.
type UnassignedWorkflowRepo interface {
	// GetUnassigned fetches one record by id within a tenant.
	GetUnassigned(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.UnassignedVehicle, error)

	// CountUnassigned counts records, optionally filtered by status.
	CountUnassigned(ctx context.Context, db *gorm.DB, tenantID, status string) (int64, error)

	// ListUnassignedPage returns a page of records, newest first.
	ListUnassignedPage(ctx context.Context, db *gorm.DB, tenantID, status string, offset, limit int) ([]domain.UnassignedVehicle, error)

	// CountUnassignedByStatus returns per-status totals.
	CountUnassignedByStatus(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error)

	// TransitionUnassigned flips pending to a terminal status, returning a
	// not-found error when the record is missing or no longer pending.
	TransitionUnassigned(ctx context.Context, db *gorm.DB, tenantID, id, status, notes string) error
}

// VehicleCatalogRepo is the catalog read contract used during approval.
type VehicleCatalogRepo interface {
	GetActiveVehicle(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.VehicleCatalogEntry, error)
}

// ProfileWriteRepo is the slice of profile persistence the workflow needs.
type ProfileWriteRepo interface {
	SetProfileVehicle(ctx context.Context, db *gorm.DB, tenantID, profileID string, e domain.VehicleCatalogEntry, year *int) error
	DeleteProfiles(ctx context.Context, db *gorm.DB, tenantID string, ids []string) error
}

// UnassignedService drives the unassigned-vehicle approval workflow.
type UnassignedService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the queue repository.
	Repo UnassignedWorkflowRepo
	// Vehicles reads the catalog during approvals.
	Vehicles VehicleCatalogRepo
	// Profiles applies approved vehicles and cascaded deletions.
	Profiles ProfileWriteRepo
}

// NewUnassignedService constructs an UnassignedService.
func NewUnassignedService(db *gorm.DB, r UnassignedWorkflowRepo, v VehicleCatalogRepo, p ProfileWriteRepo) *UnassignedService {
	return &UnassignedService{DB: db, Repo: r, Vehicles: v, Profiles: p}
}

// Get returns one record, or ErrUnassignedNotFound.
func (s *UnassignedService) Get(ctx context.Context, tenantID, id string) (*domain.UnassignedVehicle, error) {
	u, err := s.Repo.GetUnassigned(ctx, s.DB, tenantID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUnassignedNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListPage returns a page of records plus the total, optionally filtered by
// status. It applies defaults for invalid page/pageSize.
func (s *UnassignedService) ListPage(ctx context.Context, tenantID, status string, page, pageSize int) ([]domain.UnassignedVehicle, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountUnassigned(ctx, s.DB, tenantID, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.UnassignedVehicle{}, 0, nil
	}

	items, err := s.Repo.ListUnassignedPage(ctx, s.DB, tenantID, status, offset, pageSize)
	return items, total, err
}

// Stats returns the queue totals per status. Every status appears in the
// result, zero-valued when empty, so dashboards need no nil checks.
func (s *UnassignedService) Stats(ctx context.Context, tenantID string) (map[string]int64, error) {
	counts, err := s.Repo.CountUnassignedByStatus(ctx, s.DB, tenantID)
	if err != nil {
		return nil, err
	}
	out := map[string]int64{
		domain.StatusPending:  0,
		domain.StatusApproved: 0,
		domain.StatusRejected: 0,
		domain.StatusDeleted:  0,
	}
	for status, n := range counts {
		out[status] = n
	}
	return out, nil
}

// Approve links the record's profile to a catalog entry and marks the record
// approved. The target entry is the explicit vehicleID when given, otherwise
// the stored suggestion; with neither, ErrNoTargetVehicle. The profile's
// vehicle is overwritten from the catalog entry while the model year keeps
// the operator-visible raw value.
func (s *UnassignedService) Approve(ctx context.Context, tenantID, id, vehicleID, notes string) (*domain.UnassignedVehicle, error) {
	var approved *domain.UnassignedVehicle
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.Repo.GetUnassigned(ctx, tx, tenantID, id)
		if err != nil {
			if isNotFound(err) {
				return ErrUnassignedNotFound
			}
			return err
		}
		if u.Status != domain.StatusPending {
			return ErrNotPending
		}

		target := vehicleID
		if target == "" {
			target = u.Suggested.VehicleID
		}
		if target == "" {
			return ErrNoTargetVehicle
		}

		entry, err := s.Vehicles.GetActiveVehicle(ctx, tx, tenantID, target)
		if err != nil {
			if isNotFound(err) {
				return ErrVehicleNotFound
			}
			return err
		}

		if err := s.Profiles.SetProfileVehicle(ctx, tx, tenantID, u.ProfileID, *entry, u.VehicleData.Year); err != nil {
			if isNotFound(err) {
				return ErrProfileNotFound
			}
			return err
		}

		if err := s.Repo.TransitionUnassigned(ctx, tx, tenantID, id, domain.StatusApproved, notes); err != nil {
			if isNotFound(err) {
				return ErrNotPending
			}
			return err
		}

		// Mirror exactly what TransitionUnassigned persisted; the stored
		// suggestion stays as the matcher left it, the chosen entry lives on
		// the profile.
		u.Status = domain.StatusApproved
		if notes != "" {
			u.Notes = notes
		}
		approved = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject marks a pending record rejected; the profile keeps its unresolved
// vehicle data untouched.
func (s *UnassignedService) Reject(ctx context.Context, tenantID, id, notes string) (*domain.UnassignedVehicle, error) {
	return s.transition(ctx, tenantID, id, domain.StatusRejected, notes, false)
}

// Delete marks a pending record deleted. With cascadeProfile the owning
// profile row is removed too; its history ledger always survives.
func (s *UnassignedService) Delete(ctx context.Context, tenantID, id string, cascadeProfile bool) (*domain.UnassignedVehicle, error) {
	return s.transition(ctx, tenantID, id, domain.StatusDeleted, "", cascadeProfile)
}

func (s *UnassignedService) transition(ctx context.Context, tenantID, id, status, notes string, cascadeProfile bool) (*domain.UnassignedVehicle, error) {
	var out *domain.UnassignedVehicle
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.Repo.GetUnassigned(ctx, tx, tenantID, id)
		if err != nil {
			if isNotFound(err) {
				return ErrUnassignedNotFound
			}
			return err
		}
		if u.Status != domain.StatusPending {
			return ErrNotPending
		}

		if err := s.Repo.TransitionUnassigned(ctx, tx, tenantID, id, status, notes); err != nil {
			if isNotFound(err) {
				return ErrNotPending
			}
			return err
		}

		if cascadeProfile && u.ProfileID != "" {
			if err := s.Profiles.DeleteProfiles(ctx, tx, tenantID, []string{u.ProfileID}); err != nil {
				return err
			}
		}

		u.Status = status
		if notes != "" {
			u.Notes = notes
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
