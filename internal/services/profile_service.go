// Package services – ProfileService
//
// This file implements the reconciliation flow: one inbound observation in,
// exactly one profile and one history row out. The service looks up the
// profile by plate (including the legacy nested-plate column), demotes
// duplicates by completeness score, merges the payload under the caller's
// overwrite options, resolves the vehicle against the catalog, and queues an
// unassigned-vehicle record when the match is not confident enough to apply.
//
// History writes are best-effort: a failed audit insert is logged and never
// fails the merge itself.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-workshop-backend/internal/catalog"
	"github.com/tbourn/go-workshop-backend/internal/domain"
	"github.com/tbourn/go-workshop-backend/internal/repo"
)

// ProfileRepo defines the repository contract required by ProfileService.
type ProfileRepo interface {
	// FindProfilesByPlate returns every profile matching the plate, top-level
	// or legacy nested, most recently updated first.
	FindProfilesByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) ([]domain.CustomerProfile, error)

	// CreateProfile inserts a new profile row.
	CreateProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error

	// SaveProfile persists the full state of an existing profile row.
	SaveProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error

	// DeleteProfiles removes the listed profile rows for the tenant.
	DeleteProfiles(ctx context.Context, db *gorm.DB, tenantID string, ids []string) error
}

// HistoryRepo is the append-only audit ledger contract.
type HistoryRepo interface {
	AppendHistory(ctx context.Context, db *gorm.DB, h *domain.CustomerProfileHistory) error
}

// UnassignedRepo is the pending-queue contract used by the merge flow.
type UnassignedRepo interface {
	// FindPendingByProfileOrPlate returns the pending record for the profile
	// or plate, or (nil, nil) when none exists.
	FindPendingByProfileOrPlate(ctx context.Context, db *gorm.DB, tenantID, profileID, plate string) (*domain.UnassignedVehicle, error)

	// CreateUnassigned inserts a new pending record.
	CreateUnassigned(ctx context.Context, db *gorm.DB, u *domain.UnassignedVehicle) error
}

// VehicleMatcher resolves a vehicle description to a catalog candidate.
type VehicleMatcher interface {
	Match(ctx context.Context, make, line, disp string) (*catalog.Match, error)
}

// ReconcileResult is the outcome of one reconciliation call.
type ReconcileResult struct {
	Profile *domain.CustomerProfile `json:"profile"`
	// Action is one of domain.ActionCreated, ActionUpdated, ActionUnchanged.
	Action string `json:"action"`
	// Diff maps the changed top-level sections (customer, vehicle, plate) to
	// their before/after values. Empty for unchanged merges.
	Diff map[string]FieldChange `json:"diff,omitempty"`
	// Unassigned is set when the vehicle could not be confidently resolved
	// and a pending queue record exists for it (new or pre-existing).
	Unassigned *domain.UnassignedVehicle `json:"unassignedVehicle,omitempty"`
}

// ProfileService implements the reconciliation merge engine.
type ProfileService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the profile repository.
	Repo ProfileRepo
	// History is the audit ledger repository.
	History HistoryRepo
	// Unassigned is the pending-queue repository.
	Unassigned UnassignedRepo
	// MatcherFor builds a tenant-scoped matcher. Batch callers may inject a
	// snapshot-backed matcher instead of the live store.
	MatcherFor func(tenantID string) VehicleMatcher
}

// NewProfileService constructs a ProfileService backed by the live catalog.
func NewProfileService(db *gorm.DB, r ProfileRepo, h HistoryRepo, u UnassignedRepo) *ProfileService {
	return &ProfileService{
		DB:         db,
		Repo:       r,
		History:    h,
		Unassigned: u,
		MatcherFor: func(tenantID string) VehicleMatcher {
			return catalog.NewMatcher(repo.StoreCatalog{DB: db, TenantID: tenantID})
		},
	}
}

// Reconcile merges one observation into the tenant's profile for its plate,
// creating the profile if it does not exist. It returns the resulting state,
// the action taken, and the diff. A history row is appended for every call,
// including no-ops.
func (s *ProfileService) Reconcile(ctx context.Context, tenantID string, rec SourceRecord, opts MergeOptions) (*ReconcileResult, error) {
	cust, veh := buildPayload(rec)
	if veh.Plate == "" {
		return nil, ErrPlateRequired
	}

	profiles, err := s.Repo.FindProfilesByPlate(ctx, s.DB, tenantID, veh.Plate)
	if err != nil {
		return nil, err
	}

	var p *domain.CustomerProfile
	created := false
	switch len(profiles) {
	case 0:
		p = &domain.CustomerProfile{TenantID: tenantID, Plate: veh.Plate, Tier: "General"}
		created = true
	case 1:
		p = &profiles[0]
	default:
		survivor, losers := pickSurvivor(profiles)
		if err := s.Repo.DeleteProfiles(ctx, s.DB, tenantID, losers); err != nil {
			return nil, err
		}
		p = survivor
	}

	beforeVehicle := p.Vehicle
	diff := merge(p, cust, veh, opts)

	if err := s.resolveVehicle(ctx, tenantID, p); err != nil {
		return nil, err
	}
	if !vehicleEqual(beforeVehicle, p.Vehicle) {
		diff["vehicle"] = FieldChange{Before: beforeVehicle, After: p.Vehicle}
	}

	action := domain.ActionUnchanged
	switch {
	case created:
		action = domain.ActionCreated
		if err := s.Repo.CreateProfile(ctx, s.DB, p); err != nil {
			if !isDuplicate(err) {
				return nil, err
			}
			// Lost a create race: someone inserted the plate between the
			// lookup and the insert. Re-read and merge into that row.
			again, ferr := s.Repo.FindProfilesByPlate(ctx, s.DB, tenantID, veh.Plate)
			if ferr != nil {
				return nil, ferr
			}
			if len(again) == 0 {
				return nil, err
			}
			winner := &again[0]
			beforeVehicle = winner.Vehicle
			diff = merge(winner, cust, veh, opts)
			if rerr := s.resolveVehicle(ctx, tenantID, winner); rerr != nil {
				return nil, rerr
			}
			if !vehicleEqual(beforeVehicle, winner.Vehicle) {
				diff["vehicle"] = FieldChange{Before: beforeVehicle, After: winner.Vehicle}
			}
			p = winner
			created = false
			action = domain.ActionUnchanged
			if len(diff) > 0 {
				action = domain.ActionUpdated
				if err := s.Repo.SaveProfile(ctx, s.DB, p); err != nil {
					return nil, err
				}
			}
		}
	case len(diff) > 0:
		action = domain.ActionUpdated
		if err := s.Repo.SaveProfile(ctx, s.DB, p); err != nil {
			return nil, err
		}
	}

	res := &ReconcileResult{Profile: p, Action: action, Diff: diff}

	if p.Vehicle.VehicleID == "" && hasVehicleFragment(p.Vehicle) {
		u, err := s.queueUnassigned(ctx, tenantID, p, cust, veh, opts)
		if err != nil {
			return nil, err
		}
		res.Unassigned = u
	}

	s.appendHistory(ctx, tenantID, p, action, diff, opts)
	return res, nil
}

// resolveVehicle attempts a confident catalog match for a profile without a
// linked vehicle. Exact matches are applied; anything weaker is left for the
// unassigned-vehicle workflow.
func (s *ProfileService) resolveVehicle(ctx context.Context, tenantID string, p *domain.CustomerProfile) error {
	if p.Vehicle.VehicleID != "" || p.Vehicle.Engine == "" {
		return nil
	}
	m, err := s.MatcherFor(tenantID).Match(ctx, p.Vehicle.Brand, p.Vehicle.Line, p.Vehicle.Engine)
	if err != nil {
		return err
	}
	if m == nil || m.Type != domain.MatchExact {
		return nil
	}
	p.Vehicle.VehicleID = m.Entry.ID
	p.Vehicle.Brand = m.Entry.Make
	p.Vehicle.Line = m.Entry.Line
	p.Vehicle.Engine = m.Entry.Displacement
	return nil
}

// hasVehicleFragment reports whether the profile carries an unresolved
// vehicle description worth an operator's attention. Customer-only records
// (a plate plus identity fields) have nothing to approve and never queue.
func hasVehicleFragment(v domain.Vehicle) bool {
	return v.Brand != "" || v.Line != "" || v.Engine != ""
}

// queueUnassigned ensures exactly one pending record exists for an unresolved
// vehicle, attaching the matcher's low-confidence suggestion when there is
// one. Re-running the merge for the same plate reuses the existing record.
func (s *ProfileService) queueUnassigned(ctx context.Context, tenantID string, p *domain.CustomerProfile, cust domain.Customer, veh domain.Vehicle, opts MergeOptions) (*domain.UnassignedVehicle, error) {
	existing, err := s.Unassigned.FindPendingByProfileOrPlate(ctx, s.DB, tenantID, p.ID, p.Plate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	u := &domain.UnassignedVehicle{
		TenantID:  tenantID,
		ProfileID: p.ID,
		Customer:  p.Customer,
		VehicleData: domain.VehicleData{
			Plate:  p.Plate,
			Brand:  p.Vehicle.Brand,
			Line:   p.Vehicle.Line,
			Engine: p.Vehicle.Engine,
			Year:   p.Vehicle.Year,
		},
		Source: opts.Source,
	}
	if p.Vehicle.Engine != "" {
		m, err := s.MatcherFor(tenantID).Match(ctx, p.Vehicle.Brand, p.Vehicle.Line, p.Vehicle.Engine)
		if err != nil {
			return nil, err
		}
		if m != nil {
			u.Suggested = domain.SuggestedVehicle{
				VehicleID:    m.Entry.ID,
				Make:         m.Entry.Make,
				Line:         m.Entry.Line,
				Displacement: m.Entry.Displacement,
				MatchType:    m.Type,
				Confidence:   m.Confidence,
			}
		}
	}
	if err := s.Unassigned.CreateUnassigned(ctx, s.DB, u); err != nil {
		return nil, err
	}
	return u, nil
}

// appendHistory writes the audit row for a merge. Failures are logged, never
// propagated: the merge already happened and the caller must see its result.
func (s *ProfileService) appendHistory(ctx context.Context, tenantID string, p *domain.CustomerProfile, action string, diff map[string]FieldChange, opts MergeOptions) {
	h := &domain.CustomerProfileHistory{
		TenantID:  tenantID,
		ProfileID: p.ID,
		Plate:     p.Plate,
		Action:    action,
		Source:    opts.Source,
	}
	if len(diff) > 0 {
		if b, err := json.Marshal(diff); err == nil {
			h.Diff = b
		}
	}
	if b, err := json.Marshal(p); err == nil {
		h.Snapshot = b
	}
	if b, err := json.Marshal(map[string]any{
		"overwriteCustomer": opts.OverwriteCustomer,
		"overwriteVehicle":  opts.OverwriteVehicle,
		"overwriteYear":     opts.OverwriteYear,
		"overwriteMileage":  opts.OverwriteMileage,
	}); err == nil {
		h.Meta = b
	}
	if err := s.History.AppendHistory(ctx, s.DB, h); err != nil {
		log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("plate", p.Plate).
			Str("action", action).
			Msg("history append failed")
	}
}

// pickSurvivor ranks duplicate profiles by completeness score and returns the
// richest one plus the IDs to demote. The sort is stable, so on ties the most
// recently updated row (first in query order) survives.
func pickSurvivor(profiles []domain.CustomerProfile) (*domain.CustomerProfile, []string) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return score(profiles[i]) > score(profiles[j])
	})
	losers := make([]string, 0, len(profiles)-1)
	for _, d := range profiles[1:] {
		losers = append(losers, d.ID)
	}
	return &profiles[0], losers
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way. It also checks gorm.ErrRecordNotFound for safety.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
