package handlers

import (
	"context"

	"github.com/tbourn/go-workshop-backend/internal/domain"
	"github.com/tbourn/go-workshop-backend/internal/services"
)

// ---- stubs to satisfy handlers.New() dependencies ----

type stubProfileSvc struct {
	reconcile func(ctx context.Context, tenantID string, rec services.SourceRecord, opts services.MergeOptions) (*services.ReconcileResult, error)
}

func (s stubProfileSvc) Reconcile(ctx context.Context, tenantID string, rec services.SourceRecord, opts services.MergeOptions) (*services.ReconcileResult, error) {
	if s.reconcile != nil {
		return s.reconcile(ctx, tenantID, rec, opts)
	}
	return &services.ReconcileResult{Action: domain.ActionUnchanged}, nil
}

type stubHistorySvc struct {
	list func(ctx context.Context, tenantID, plate string, page, pageSize int) ([]domain.CustomerProfileHistory, int64, error)
}

func (s stubHistorySvc) ListPage(ctx context.Context, tenantID, plate string, page, pageSize int) ([]domain.CustomerProfileHistory, int64, error) {
	if s.list != nil {
		return s.list(ctx, tenantID, plate, page, pageSize)
	}
	return nil, 0, nil
}

type stubCustomerSvc struct {
	search     func(ctx context.Context, tenantID, plate string) (*domain.CustomerProfile, error)
	list       func(ctx context.Context, tenantID, search string, page, pageSize int) ([]domain.CustomerProfile, int64, error)
	updateTier func(ctx context.Context, tenantID, plate, tier string) error
}

func (s stubCustomerSvc) SearchByPlate(ctx context.Context, tenantID, plate string) (*domain.CustomerProfile, error) {
	if s.search != nil {
		return s.search(ctx, tenantID, plate)
	}
	return nil, services.ErrProfileNotFound
}

func (s stubCustomerSvc) ListPage(ctx context.Context, tenantID, search string, page, pageSize int) ([]domain.CustomerProfile, int64, error) {
	if s.list != nil {
		return s.list(ctx, tenantID, search, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubCustomerSvc) UpdateTier(ctx context.Context, tenantID, plate, tier string) error {
	if s.updateTier != nil {
		return s.updateTier(ctx, tenantID, plate, tier)
	}
	return nil
}

type stubUnassignedSvc struct {
	get     func(ctx context.Context, tenantID, id string) (*domain.UnassignedVehicle, error)
	list    func(ctx context.Context, tenantID, status string, page, pageSize int) ([]domain.UnassignedVehicle, int64, error)
	stats   func(ctx context.Context, tenantID string) (map[string]int64, error)
	approve func(ctx context.Context, tenantID, id, vehicleID, notes string) (*domain.UnassignedVehicle, error)
	reject  func(ctx context.Context, tenantID, id, notes string) (*domain.UnassignedVehicle, error)
	del     func(ctx context.Context, tenantID, id string, cascadeProfile bool) (*domain.UnassignedVehicle, error)
}

func (s stubUnassignedSvc) Get(ctx context.Context, tenantID, id string) (*domain.UnassignedVehicle, error) {
	if s.get != nil {
		return s.get(ctx, tenantID, id)
	}
	return nil, services.ErrUnassignedNotFound
}

func (s stubUnassignedSvc) ListPage(ctx context.Context, tenantID, status string, page, pageSize int) ([]domain.UnassignedVehicle, int64, error) {
	if s.list != nil {
		return s.list(ctx, tenantID, status, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubUnassignedSvc) Stats(ctx context.Context, tenantID string) (map[string]int64, error) {
	if s.stats != nil {
		return s.stats(ctx, tenantID)
	}
	return map[string]int64{}, nil
}

func (s stubUnassignedSvc) Approve(ctx context.Context, tenantID, id, vehicleID, notes string) (*domain.UnassignedVehicle, error) {
	if s.approve != nil {
		return s.approve(ctx, tenantID, id, vehicleID, notes)
	}
	return nil, services.ErrUnassignedNotFound
}

func (s stubUnassignedSvc) Reject(ctx context.Context, tenantID, id, notes string) (*domain.UnassignedVehicle, error) {
	if s.reject != nil {
		return s.reject(ctx, tenantID, id, notes)
	}
	return nil, services.ErrUnassignedNotFound
}

func (s stubUnassignedSvc) Delete(ctx context.Context, tenantID, id string, cascadeProfile bool) (*domain.UnassignedVehicle, error) {
	if s.del != nil {
		return s.del(ctx, tenantID, id, cascadeProfile)
	}
	return nil, services.ErrUnassignedNotFound
}

func newTestHandlers(p ProfileService, hs HistoryService, cs CustomerService, us UnassignedService) *Handlers {
	if p == nil {
		p = stubProfileSvc{}
	}
	if hs == nil {
		hs = stubHistorySvc{}
	}
	if cs == nil {
		cs = stubCustomerSvc{}
	}
	if us == nil {
		us = stubUnassignedSvc{}
	}
	return New(p, hs, cs, us)
}
