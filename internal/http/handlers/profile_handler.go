// Profile reconciliation HTTP handlers.
//
// This file exposes REST endpoints for the merge engine:
//   - POST /profiles/reconcile        (merge one observation)
//   - GET  /profiles/{plate}/history  (audit ledger, paginated)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workshop-backend/internal/domain"
	"github.com/tbourn/go-workshop-backend/internal/http/middleware"
	"github.com/tbourn/go-workshop-backend/internal/services"
	"github.com/tbourn/go-workshop-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ProfileService defines the reconciliation operations consumed by HTTP
// handlers. Implementations should be safe for concurrent use and must honor
// the provided context for cancellation and timeouts.
type ProfileService interface {
	// Reconcile merges one observation into the tenant's profile for its plate.
	Reconcile(ctx context.Context, tenantID string, rec services.SourceRecord, opts services.MergeOptions) (*services.ReconcileResult, error)
}

// HistoryService exposes the append-only merge ledger.
type HistoryService interface {
	// ListPage returns a page of ledger rows for a plate, newest first.
	ListPage(ctx context.Context, tenantID, plate string, page, pageSize int) ([]domain.CustomerProfileHistory, int64, error)
}

// CustomerService defines profile lookup and tier operations.
type CustomerService interface {
	// SearchByPlate returns the profile for a plate.
	SearchByPlate(ctx context.Context, tenantID, plate string) (*domain.CustomerProfile, error)
	// ListPage returns a page of profiles and the total count.
	ListPage(ctx context.Context, tenantID, search string, page, pageSize int) ([]domain.CustomerProfile, int64, error)
	// UpdateTier sets the loyalty tier for a plate's profile.
	UpdateTier(ctx context.Context, tenantID, plate, tier string) error
}

// UnassignedService drives the unassigned-vehicle approval workflow.
type UnassignedService interface {
	Get(ctx context.Context, tenantID, id string) (*domain.UnassignedVehicle, error)
	ListPage(ctx context.Context, tenantID, status string, page, pageSize int) ([]domain.UnassignedVehicle, int64, error)
	Stats(ctx context.Context, tenantID string) (map[string]int64, error)
	Approve(ctx context.Context, tenantID, id, vehicleID, notes string) (*domain.UnassignedVehicle, error)
	Reject(ctx context.Context, tenantID, id, notes string) (*domain.UnassignedVehicle, error)
	Delete(ctx context.Context, tenantID, id string, cascadeProfile bool) (*domain.UnassignedVehicle, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for reconciliation, customers, history, and
// the unassigned-vehicle queue. It depends on abstract service interfaces to
// keep transport concerns separate from business logic.
type Handlers struct {
	profileSvc    ProfileService
	historySvc    HistoryService
	customerSvc   CustomerService
	unassignedSvc UnassignedService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(profileSvc ProfileService, historySvc HistoryService, customerSvc CustomerService, unassignedSvc UnassignedService) *Handlers {
	return &Handlers{
		profileSvc:    profileSvc,
		historySvc:    historySvc,
		customerSvc:   customerSvc,
		unassignedSvc: unassignedSvc,
	}
}

// tenantID extracts the tenant id from Gin context (set by the tenant
// middleware). An empty result means the middleware is not mounted; handlers
// treat that as a bad request rather than guessing a tenant.
func tenantID(c *gin.Context) string {
	if v, ok := c.Get("tenantID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if c != nil && c.Request != nil {
		return strings.TrimSpace(c.GetHeader("X-Tenant-ID"))
	}
	return ""
}

// requireTenant resolves the tenant or fails the request with 400.
func requireTenant(c *gin.Context) (string, bool) {
	t := tenantID(c)
	if t == "" {
		fail(c, http.StatusBadRequest, ErrCodeTenantRequired, "missing X-Tenant-ID header")
		return "", false
	}
	return t, true
}

//
// DTOs
//

// ReconcileOptions is the caller-controlled overwrite policy for one merge.
type ReconcileOptions struct {
	OverwriteCustomer bool `json:"overwriteCustomer"`
	OverwriteVehicle  bool `json:"overwriteVehicle"`
	OverwriteYear     bool `json:"overwriteYear"`
	OverwriteMileage  bool `json:"overwriteMileage"`
}

// ReconcileRequest is the JSON payload for a reconciliation call.
type ReconcileRequest struct {
	// Record is the observation to merge; plate is mandatory.
	Record services.SourceRecord `json:"record"`
	// Options control overwrite behavior; the zero value fills gaps only.
	Options ReconcileOptions `json:"options"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListHistoryResponse wraps a page of ledger rows and pagination information.
type ListHistoryResponse struct {
	History    []domain.CustomerProfileHistory `json:"history"`
	Pagination Pagination                      `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationFor assembles pagination metadata for a page of results.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// ReconcileProfile godoc
// @ID          reconcileProfile
// @Summary     Merge one customer/vehicle observation
// @Description Merges the record into the tenant's profile for its plate, creating the profile when absent. Returns the resulting profile, the action taken, and the diff.
// @Tags        Profiles
// @Accept      json
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       body         body    handlers.ReconcileRequest  true  "Observation and overwrite options"
//
// @Success     200  {object}  services.ReconcileResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profiles/reconcile [post]
func (h *Handlers) ReconcileProfile(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.profileSvc.Reconcile(c.Request.Context(), tenant, req.Record, services.MergeOptions{
		OverwriteCustomer: req.Options.OverwriteCustomer,
		OverwriteVehicle:  req.Options.OverwriteVehicle,
		OverwriteYear:     req.Options.OverwriteYear,
		OverwriteMileage:  req.Options.OverwriteMileage,
		Source:            "api",
	})
	if err != nil {
		switch err {
		case services.ErrPlateRequired:
			fail(c, http.StatusBadRequest, ErrCodePlateRequired, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeMergeFailed, err.Error())
		}
		return
	}
	middleware.ObserveMergeAction(res.Action)
	ok(c, http.StatusOK, res)
}

// ListProfileHistory godoc
// @ID          listProfileHistory
// @Summary     List the merge ledger for a plate (paginated)
// @Tags        Profiles
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       plate        path    string  true  "License plate"
// @Param       page         query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size    query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListHistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profiles/{plate}/history [get]
func (h *Handlers) ListProfileHistory(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	plate := strings.TrimSpace(c.Param("plate"))
	if plate == "" {
		fail(c, http.StatusBadRequest, ErrCodePlateRequired, "plate is required")
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.historySvc.ListPage(c.Request.Context(), tenant, plate, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListHistoryResponse{
		History:    items,
		Pagination: paginationFor(page, pageSize, total),
	})
}
