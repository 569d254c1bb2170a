// Unassigned-vehicle HTTP handlers.
//
// This file exposes the operator workflow over the pending queue:
//   - GET    /unassigned-vehicles               (list, paginated, status filter)
//   - GET    /unassigned-vehicles/stats         (per-status totals)
//   - GET    /unassigned-vehicles/{id}          (inspect one record)
//   - POST   /unassigned-vehicles/{id}/approve  (link profile to a catalog entry)
//   - POST   /unassigned-vehicles/{id}/reject   (discard the suggestion)
//   - DELETE /unassigned-vehicles/{id}          (drop, optionally with the profile)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workshop-backend/internal/domain"
	"github.com/tbourn/go-workshop-backend/internal/services"
)

// ListUnassignedResponse wraps a page of queue records and pagination info.
type ListUnassignedResponse struct {
	UnassignedVehicles []domain.UnassignedVehicle `json:"unassignedVehicles"`
	Pagination         Pagination                 `json:"pagination"`
}

// ApproveUnassignedRequest is the JSON payload for an approval.
type ApproveUnassignedRequest struct {
	// VehicleID names the catalog entry to apply; when empty the stored
	// suggestion is used.
	VehicleID string `json:"vehicleId"`
	// Notes is an optional operator comment kept on the record.
	Notes string `json:"notes"`
}

// RejectUnassignedRequest is the JSON payload for a rejection.
type RejectUnassignedRequest struct {
	Notes string `json:"notes"`
}

// validStatusFilter reports whether the status query value is usable.
func validStatusFilter(s string) bool {
	switch s {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusDeleted:
		return true
	}
	return false
}

// ListUnassignedVehicles godoc
// @ID          listUnassignedVehicles
// @Summary     List unassigned vehicles (paginated)
// @Tags        UnassignedVehicles
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       status       query   string  false "Filter by status"  Enums(pending, approved, rejected, deleted)
// @Param       page         query   int     false "Page number"       minimum(1) default(1)
// @Param       page_size    query   int     false "Items per page"    minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUnassignedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /unassigned-vehicles [get]
func (h *Handlers) ListUnassignedVehicles(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	status := strings.TrimSpace(c.Query("status"))
	if !validStatusFilter(status) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.unassignedSvc.ListPage(c.Request.Context(), tenant, status, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListUnassignedResponse{
		UnassignedVehicles: items,
		Pagination:         paginationFor(page, pageSize, total),
	})
}

// UnassignedVehicleStats godoc
// @ID          unassignedVehicleStats
// @Summary     Per-status queue totals
// @Tags        UnassignedVehicles
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
//
// @Success     200  {object}  map[string]int64
// @Router      /unassigned-vehicles/stats [get]
func (h *Handlers) UnassignedVehicleStats(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	stats, err := h.unassignedSvc.Stats(c.Request.Context(), tenant)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// GetUnassignedVehicle godoc
// @ID          getUnassignedVehicle
// @Summary     Inspect one unassigned vehicle
// @Tags        UnassignedVehicles
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       id           path    string  true  "Record ID"
//
// @Success     200  {object}  domain.UnassignedVehicle
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /unassigned-vehicles/{id} [get]
func (h *Handlers) GetUnassignedVehicle(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	u, err := h.unassignedSvc.Get(c.Request.Context(), tenant, c.Param("id"))
	if err != nil {
		h.failUnassigned(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// ApproveUnassignedVehicle godoc
// @ID          approveUnassignedVehicle
// @Summary     Approve an unassigned vehicle
// @Description Links the record's profile to the named catalog entry (or the stored suggestion) and marks the record approved.
// @Tags        UnassignedVehicles
// @Accept      json
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       id           path    string  true  "Record ID"
// @Param       body         body    handlers.ApproveUnassignedRequest  false  "Target vehicle and notes"
//
// @Success     200  {object}  domain.UnassignedVehicle
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Not pending"
// @Router      /unassigned-vehicles/{id}/approve [post]
func (h *Handlers) ApproveUnassignedVehicle(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	var req ApproveUnassignedRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	u, err := h.unassignedSvc.Approve(c.Request.Context(), tenant, c.Param("id"),
		strings.TrimSpace(req.VehicleID), strings.TrimSpace(req.Notes))
	if err != nil {
		h.failUnassigned(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// RejectUnassignedVehicle godoc
// @ID          rejectUnassignedVehicle
// @Summary     Reject an unassigned vehicle
// @Tags        UnassignedVehicles
// @Accept      json
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       id           path    string  true  "Record ID"
// @Param       body         body    handlers.RejectUnassignedRequest  false  "Operator notes"
//
// @Success     200  {object}  domain.UnassignedVehicle
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Not pending"
// @Router      /unassigned-vehicles/{id}/reject [post]
func (h *Handlers) RejectUnassignedVehicle(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	var req RejectUnassignedRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	u, err := h.unassignedSvc.Reject(c.Request.Context(), tenant, c.Param("id"), strings.TrimSpace(req.Notes))
	if err != nil {
		h.failUnassigned(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUnassignedVehicle godoc
// @ID          deleteUnassignedVehicle
// @Summary     Delete an unassigned vehicle
// @Description Marks the record deleted. With ?deleteProfile=true the owning profile row is removed too; its history always survives.
// @Tags        UnassignedVehicles
// @Produce     json
//
// @Param       X-Tenant-ID      header  string  true   "Tenant ID"
// @Param       id               path    string  true   "Record ID"
// @Param       deleteProfile  query   bool    false  "Also remove the owning profile"
//
// @Success     200  {object}  domain.UnassignedVehicle
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Not pending"
// @Router      /unassigned-vehicles/{id} [delete]
func (h *Handlers) DeleteUnassignedVehicle(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	cascade := strings.EqualFold(c.Query("deleteProfile"), "true")

	u, err := h.unassignedSvc.Delete(c.Request.Context(), tenant, c.Param("id"), cascade)
	if err != nil {
		h.failUnassigned(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// failUnassigned maps workflow errors to HTTP responses.
func (h *Handlers) failUnassigned(c *gin.Context, err error) {
	switch err {
	case services.ErrUnassignedNotFound, services.ErrProfileNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case services.ErrVehicleNotFound:
		fail(c, http.StatusNotFound, ErrCodeVehicleNotFound, err.Error())
	case services.ErrNotPending:
		fail(c, http.StatusConflict, ErrCodeNotPending, err.Error())
	case services.ErrNoTargetVehicle:
		fail(c, http.StatusBadRequest, ErrCodeNoTargetVehicle, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
