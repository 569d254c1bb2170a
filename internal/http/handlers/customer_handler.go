// Customer HTTP handlers.
//
// This file exposes REST endpoints for customer profiles:
//   - GET /customers/search          (lookup by plate)
//   - GET /customers                 (list, paginated, free-text search)
//   - GET /customers/{plate}/tier    (loyalty tier read)
//   - PUT /customers/{plate}/tier    (loyalty tier update)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workshop-backend/internal/domain"
	"github.com/tbourn/go-workshop-backend/internal/services"
)

// ListCustomersResponse wraps a page of profiles and pagination information.
type ListCustomersResponse struct {
	Customers  []domain.CustomerProfile `json:"customers"`
	Pagination Pagination               `json:"pagination"`
}

// UpdateTierRequest is the JSON payload for a loyalty tier update.
type UpdateTierRequest struct {
	// Tier is the new loyalty tier ("General" or "GOLD").
	Tier string `json:"tier" binding:"required" example:"GOLD"`
}

// SearchCustomer godoc
// @ID          searchCustomer
// @Summary     Look up a customer profile by plate
// @Tags        Customers
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       plate        query   string  true  "License plate"
//
// @Success     200  {object}  domain.CustomerProfile
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /customers/search [get]
func (h *Handlers) SearchCustomer(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	plate := strings.TrimSpace(c.Query("plate"))

	p, err := h.customerSvc.SearchByPlate(c.Request.Context(), tenant, plate)
	if err != nil {
		switch err {
		case services.ErrPlateRequired:
			fail(c, http.StatusBadRequest, ErrCodePlateRequired, err.Error())
		case services.ErrProfileNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, p)
}

// ListCustomers godoc
// @ID          listCustomers
// @Summary     List customer profiles (paginated)
// @Description Returns a page of the tenant's profiles ordered by plate. The optional search term matches plate, name, phone, and id number.
// @Tags        Customers
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       search       query   string  false "Free-text search"
// @Param       page         query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size    query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListCustomersResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /customers [get]
func (h *Handlers) ListCustomers(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	page, pageSize := clampPagination(c)
	search := strings.TrimSpace(c.Query("search"))

	items, total, err := h.customerSvc.ListPage(c.Request.Context(), tenant, search, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListCustomersResponse{
		Customers:  items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// TierResponse is the thin read projection returned by GetCustomerTier.
type TierResponse struct {
	Plate string `json:"plate" example:"ABC123"`
	Tier  string `json:"tier"  example:"GOLD"`
}

// GetCustomerTier godoc
// @ID          getCustomerTier
// @Summary     Read a customer's loyalty tier
// @Tags        Customers
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       plate        path    string  true  "License plate"
//
// @Success     200  {object}  handlers.TierResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /customers/{plate}/tier [get]
func (h *Handlers) GetCustomerTier(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}

	p, err := h.customerSvc.SearchByPlate(c.Request.Context(), tenant, c.Param("plate"))
	if err != nil {
		switch err {
		case services.ErrPlateRequired:
			fail(c, http.StatusBadRequest, ErrCodePlateRequired, err.Error())
		case services.ErrProfileNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, TierResponse{Plate: p.Plate, Tier: p.Tier})
}

// UpdateCustomerTier godoc
// @ID          updateCustomerTier
// @Summary     Update a customer's loyalty tier
// @Tags        Customers
// @Accept      json
// @Produce     json
//
// @Param       X-Tenant-ID  header  string  true  "Tenant ID"
// @Param       plate        path    string  true  "License plate"
// @Param       body         body    handlers.UpdateTierRequest  true  "New tier"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /customers/{plate}/tier [put]
func (h *Handlers) UpdateCustomerTier(c *gin.Context) {
	tenant, okT := requireTenant(c)
	if !okT {
		return
	}
	var req UpdateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.customerSvc.UpdateTier(c.Request.Context(), tenant, c.Param("plate"), strings.TrimSpace(req.Tier))
	if err != nil {
		switch err {
		case services.ErrInvalidTier:
			fail(c, http.StatusBadRequest, ErrCodeInvalidTier, err.Error())
		case services.ErrPlateRequired:
			fail(c, http.StatusBadRequest, ErrCodePlateRequired, err.Error())
		case services.ErrProfileNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
