// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, tenancy, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tbourn/go-workshop-backend/internal/config"
	"github.com/tbourn/go-workshop-backend/internal/domain"
	"github.com/tbourn/go-workshop-backend/internal/http/handlers"
	"github.com/tbourn/go-workshop-backend/internal/http/middleware"
	"github.com/tbourn/go-workshop-backend/internal/repo"
	"github.com/tbourn/go-workshop-backend/internal/services"
	"github.com/tbourn/go-workshop-backend/internal/sysutil"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// profileRepoShim adapts the repository free functions to the profile
// persistence interfaces expected by the services. This keeps services
// decoupled from the concrete repo package while reusing existing functions.
type profileRepoShim struct{}

// FindProfilesByPlate proxies repo.FindProfilesByPlate.
func (profileRepoShim) FindProfilesByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) ([]domain.CustomerProfile, error) {
	return repo.FindProfilesByPlate(ctx, db, tenantID, plate)
}

// CreateProfile proxies repo.CreateProfile.
func (profileRepoShim) CreateProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error {
	return repo.CreateProfile(ctx, db, p)
}

// SaveProfile proxies repo.SaveProfile.
func (profileRepoShim) SaveProfile(ctx context.Context, db *gorm.DB, p *domain.CustomerProfile) error {
	return repo.SaveProfile(ctx, db, p)
}

// DeleteProfiles proxies repo.DeleteProfiles.
func (profileRepoShim) DeleteProfiles(ctx context.Context, db *gorm.DB, tenantID string, ids []string) error {
	return repo.DeleteProfiles(ctx, db, tenantID, ids)
}

// SetProfileVehicle proxies repo.SetProfileVehicle (approval support).
func (profileRepoShim) SetProfileVehicle(ctx context.Context, db *gorm.DB, tenantID, profileID string, e domain.VehicleCatalogEntry, year *int) error {
	return repo.SetProfileVehicle(ctx, db, tenantID, profileID, e, year)
}

// historyRepoShim adapts the audit-ledger free functions to the history
// interfaces consumed by ProfileService and HistoryService.
type historyRepoShim struct{}

// AppendHistory proxies repo.AppendHistory.
func (historyRepoShim) AppendHistory(ctx context.Context, db *gorm.DB, h *domain.CustomerProfileHistory) error {
	return repo.AppendHistory(ctx, db, h)
}

// CountHistory proxies repo.CountHistory (pagination support).
func (historyRepoShim) CountHistory(ctx context.Context, db *gorm.DB, tenantID, plate string) (int64, error) {
	return repo.CountHistory(ctx, db, tenantID, plate)
}

// ListHistoryPage proxies repo.ListHistoryPage (pagination support).
func (historyRepoShim) ListHistoryPage(ctx context.Context, db *gorm.DB, tenantID, plate string, offset, limit int) ([]domain.CustomerProfileHistory, error) {
	return repo.ListHistoryPage(ctx, db, tenantID, plate, offset, limit)
}

// unassignedRepoShim adapts the pending-queue free functions to both the
// merge-side and workflow-side queue interfaces.
type unassignedRepoShim struct{}

// FindPendingByProfileOrPlate proxies repo.FindPendingByProfileOrPlate.
func (unassignedRepoShim) FindPendingByProfileOrPlate(ctx context.Context, db *gorm.DB, tenantID, profileID, plate string) (*domain.UnassignedVehicle, error) {
	return repo.FindPendingByProfileOrPlate(ctx, db, tenantID, profileID, plate)
}

// CreateUnassigned proxies repo.CreateUnassigned.
func (unassignedRepoShim) CreateUnassigned(ctx context.Context, db *gorm.DB, u *domain.UnassignedVehicle) error {
	return repo.CreateUnassigned(ctx, db, u)
}

// GetUnassigned proxies repo.GetUnassigned.
func (unassignedRepoShim) GetUnassigned(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.UnassignedVehicle, error) {
	return repo.GetUnassigned(ctx, db, tenantID, id)
}

// CountUnassigned proxies repo.CountUnassigned (pagination support).
func (unassignedRepoShim) CountUnassigned(ctx context.Context, db *gorm.DB, tenantID, status string) (int64, error) {
	return repo.CountUnassigned(ctx, db, tenantID, status)
}

// ListUnassignedPage proxies repo.ListUnassignedPage (pagination support).
func (unassignedRepoShim) ListUnassignedPage(ctx context.Context, db *gorm.DB, tenantID, status string, offset, limit int) ([]domain.UnassignedVehicle, error) {
	return repo.ListUnassignedPage(ctx, db, tenantID, status, offset, limit)
}

// CountUnassignedByStatus proxies repo.CountUnassignedByStatus.
func (unassignedRepoShim) CountUnassignedByStatus(ctx context.Context, db *gorm.DB, tenantID string) (map[string]int64, error) {
	return repo.CountUnassignedByStatus(ctx, db, tenantID)
}

// TransitionUnassigned proxies repo.TransitionUnassigned.
func (unassignedRepoShim) TransitionUnassigned(ctx context.Context, db *gorm.DB, tenantID, id, status, notes string) error {
	return repo.TransitionUnassigned(ctx, db, tenantID, id, status, notes)
}

// customerRepoShim adapts the profile read/update free functions to the
// services.CustomerRepo interface.
type customerRepoShim struct{}

// GetProfileByPlate proxies repo.GetProfileByPlate.
func (customerRepoShim) GetProfileByPlate(ctx context.Context, db *gorm.DB, tenantID, plate string) (*domain.CustomerProfile, error) {
	return repo.GetProfileByPlate(ctx, db, tenantID, plate)
}

// CountProfiles proxies repo.CountProfiles (pagination support).
func (customerRepoShim) CountProfiles(ctx context.Context, db *gorm.DB, tenantID, search string) (int64, error) {
	return repo.CountProfiles(ctx, db, tenantID, search)
}

// ListProfilesPage proxies repo.ListProfilesPage (pagination support).
func (customerRepoShim) ListProfilesPage(ctx context.Context, db *gorm.DB, tenantID, search string, offset, limit int) ([]domain.CustomerProfile, error) {
	return repo.ListProfilesPage(ctx, db, tenantID, search, offset, limit)
}

// UpdateProfileTier proxies repo.UpdateProfileTier.
func (customerRepoShim) UpdateProfileTier(ctx context.Context, db *gorm.DB, tenantID, plate, tier string) error {
	return repo.UpdateProfileTier(ctx, db, tenantID, plate, tier)
}

// vehicleRepoShim adapts the catalog read free functions to the
// services.VehicleCatalogRepo interface.
type vehicleRepoShim struct{}

// GetActiveVehicle proxies repo.GetActiveVehicle.
func (vehicleRepoShim) GetActiveVehicle(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.VehicleCatalogEntry, error) {
	return repo.GetActiveVehicle(ctx, db, tenantID, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), tenancy and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per tenant/IP)
//  8. CORS and Security headers
//  9. Tenant resolution (API group only)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	sysutil.SetLogLevel(cfg.LogLevel)

	// 1) Trace all HTTP requests, and SQL when the exporter is on
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin not installed")
		}
	}

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Plates and free-text search terms
	// are direct identifiers here, so their query params are fully masked.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
		MaskQueryParams: []string{"plate", "search"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per tenant/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByTenantOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderTenantID},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderTenantID},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db
	profileSvc := services.NewProfileService(db, profileRepoShim{}, historyRepoShim{}, unassignedRepoShim{})
	historySvc := services.NewHistoryService(db, historyRepoShim{})
	customerSvc := services.NewCustomerService(db, customerRepoShim{})
	unassignedSvc := services.NewUnassignedService(db, unassignedRepoShim{}, vehicleRepoShim{}, profileRepoShim{})
	h := handlers.New(profileSvc, historySvc, customerSvc, unassignedSvc)

	// Public API (every endpoint is tenant-scoped)
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.Tenant())
	{
		// Profiles
		api.POST("/profiles/reconcile", h.ReconcileProfile)
		api.GET("/profiles/:plate/history", h.ListProfileHistory)

		// Customers
		api.GET("/customers/search", h.SearchCustomer)
		api.GET("/customers", h.ListCustomers)
		api.GET("/customers/:plate/tier", h.GetCustomerTier)
		api.PUT("/customers/:plate/tier", h.UpdateCustomerTier)

		// Unassigned-vehicle queue
		api.GET("/unassigned-vehicles", h.ListUnassignedVehicles)
		api.GET("/unassigned-vehicles/stats", h.UnassignedVehicleStats)
		api.GET("/unassigned-vehicles/:id", h.GetUnassignedVehicle)
		api.POST("/unassigned-vehicles/:id/approve", h.ApproveUnassignedVehicle)
		api.POST("/unassigned-vehicles/:id/reject", h.RejectUnassignedVehicle)
		api.DELETE("/unassigned-vehicles/:id", h.DeleteUnassignedVehicle)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
