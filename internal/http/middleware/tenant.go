// Tenant resolution middleware.
//
// Every API request must name the workshop tenant it operates on; all
// persistence below the HTTP layer is tenant-scoped and cross-tenant access
// is never allowed. The tenant rides in the X-Tenant-ID header, set by the
// upstream gateway after authentication.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// tenantIDKey is the Gin context key under which the tenant ID is stored.
	tenantIDKey = "tenantID"
	// HeaderTenantID is the HTTP header carrying the tenant identifier.
	HeaderTenantID = "X-Tenant-ID"
	// maxTenantIDLen bounds the accepted header value.
	maxTenantIDLen = 64
)

// Tenant extracts and validates the tenant identifier, storing it in the Gin
// context for handlers and the logging middleware. Requests without a usable
// tenant are rejected with 400 before reaching any handler.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tid := strings.TrimSpace(c.GetHeader(HeaderTenantID))
		if tid == "" || len(tid) > maxTenantIDLen {
			rid := c.Writer.Header().Get("X-Request-ID")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": rid,
				"code":       "tenant_required",
				"message":    "missing or invalid X-Tenant-ID header",
			})
			return
		}
		c.Set(tenantIDKey, tid)
		c.Next()
	}
}

// TenantFrom returns the tenant ID stored by Tenant(), or "" when absent.
func TenantFrom(c *gin.Context) string {
	if v, ok := c.Get(tenantIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
