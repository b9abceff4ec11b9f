package middleware

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// TenantHeader is the HTTP header for tenant identification.
const TenantHeader = "X-Tenant-ID"

// Tenant resolves the tenant from X-Tenant-ID and stores it in the request context.
// It must run before Auth so the token tenant can be checked against it.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			_ = c.Error(apperror.NewUnauthorized("tenant is required").
				WithDetail("header", TenantHeader))
			c.Abort()
			return
		}

		tenantID, err := id.Parse(raw)
		if err != nil || id.IsNil(tenantID) {
			_ = c.Error(apperror.NewValidation("invalid tenant id").
				WithDetail("header", TenantHeader).
				WithDetail("value", raw))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(tenant.WithID(c.Request.Context(), tenantID))
		c.Set("tenant_id", tenantID.String())

		c.Next()
	}
}
