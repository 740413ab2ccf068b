package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/reqctx"
	"gasledger/internal/core/tenant"
	"gasledger/pkg/logger"
)

// TenantHeader is the HTTP header for tenant identification.
const TenantHeader = "X-Tenant-ID"

// Tenant middleware resolves the tenant from the header, verifies it is
// active, and stamps the tenant id into the request context. Runs
// before any handler touching tenant data.
func Tenant(registry tenant.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rawTenantID := c.GetHeader(TenantHeader)
		if rawTenantID == "" {
			_ = c.Error(
				apperror.NewValidation("tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		tenantID, err := uuid.Parse(rawTenantID)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", rawTenantID),
			)
			c.Abort()
			return
		}

		t, err := registry.RequireActive(ctx, tenantID)
		if err != nil {
			logger.Warn(ctx, "tenant resolution failed", "tenant_id", tenantID, "error", err)

			switch {
			case errors.Is(err, tenant.ErrTenantNotFound):
				_ = c.Error(apperror.NewUnknownTenant(rawTenantID))
			case errors.Is(err, tenant.ErrTenantNotActive):
				_ = c.Error(apperror.NewUnknownTenant(rawTenantID).
					WithDetail("reason", "tenant is not active"))
			default:
				_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", rawTenantID))
			}
			c.Abort()
			return
		}

		ctx = reqctx.WithTenant(ctx, t.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_uuid", t.ID)

		c.Next()
	}
}
