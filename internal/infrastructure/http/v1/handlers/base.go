// Package handlers implements the v1 API endpoints.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// TenantID extracts the tenant id resolved by the tenant middleware.
func (h *BaseHandler) TenantID(c *gin.Context) id.ID {
	if v, ok := c.Get("tenant_uuid"); ok {
		if tid, ok := v.(id.ID); ok {
			return tid
		}
	}
	return id.Nil()
}

// ParamID parses a UUID path parameter, reporting a validation error
// on failure.
func (h *BaseHandler) ParamID(c *gin.Context, name string) (id.ID, bool) {
	raw := c.Param(name)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+name).
			WithDetail("param", name).
			WithDetail("value", raw))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseID parses a UUID from a request body field, reporting a
// validation error on failure.
func (h *BaseHandler) ParseID(c *gin.Context, field, raw string) (id.ID, bool) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+field).
			WithDetail("field", field).
			WithDetail("value", raw))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseDate parses an ISO date string, reporting a validation error on
// failure.
func (h *BaseHandler) ParseDate(c *gin.Context, value string) (types.Date, bool) {
	d, err := types.ParseDate(value)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid date").
			WithDetail("value", value))
		return types.Date{}, false
	}
	return d, true
}
