package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gasledger/internal/core/types"
	"gasledger/internal/domain/allocation"
	"gasledger/internal/infrastructure/http/v1/dto"
)

// AllocationHandler serves the size allocation read path and baseline
// maintenance.
type AllocationHandler struct {
	BaseHandler
	engine *allocation.Engine
}

// NewAllocationHandler creates a new allocation handler.
func NewAllocationHandler(engine *allocation.Engine) *AllocationHandler {
	return &AllocationHandler{engine: engine}
}

// AllocateBySize returns the driver's per-size cylinder breakdown.
// GET /allocations/:driverID
func (h *AllocationHandler) AllocateBySize(c *gin.Context) {
	driverID, ok := h.ParamID(c, "driverID")
	if !ok {
		return
	}

	result, err := h.engine.AllocateBySize(c.Request.Context(), h.TenantID(c), driverID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AllocationResponse{
		BySize:    result.BySize,
		Strategy:  result.Strategy,
		Anomalies: dto.Anomalies(result.Report),
	})
}

// SeedBaselines establishes a driver's baselines (onboarding).
// POST /allocations/:driverID/baselines
func (h *AllocationHandler) SeedBaselines(c *gin.Context) {
	driverID, ok := h.ParamID(c, "driverID")
	if !ok {
		return
	}

	var req dto.SeedBaselinesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tenantID := h.TenantID(c)
	baselines := make([]allocation.Baseline, 0, len(req.Baselines))
	for _, b := range req.Baselines {
		sizeID, ok := h.ParseID(c, "cylinderSizeId", b.CylinderSizeID)
		if !ok {
			return
		}
		baselines = append(baselines, allocation.Baseline{
			TenantID:       tenantID,
			DriverID:       driverID,
			CylinderSizeID: sizeID,
			Quantity:       types.Count(b.Quantity),
		})
	}

	if err := h.engine.Seed(c.Request.Context(), baselines); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// CorrectBaseline replaces a single baseline.
// PUT /allocations/:driverID/baselines/:sizeID
func (h *AllocationHandler) CorrectBaseline(c *gin.Context) {
	driverID, ok := h.ParamID(c, "driverID")
	if !ok {
		return
	}
	sizeID, ok := h.ParamID(c, "sizeID")
	if !ok {
		return
	}

	var req dto.CorrectBaselineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.engine.Correct(c.Request.Context(), allocation.Baseline{
		TenantID:       h.TenantID(c),
		DriverID:       driverID,
		CylinderSizeID: sizeID,
		Quantity:       types.Count(req.Quantity),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
