package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gasledger/internal/core/types"
	"gasledger/internal/domain/costing"
	"gasledger/internal/infrastructure/http/v1/dto"
)

// CostingHandler serves the FIFO cost read path.
type CostingHandler struct {
	BaseHandler
	costs *costing.Service
}

// NewCostingHandler creates a new costing handler.
func NewCostingHandler(costs *costing.Service) *CostingHandler {
	return &CostingHandler{costs: costs}
}

// ComputeCOGS returns cost of goods sold and average buying price for a
// product. The as_of query defaults to today.
// GET /costing/:productID?as_of=2026-08-31
func (h *CostingHandler) ComputeCOGS(c *gin.Context) {
	productID, ok := h.ParamID(c, "productID")
	if !ok {
		return
	}

	asOf := types.NewDate(time.Now())
	if raw := c.Query("as_of"); raw != "" {
		if asOf, ok = h.ParseDate(c, raw); !ok {
			return
		}
	}

	result, err := h.costs.ComputeCOGS(c.Request.Context(), h.TenantID(c), productID, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	cons := result.Consumption
	c.JSON(http.StatusOK, dto.COGSResponse{
		ProductID:          productID.String(),
		AsOf:               asOf,
		TotalCOGS:          cons.TotalCOGS,
		UnitsSold:          cons.UnitsSold,
		AverageBuyingPrice: cons.AverageBuyingPrice,
		Shortfall:          cons.Shortfall,
		Anomalies:          dto.Anomalies(result.Report),
	})
}
