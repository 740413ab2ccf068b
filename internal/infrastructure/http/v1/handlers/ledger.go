package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
	"gasledger/internal/domain/recompute"
	"gasledger/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves recomputation triggers and ledger read paths.
type LedgerHandler struct {
	BaseHandler
	stocks      *stock.Service
	receivables *receivable.Service
	runner      *recompute.Runner
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(stocks *stock.Service, receivables *receivable.Service, runner *recompute.Runner) *LedgerHandler {
	return &LedgerHandler{stocks: stocks, receivables: receivables, runner: runner}
}

// RecomputeStock recomputes the tenant's stock ledger for one day.
// POST /ledger/stock/recompute
func (h *LedgerHandler) RecomputeStock(c *gin.Context) {
	var req dto.RecomputeStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, req.Date)
	if !ok {
		return
	}

	result, err := h.stocks.Recompute(c.Request.Context(), h.TenantID(c), date,
		stock.RecomputeOptions{IncludeIdle: req.IncludeIdle})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RecomputeStockResponse{
		Balances:      result.Balances,
		EmptyBalances: result.EmptyBalances,
		Anomalies:     dto.Anomalies(result.Report),
	})
}

// RecomputeReceivable recomputes one driver's receivable for one day.
// POST /ledger/receivables/:driverID/recompute
func (h *LedgerHandler) RecomputeReceivable(c *gin.Context) {
	driverID, ok := h.ParamID(c, "driverID")
	if !ok {
		return
	}

	var req dto.RecomputeReceivableRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, req.Date)
	if !ok {
		return
	}

	result, err := h.receivables.Recompute(c.Request.Context(), h.TenantID(c), driverID, date)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RecomputeReceivableResponse{
		Balance:   result.Balance,
		Anomalies: dto.Anomalies(result.Report),
	})
}

// RunTenant runs the full reconciliation for the tenant on one day.
// POST /ledger/recompute
func (h *LedgerHandler) RunTenant(c *gin.Context) {
	var req dto.RunBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, ok := h.ParseDate(c, req.Date)
	if !ok {
		return
	}

	result, err := h.runner.RunTenant(c.Request.Context(), h.TenantID(c), date)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RunBatchResponse{
		Tenants:     1,
		Units:       result.Units,
		FailedUnits: result.FailedUnits,
		Failures:    result.Failures,
	})
}

// CurrentStock returns the product's latest full-cylinder balance.
// GET /ledger/stock/:productID/current
func (h *LedgerHandler) CurrentStock(c *gin.Context) {
	productID, ok := h.ParamID(c, "productID")
	if !ok {
		return
	}

	balance, err := h.stocks.CurrentLevel(c.Request.Context(), h.TenantID(c), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// CurrentEmptyStock returns the size's latest empty-cylinder balance.
// GET /ledger/empties/:sizeID/current
func (h *LedgerHandler) CurrentEmptyStock(c *gin.Context) {
	sizeID, ok := h.ParamID(c, "sizeID")
	if !ok {
		return
	}

	balance, err := h.stocks.CurrentSizeBreakdown(c.Request.Context(), h.TenantID(c), sizeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// CurrentReceivable returns the driver's latest receivable position.
// GET /ledger/receivables/:driverID/current
func (h *LedgerHandler) CurrentReceivable(c *gin.Context) {
	driverID, ok := h.ParamID(c, "driverID")
	if !ok {
		return
	}

	balance, err := h.receivables.Current(c.Request.Context(), h.TenantID(c), driverID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}
