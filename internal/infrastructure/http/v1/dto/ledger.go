package dto

import (
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
)

// RecomputeStockRequest triggers a stock ledger recomputation.
type RecomputeStockRequest struct {
	Date        string `json:"date" binding:"required"`
	IncludeIdle bool   `json:"includeIdle"`
}

// RecomputeStockResponse carries the recomputed balances.
type RecomputeStockResponse struct {
	Balances      []stock.Balance      `json:"balances"`
	EmptyBalances []stock.EmptyBalance `json:"emptyBalances"`
	Anomalies     []AnomalyResponse    `json:"anomalies"`
}

// RecomputeReceivableRequest triggers one driver's receivable
// recomputation.
type RecomputeReceivableRequest struct {
	Date string `json:"date" binding:"required"`
}

// RecomputeReceivableResponse carries the recomputed balance.
type RecomputeReceivableResponse struct {
	Balance   receivable.Balance `json:"balance"`
	Anomalies []AnomalyResponse  `json:"anomalies"`
}

// RunBatchRequest triggers a batch reconciliation run.
type RunBatchRequest struct {
	Date string `json:"date" binding:"required"`
}

// RunBatchResponse summarizes a batch run.
type RunBatchResponse struct {
	Tenants     int      `json:"tenants"`
	Skipped     int      `json:"skipped"`
	Units       int      `json:"units"`
	FailedUnits int      `json:"failedUnits"`
	Failures    []string `json:"failures,omitempty"`
}
