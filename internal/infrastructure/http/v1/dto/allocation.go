package dto

import "gasledger/internal/core/types"

// AllocationResponse is a driver's per-size cylinder breakdown.
type AllocationResponse struct {
	BySize    map[string]types.Count `json:"bySize"`
	Strategy  string                 `json:"strategy"`
	Anomalies []AnomalyResponse      `json:"anomalies"`
}

// BaselineEntry is one size quantity in a seed request.
type BaselineEntry struct {
	CylinderSizeID string `json:"cylinderSizeId" binding:"required"`
	Quantity       int64  `json:"quantity"`
}

// SeedBaselinesRequest establishes a driver's baselines.
type SeedBaselinesRequest struct {
	Baselines []BaselineEntry `json:"baselines" binding:"required,min=1"`
}

// CorrectBaselineRequest replaces one baseline quantity.
type CorrectBaselineRequest struct {
	Quantity int64 `json:"quantity"`
}
