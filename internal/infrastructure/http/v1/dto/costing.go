package dto

import "gasledger/internal/core/types"

// COGSResponse carries FIFO cost figures for one product.
type COGSResponse struct {
	ProductID          string            `json:"productId"`
	AsOf               types.Date        `json:"asOf"`
	TotalCOGS          types.Money       `json:"totalCogs"`
	UnitsSold          types.Count       `json:"unitsSold"`
	AverageBuyingPrice types.Money       `json:"averageBuyingPrice"`
	Shortfall          types.Count       `json:"shortfall"`
	Anomalies          []AnomalyResponse `json:"anomalies"`
}
