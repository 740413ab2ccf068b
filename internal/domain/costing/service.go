package costing

import (
	"context"
	"fmt"

	"gasledger/internal/core/anomaly"
	"gasledger/internal/core/id"
	"gasledger/internal/core/tx"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/events"
	"gasledger/pkg/logger"
)

// Service loads purchase and sale facts and runs the FIFO consumption.
type Service struct {
	sales     events.SaleRepository
	shipments events.ShipmentRepository
	txm       tx.ReadOnlyManager
}

// NewService creates a FIFO cost engine service.
func NewService(sales events.SaleRepository, shipments events.ShipmentRepository, txm tx.ReadOnlyManager) *Service {
	return &Service{sales: sales, shipments: shipments, txm: txm}
}

// Result is the consumption outcome plus anomalies.
type Result struct {
	Consumption Consumption
	Report      anomaly.Report
}

// ComputeCOGS computes cost of goods sold and average buying price for
// a product through asOf.
func (s *Service) ComputeCOGS(ctx context.Context, tenantID, productID id.ID, asOf types.Date) (*Result, error) {
	var result *Result

	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		purchases, err := s.shipments.ListPurchasesThrough(ctx, tenantID, productID, asOf)
		if err != nil {
			return fmt.Errorf("list purchases: %w", err)
		}
		sales, err := s.sales.ListByProductThrough(ctx, tenantID, productID, asOf)
		if err != nil {
			return fmt.Errorf("list sales: %w", err)
		}

		lots := make([]Lot, 0, len(purchases))
		for _, b := range purchases {
			lots = append(lots, Lot{
				BatchID:   b.ID,
				Date:      b.ShipmentDate,
				Quantity:  b.Quantity,
				Remaining: b.Quantity,
				UnitCost:  b.UnitCost,
			})
		}

		quantities := make([]types.Count, 0, len(sales))
		for _, sale := range sales {
			quantities = append(quantities, sale.Quantity)
		}

		result = &Result{Consumption: Consume(lots, quantities)}
		if result.Consumption.Shortfall > 0 {
			result.Report.Add(anomaly.NewInsufficientInventory(productID.String(), result.Consumption.Shortfall.Int64()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "fifo cogs computed",
		"product_id", productID,
		"as_of", asOf.String(),
		"total_cogs", result.Consumption.TotalCOGS.String(),
		"units_sold", result.Consumption.UnitsSold.Int64(),
		"shortfall", result.Consumption.Shortfall.Int64(),
	)

	return result, nil
}
