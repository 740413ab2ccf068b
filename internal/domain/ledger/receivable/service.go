package receivable

import (
	"context"
	"fmt"
	"time"

	"gasledger/internal/core/anomaly"
	"gasledger/internal/core/id"
	"gasledger/internal/core/tx"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/events"
	"gasledger/pkg/logger"
)

// Service recomputes and serves driver receivable balances.
type Service struct {
	repo  Repository
	sales events.SaleRepository
	txm   tx.Manager
}

// NewService creates a new receivables ledger service.
func NewService(repo Repository, sales events.SaleRepository, txm tx.Manager) *Service {
	return &Service{repo: repo, sales: sales, txm: txm}
}

// Result is the recomputed balance plus anomalies.
type Result struct {
	Balance Balance
	Report  anomaly.Report
}

// Recompute computes and upserts one driver's receivable balance for one
// day. Idempotent: re-running with unchanged facts produces the same
// closing values.
func (s *Service) Recompute(ctx context.Context, tenantID, driverID id.ID, date types.Date) (*Result, error) {
	sales, err := s.sales.ListByDriverDate(ctx, tenantID, driverID, date)
	if err != nil {
		return nil, fmt.Errorf("list driver sales: %w", err)
	}

	prior, err := s.resolvePrior(ctx, tenantID, driverID, date)
	if err != nil {
		return nil, err
	}

	activity := SumSales(sales)
	balance := computeBalance(tenantID, driverID, date, prior, activity, time.Now().UTC())

	result := &Result{Balance: balance}

	// Zero-noise rule: a driver with no history and no activity gets no
	// row materialized.
	if prior == nil && activity.IsZero() {
		return result, nil
	}

	if balance.ClosingCash.IsNegative() {
		result.Report.Add(anomaly.NewNegativeReceivable(driverID.String(), "cash", balance.ClosingCash.String()))
	}
	if balance.ClosingCylinder.IsNegative() {
		result.Report.Add(anomaly.NewNegativeReceivable(driverID.String(), "cylinders", balance.ClosingCylinder.String()))
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Upsert(ctx, balance)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert receivable balance: %w", err)
	}

	logger.Info(ctx, "receivables recomputed",
		"driver_id", driverID,
		"date", date.String(),
		"closing_cash", balance.ClosingCash.String(),
		"closing_cylinder", balance.ClosingCylinder.Int64(),
		"anomalies", result.Report.Len(),
	)

	return result, nil
}

// Current returns the driver's latest balance, or a zero balance if the
// driver has none.
func (s *Service) Current(ctx context.Context, tenantID, driverID id.ID) (*Balance, error) {
	b, err := s.repo.GetCurrent(ctx, tenantID, driverID)
	if err != nil {
		return nil, fmt.Errorf("current receivable: %w", err)
	}
	if b == nil {
		return &Balance{TenantID: tenantID, DriverID: driverID}, nil
	}
	return b, nil
}

// resolvePrior finds the balance the day's deltas apply to: the most
// recent balance on or before date-1, falling back to the earliest ever
// recorded. The fallback models the onboarding anchor, where the first
// balance row is itself the opening position.
func (s *Service) resolvePrior(ctx context.Context, tenantID, driverID id.ID, date types.Date) (*Balance, error) {
	prior, err := s.repo.GetLatestOnOrBefore(ctx, tenantID, driverID, date.Prev())
	if err != nil {
		return nil, fmt.Errorf("prior receivable balance: %w", err)
	}
	if prior != nil {
		return prior, nil
	}

	earliest, err := s.repo.GetEarliest(ctx, tenantID, driverID)
	if err != nil {
		return nil, fmt.Errorf("earliest receivable balance: %w", err)
	}
	// earliest may still be nil for a driver with no history at all;
	// the day's deltas then stand alone. A row for the requested date
	// itself is a previous run's output, not an anchor: anchoring on it
	// would re-apply the day's deltas on every rerun.
	if earliest != nil && earliest.Date.Equal(date) {
		return nil, nil
	}
	return earliest, nil
}

// SumSales aggregates a day's sale events into receivable activity.
func SumSales(sales []*events.SaleEvent) DayActivity {
	var a DayActivity
	a.Revenue = types.ZeroMoney()
	a.CashDeposited = types.ZeroMoney()
	a.Discount = types.ZeroMoney()

	for _, sale := range sales {
		a.Revenue = a.Revenue.Add(sale.Revenue())
		a.CashDeposited = a.CashDeposited.Add(sale.CashDeposited)
		a.Discount = a.Discount.Add(sale.Discount)
		a.RefillQty += sale.RefillQuantity()
		a.CylindersDeposited += sale.CylindersDeposited
	}
	return a
}

func computeBalance(tenantID, driverID id.ID, date types.Date, prior *Balance, activity DayActivity, now time.Time) Balance {
	openingCash := types.ZeroMoney()
	var openingCylinder types.Count
	if prior != nil {
		openingCash = prior.ClosingCash
		openingCylinder = prior.ClosingCylinder
	}

	cashChange := activity.CashChange()
	cylinderChange := activity.CylinderChange()

	return Balance{
		TenantID:        tenantID,
		DriverID:        driverID,
		Date:            date,
		CashChange:      cashChange,
		CylinderChange:  cylinderChange,
		ClosingCash:     openingCash.Add(cashChange),
		ClosingCylinder: openingCylinder + cylinderChange,
		ComputedAt:      now,
	}
}
