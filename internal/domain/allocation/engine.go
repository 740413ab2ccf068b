package allocation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gasledger/internal/core/anomaly"
	"gasledger/internal/core/id"
	"gasledger/internal/core/tx"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/internal/domain/catalogs/product"
	"gasledger/internal/domain/events"
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
	"gasledger/pkg/logger"
)

// Engine resolves a driver's per-size cylinder receivable breakdown.
// Pure read computation: it mutates nothing and runs inside a read-only
// transaction for a consistent snapshot.
type Engine struct {
	baselines   BaselineRepository
	sales       events.SaleRepository
	products    product.Repository
	sizes       cylindersize.Repository
	receivables receivable.Repository
	stocks      stock.Repository
	txm         tx.ReadOnlyManager
	strategies  []Strategy

	// RedistributeRemainder hands rounding leftovers to the largest
	// allocated sizes instead of dropping them. Off by default: dropped
	// remainders are the historically observed behavior, and turning
	// this on changes reported breakdowns.
	RedistributeRemainder bool
}

// NewEngine creates a size allocation engine with the default strategy
// chain (baseline, proportional, equal).
func NewEngine(
	baselines BaselineRepository,
	sales events.SaleRepository,
	products product.Repository,
	sizes cylindersize.Repository,
	receivables receivable.Repository,
	stocks stock.Repository,
	txm tx.ReadOnlyManager,
) *Engine {
	return &Engine{
		baselines:   baselines,
		sales:       sales,
		products:    products,
		sizes:       sizes,
		receivables: receivables,
		stocks:      stocks,
		txm:         txm,
		strategies:  defaultStrategies(),
	}
}

// Result carries the per-size quantities keyed by size label, the
// strategy that produced them, and any rounding-loss note.
type Result struct {
	BySize   map[string]types.Count
	Strategy string
	Report   anomaly.Report
}

// AllocateBySize computes the driver's per-size breakdown.
func (e *Engine) AllocateBySize(ctx context.Context, tenantID, driverID id.ID) (*Result, error) {
	var result *Result

	err := e.txm.ReadOnly(ctx, func(ctx context.Context) error {
		in, labels, err := e.loadInput(ctx, tenantID, driverID)
		if err != nil {
			return err
		}

		allocated, strategyName := e.run(*in)
		r := &Result{
			BySize:   make(map[string]types.Count, len(allocated)),
			Strategy: strategyName,
		}

		if strategyName != "baseline" {
			lost := shortfall(in.DriverClosingCylinder, allocated)
			if lost > 0 && e.RedistributeRemainder {
				redistribute(allocated, lost)
				lost = 0
			}
			if lost > 0 {
				r.Report.Add(anomaly.NewAllocationRoundingLoss(driverID.String(), lost))
			}
		}

		for sizeID, qty := range allocated {
			label, ok := labels[sizeID]
			if !ok {
				label = sizeID.String()
			}
			r.BySize[label] = qty
		}

		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "size allocation computed",
		"driver_id", driverID,
		"strategy", result.Strategy,
		"sizes", len(result.BySize),
	)

	return result, nil
}

// run evaluates the strategy chain in order and returns the first
// applicable result.
func (e *Engine) run(in Input) (map[id.ID]types.Count, string) {
	for _, s := range e.strategies {
		if out, ok := s.Allocate(in); ok {
			return out, s.Name()
		}
	}
	return map[id.ID]types.Count{}, "none"
}

func (e *Engine) loadInput(ctx context.Context, tenantID, driverID id.ID) (*Input, map[id.ID]string, error) {
	baselines, err := e.baselines.ListByDriver(ctx, tenantID, driverID)
	if err != nil {
		return nil, nil, fmt.Errorf("list baselines: %w", err)
	}

	var since time.Time
	for _, b := range baselines {
		if since.IsZero() || b.SetAt.Before(since) {
			since = b.SetAt
		}
	}

	refills, err := e.sales.ListRefillsByDriverSince(ctx, tenantID, driverID, since)
	if err != nil {
		return nil, nil, fmt.Errorf("list refills: %w", err)
	}

	productsList, err := e.products.ListActive(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}
	sizeOf := make(map[id.ID]id.ID, len(productsList))
	for _, p := range productsList {
		sizeOf[p.ID] = p.CylinderSizeID
	}

	sizesList, err := e.sizes.ListActive(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("list sizes: %w", err)
	}
	activeSizes := make([]id.ID, 0, len(sizesList))
	labels := make(map[id.ID]string, len(sizesList))
	for _, sz := range sizesList {
		activeSizes = append(activeSizes, sz.ID)
		labels[sz.ID] = sz.Label
	}

	current, err := e.receivables.GetCurrent(ctx, tenantID, driverID)
	if err != nil {
		return nil, nil, fmt.Errorf("current receivable: %w", err)
	}
	var driverTotal types.Count
	if current != nil {
		driverTotal = current.ClosingCylinder
	}

	tenantTotal, err := e.receivables.SumCurrentCylinders(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("tenant cylinder total: %w", err)
	}

	emptyBalances, err := e.stocks.GetCurrentEmptyAll(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("current empty balances: %w", err)
	}
	emptyBySize := make(map[id.ID]types.Count, len(emptyBalances))
	for _, b := range emptyBalances {
		emptyBySize[b.CylinderSizeID] = b.ClosingEmpty
	}

	return &Input{
		DriverID:              driverID,
		Baselines:             baselines,
		RefillSales:           refills,
		SizeOfProduct:         sizeOf,
		DriverClosingCylinder: driverTotal,
		TenantTotalCylinders:  tenantTotal,
		ActiveSizes:           activeSizes,
		EmptyStockBySize:      emptyBySize,
	}, labels, nil
}

// shortfall returns the driver total minus the allocated sum, floored
// at zero. Bounded by the number of active sizes under floor division.
func shortfall(total types.Count, allocated map[id.ID]types.Count) int64 {
	var sum int64
	for _, qty := range allocated {
		sum += qty.Int64()
	}
	lost := total.Int64() - sum
	if lost < 0 {
		return 0
	}
	return lost
}

// redistribute spreads lost units one by one over allocated sizes,
// largest first, so the output sums exactly to the driver total.
func redistribute(allocated map[id.ID]types.Count, lost int64) {
	if len(allocated) == 0 || lost <= 0 {
		return
	}

	order := make([]id.ID, 0, len(allocated))
	for sizeID := range allocated {
		order = append(order, sizeID)
	}
	sort.Slice(order, func(i, j int) bool {
		if allocated[order[i]] != allocated[order[j]] {
			return allocated[order[i]] > allocated[order[j]]
		}
		return order[i].String() < order[j].String()
	})

	for i := 0; lost > 0; i = (i + 1) % len(order) {
		allocated[order[i]]++
		lost--
	}
}

// Seed establishes a driver's baselines (onboarding path).
func (e *Engine) Seed(ctx context.Context, baselines []Baseline) error {
	for i := range baselines {
		if baselines[i].SetAt.IsZero() {
			baselines[i].SetAt = time.Now().UTC()
		}
	}
	if err := e.baselines.Seed(ctx, baselines); err != nil {
		return fmt.Errorf("seed baselines: %w", err)
	}

	logger.Info(ctx, "driver size baselines seeded", "count", len(baselines))
	return nil
}

// Correct replaces a single baseline (explicit admin correction).
func (e *Engine) Correct(ctx context.Context, baseline Baseline) error {
	if baseline.SetAt.IsZero() {
		baseline.SetAt = time.Now().UTC()
	}
	if err := e.baselines.Correct(ctx, baseline); err != nil {
		return fmt.Errorf("correct baseline: %w", err)
	}

	logger.Info(ctx, "driver size baseline corrected",
		"driver_id", baseline.DriverID,
		"cylinder_size_id", baseline.CylinderSizeID,
		"quantity", baseline.Quantity.Int64(),
	)
	return nil
}
