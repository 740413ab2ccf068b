package stock

import (
	"context"
	"fmt"
	"time"

	"gasledger/internal/core/anomaly"
	"gasledger/internal/core/id"
	"gasledger/internal/core/tx"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/internal/domain/catalogs/product"
	"gasledger/internal/domain/events"
	"gasledger/pkg/logger"
)

// Service recomputes and serves daily stock balances.
type Service struct {
	repo      Repository
	products  product.Repository
	sizes     cylindersize.Repository
	sales     events.SaleRepository
	shipments events.ShipmentRepository
	txm       tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(
	repo Repository,
	products product.Repository,
	sizes cylindersize.Repository,
	sales events.SaleRepository,
	shipments events.ShipmentRepository,
	txm tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		sizes:     sizes,
		sales:     sales,
		shipments: shipments,
		txm:       txm,
	}
}

// RecomputeOptions tunes a recomputation run.
type RecomputeOptions struct {
	// IncludeIdle materializes zero rows for products and sizes with no
	// prior balance and no activity. Default off: no zero-noise rows.
	IncludeIdle bool
}

// Result is a day's recomputed balances plus the anomalies found along
// the way. Anomalies are returned, never thrown; one noisy product must
// not abort the rest of the tenant.
type Result struct {
	Balances      []Balance
	EmptyBalances []EmptyBalance
	Report        anomaly.Report
}

// Recompute computes and upserts the tenant's stock balances for one
// day. Safe to re-run for any past date: with unchanged facts it
// produces identical rows.
func (s *Service) Recompute(ctx context.Context, tenantID id.ID, date types.Date, opts RecomputeOptions) (*Result, error) {
	products, err := s.products.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	sizes, err := s.sizes.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sizes: %w", err)
	}
	sales, err := s.sales.ListByTenantDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	shipments, err := s.shipments.ListCompletedByTenantDate(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}

	day := newDayActivity(products, sales, shipments)
	result := &Result{}
	now := time.Now().UTC()

	for _, p := range products {
		prior, err := s.repo.GetLatestBefore(ctx, tenantID, p.ID, date)
		if err != nil {
			return nil, fmt.Errorf("prior balance for product %s: %w", p.ID, err)
		}

		purchases := day.purchasesByProduct[p.ID]
		soldQty := day.salesByProduct[p.ID]

		// Zero-noise rule: nothing before, nothing today, no row.
		if prior == nil && purchases.IsZero() && soldQty.IsZero() && !opts.IncludeIdle {
			continue
		}

		if a, gapped := priorGap("product "+p.ID.String(), prior == nil, priorDate(prior), date); gapped {
			result.Report.Add(a)
		}

		b := computeBalance(tenantID, p.ID, date, prior, purchases, soldQty, now)
		result.Balances = append(result.Balances, b)
	}

	for _, sz := range sizes {
		prior, err := s.repo.GetLatestEmptyBefore(ctx, tenantID, sz.ID, date)
		if err != nil {
			return nil, fmt.Errorf("prior empty balance for size %s: %w", sz.ID, err)
		}

		refills := day.refillsBySize[sz.ID]
		netBuySell := day.emptyNetBySize[sz.ID]

		if prior == nil && refills.IsZero() && netBuySell.IsZero() && !opts.IncludeIdle {
			continue
		}

		if a, gapped := priorGap("size "+sz.ID.String(), prior == nil, priorEmptyDate(prior), date); gapped {
			result.Report.Add(a)
		}

		b := computeEmptyBalance(tenantID, sz.ID, date, prior, refills, netBuySell, now)
		result.EmptyBalances = append(result.EmptyBalances, b)
	}

	// Single transaction per (tenant, date): the upserts are the only
	// writers for these keys, and ON CONFLICT keeps retries safe.
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpsertBalances(ctx, result.Balances); err != nil {
			return fmt.Errorf("upsert balances: %w", err)
		}
		if err := s.repo.UpsertEmptyBalances(ctx, result.EmptyBalances); err != nil {
			return fmt.Errorf("upsert empty balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock ledger recomputed",
		"date", date.String(),
		"products", len(result.Balances),
		"sizes", len(result.EmptyBalances),
		"anomalies", result.Report.Len(),
	)

	return result, nil
}

// CurrentLevel returns the latest full-cylinder balance for a product,
// or a zero balance if none was ever computed.
func (s *Service) CurrentLevel(ctx context.Context, tenantID, productID id.ID) (*Balance, error) {
	b, err := s.repo.GetCurrent(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("current stock level: %w", err)
	}
	if b == nil {
		return &Balance{TenantID: tenantID, ProductID: productID}, nil
	}
	return b, nil
}

// CurrentSizeBreakdown returns the latest empty-cylinder balance for a
// size, or a zero balance if none was ever computed.
func (s *Service) CurrentSizeBreakdown(ctx context.Context, tenantID, sizeID id.ID) (*EmptyBalance, error) {
	b, err := s.repo.GetCurrentEmpty(ctx, tenantID, sizeID)
	if err != nil {
		return nil, fmt.Errorf("current size breakdown: %w", err)
	}
	if b == nil {
		return &EmptyBalance{TenantID: tenantID, CylinderSizeID: sizeID}, nil
	}
	return b, nil
}

// --- day aggregation ---

// dayActivity groups one day's facts by product and by size.
type dayActivity struct {
	salesByProduct     map[id.ID]types.Count
	purchasesByProduct map[id.ID]types.Count
	refillsBySize      map[id.ID]types.Count
	emptyNetBySize     map[id.ID]types.Count
}

func newDayActivity(products []*product.Product, sales []*events.SaleEvent, shipments []*events.ShipmentBatch) *dayActivity {
	sizeOf := make(map[id.ID]id.ID, len(products))
	for _, p := range products {
		sizeOf[p.ID] = p.CylinderSizeID
	}

	day := &dayActivity{
		salesByProduct:     make(map[id.ID]types.Count),
		purchasesByProduct: make(map[id.ID]types.Count),
		refillsBySize:      make(map[id.ID]types.Count),
		emptyNetBySize:     make(map[id.ID]types.Count),
	}

	for _, sale := range sales {
		// PACKAGE and REFILL both deplete full stock.
		day.salesByProduct[sale.ProductID] += sale.Quantity

		if sale.Type == events.SaleRefill {
			if sizeID, ok := sizeOf[sale.ProductID]; ok {
				day.refillsBySize[sizeID] += sale.Quantity
			}
		}
	}

	for _, sh := range shipments {
		if !sh.Counts() {
			continue
		}
		switch sh.Content {
		case events.ContentFull:
			day.purchasesByProduct[sh.ProductID] += sh.SignedQuantity()
		case events.ContentEmpty:
			day.emptyNetBySize[sh.CylinderSizeID] += sh.SignedQuantity()
		}
	}

	return day
}

// --- pure balance math ---

// computeBalance applies closing = opening + purchases - sales, clamped
// at zero with the pre-clamp value retained.
func computeBalance(tenantID, productID id.ID, date types.Date, prior *Balance, purchases, sold types.Count, now time.Time) Balance {
	var opening types.Count
	if prior != nil {
		opening = prior.ClosingFull
	}

	raw := opening + purchases - sold
	return Balance{
		TenantID:     tenantID,
		ProductID:    productID,
		Date:         date,
		OpeningFull:  opening,
		PurchasesQty: purchases,
		SalesQty:     sold,
		ClosingFull:  raw.ClampZero(),
		ClosingRaw:   raw,
		ComputedAt:   now,
	}
}

// computeEmptyBalance applies closing = opening + refills + netBuySell,
// clamped at zero with the pre-clamp value retained.
func computeEmptyBalance(tenantID, sizeID id.ID, date types.Date, prior *EmptyBalance, refills, netBuySell types.Count, now time.Time) EmptyBalance {
	var opening types.Count
	if prior != nil {
		opening = prior.ClosingEmpty
	}

	raw := opening + refills + netBuySell
	return EmptyBalance{
		TenantID:        tenantID,
		CylinderSizeID:  sizeID,
		Date:            date,
		OpeningEmpty:    opening,
		RefillSalesQty:  refills,
		EmptyNetBuySell: netBuySell,
		ClosingEmpty:    raw.ClampZero(),
		ClosingRaw:      raw,
		ComputedAt:      now,
	}
}

// priorGap flags a LedgerGap when the most recent prior balance is older
// than the requested day's predecessor. A first-ever balance is not a
// gap: a product's first day legitimately starts at zero.
func priorGap(entity string, noPrior bool, last types.Date, requested types.Date) (anomaly.Anomaly, bool) {
	if noPrior {
		return anomaly.Anomaly{}, false
	}
	if last.Before(requested.Prev()) {
		return anomaly.NewLedgerGap(entity, last.String(), requested.String()), true
	}
	return anomaly.Anomaly{}, false
}

func priorDate(b *Balance) types.Date {
	if b == nil {
		return types.Date{}
	}
	return b.Date
}

func priorEmptyDate(b *EmptyBalance) types.Date {
	if b == nil {
		return types.Date{}
	}
	return b.Date
}
