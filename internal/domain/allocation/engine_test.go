package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasledger/internal/core/anomaly"
	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/internal/domain/catalogs/product"
	"gasledger/internal/domain/events"
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
)

// Fakes embed the interface so only the methods the engine actually
// calls need bodies; anything else panics loudly.

type fakeBaselines struct {
	BaselineRepository
	items []Baseline
}

func (f *fakeBaselines) Seed(_ context.Context, baselines []Baseline) error {
	f.items = append(f.items, baselines...)
	return nil
}

func (f *fakeBaselines) Correct(_ context.Context, baseline Baseline) error {
	for i, b := range f.items {
		if b.DriverID == baseline.DriverID && b.CylinderSizeID == baseline.CylinderSizeID {
			f.items[i] = baseline
			return nil
		}
	}
	f.items = append(f.items, baseline)
	return nil
}

func (f *fakeBaselines) ListByDriver(_ context.Context, _, driverID id.ID) ([]Baseline, error) {
	var out []Baseline
	for _, b := range f.items {
		if b.DriverID == driverID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeSales struct {
	events.SaleRepository
	sales []*events.SaleEvent
}

func (f *fakeSales) ListRefillsByDriverSince(_ context.Context, _, driverID id.ID, since time.Time) ([]*events.SaleEvent, error) {
	var out []*events.SaleEvent
	for _, s := range f.sales {
		if s.DriverID != driverID || s.Type != events.SaleRefill {
			continue
		}
		if s.CreatedAt.Before(since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeProducts struct {
	product.Repository
	products []*product.Product
}

func (f *fakeProducts) ListActive(_ context.Context, _ id.ID) ([]*product.Product, error) {
	return f.products, nil
}

type fakeSizes struct {
	cylindersize.Repository
	sizes []*cylindersize.CylinderSize
}

func (f *fakeSizes) ListActive(_ context.Context, _ id.ID) ([]*cylindersize.CylinderSize, error) {
	return f.sizes, nil
}

type fakeReceivables struct {
	receivable.Repository
	current     map[id.ID]*receivable.Balance
	tenantTotal types.Count
}

func (f *fakeReceivables) GetCurrent(_ context.Context, _, driverID id.ID) (*receivable.Balance, error) {
	return f.current[driverID], nil
}

func (f *fakeReceivables) SumCurrentCylinders(_ context.Context, _ id.ID) (types.Count, error) {
	return f.tenantTotal, nil
}

type fakeStocks struct {
	stock.Repository
	empties []*stock.EmptyBalance
}

func (f *fakeStocks) GetCurrentEmptyAll(_ context.Context, _ id.ID) ([]*stock.EmptyBalance, error) {
	return f.empties, nil
}

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (nopTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	engine      *Engine
	baselines   *fakeBaselines
	sales       *fakeSales
	receivables *fakeReceivables
	stocks      *fakeStocks

	tenantID id.ID
	driverID id.ID
	size12   id.ID
	size35   id.ID
	size45   id.ID
	prod12   id.ID
	prod35   id.ID
}

func newFixture() *fixture {
	f := &fixture{
		tenantID: id.New(),
		driverID: id.New(),
		size12:   id.New(),
		size35:   id.New(),
		size45:   id.New(),
		prod12:   id.New(),
		prod35:   id.New(),
	}

	f.baselines = &fakeBaselines{}
	f.sales = &fakeSales{}
	f.receivables = &fakeReceivables{current: map[id.ID]*receivable.Balance{}}
	f.stocks = &fakeStocks{}

	sizes := &fakeSizes{sizes: []*cylindersize.CylinderSize{
		{ID: f.size12, TenantID: f.tenantID, Label: "12L", Active: true},
		{ID: f.size35, TenantID: f.tenantID, Label: "35L", Active: true},
		{ID: f.size45, TenantID: f.tenantID, Label: "45L", Active: true},
	}}
	products := &fakeProducts{products: []*product.Product{
		{ID: f.prod12, TenantID: f.tenantID, CylinderSizeID: f.size12, Name: "Petrogas 12L", Active: true},
		{ID: f.prod35, TenantID: f.tenantID, CylinderSizeID: f.size35, Name: "Petrogas 35L", Active: true},
	}}

	f.engine = NewEngine(f.baselines, f.sales, products, sizes, f.receivables, f.stocks, nopTxManager{})
	return f
}

func (f *fixture) refill(productID id.ID, qty, deposited int64, at time.Time) {
	f.sales.sales = append(f.sales.sales, &events.SaleEvent{
		ID:                 id.New(),
		TenantID:           f.tenantID,
		DriverID:           f.driverID,
		ProductID:          productID,
		Type:               events.SaleRefill,
		Quantity:           types.Count(qty),
		CylindersDeposited: types.Count(deposited),
		CreatedAt:          at,
	})
}

func TestAllocate_BaselineLayersRefillDeltas(t *testing.T) {
	f := newFixture()
	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	f.baselines.items = []Baseline{
		{TenantID: f.tenantID, DriverID: f.driverID, CylinderSizeID: f.size12, Quantity: 10, SetAt: anchor},
		{TenantID: f.tenantID, DriverID: f.driverID, CylinderSizeID: f.size35, Quantity: 5, SetAt: anchor},
	}

	// Before the anchor: must not accrue.
	f.refill(f.prod12, 4, 0, anchor.Add(-time.Hour))
	// After the anchor: +3 out, 1 back => +2 on the 12L size.
	f.refill(f.prod12, 3, 1, anchor.Add(time.Hour))

	res, err := f.engine.AllocateBySize(context.Background(), f.tenantID, f.driverID)
	require.NoError(t, err)

	assert.Equal(t, "baseline", res.Strategy)
	assert.Equal(t, map[string]types.Count{"12L": 12, "35L": 5}, res.BySize)
	assert.Equal(t, 0, res.Report.Len())
}

func TestAllocate_BaselineOmitsSettledSize(t *testing.T) {
	f := newFixture()
	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	f.baselines.items = []Baseline{
		{TenantID: f.tenantID, DriverID: f.driverID, CylinderSizeID: f.size12, Quantity: 2, SetAt: anchor},
		{TenantID: f.tenantID, DriverID: f.driverID, CylinderSizeID: f.size35, Quantity: 6, SetAt: anchor},
	}
	// Driver returns more than they took: 12L fully settled.
	f.refill(f.prod12, 1, 3, anchor.Add(time.Hour))

	res, err := f.engine.AllocateBySize(context.Background(), f.tenantID, f.driverID)
	require.NoError(t, err)

	assert.Equal(t, "baseline", res.Strategy)
	assert.NotContains(t, res.BySize, "12L")
	assert.Equal(t, types.Count(6), res.BySize["35L"])
}

func TestAllocate_ProportionalFallbackUsesEmptyStockShares(t *testing.T) {
	f := newFixture()

	f.receivables.current[f.driverID] = &receivable.Balance{ClosingCylinder: 10}
	f.receivables.tenantTotal = 20
	f.stocks.empties = []*stock.EmptyBalance{
		{TenantID: f.tenantID, CylinderSizeID: f.size12, ClosingEmpty: 6},
		{TenantID: f.tenantID, CylinderSizeID: f.size35, ClosingEmpty: 3},
	}

	res, err := f.engine.AllocateBySize(context.Background(), f.tenantID, f.driverID)
	require.NoError(t, err)

	// floor(6*10/20)=3, floor(3*10/20)=1; 45L has no empty stock.
	assert.Equal(t, "proportional", res.Strategy)
	assert.Equal(t, map[string]types.Count{"12L": 3, "35L": 1}, res.BySize)

	losses := res.Report.ByKind(anomaly.KindAllocationRoundingLoss)
	require.Len(t, losses, 1)
}

func TestAllocate_EqualFallbackSplitsEvenly(t *testing.T) {
	f := newFixture()

	f.receivables.current[f.driverID] = &receivable.Balance{ClosingCylinder: 9}
	f.receivables.tenantTotal = 0

	res, err := f.engine.AllocateBySize(context.Background(), f.tenantID, f.driverID)
	require.NoError(t, err)

	assert.Equal(t, "equal", res.Strategy)
	assert.Equal(t, map[string]types.Count{"12L": 3, "35L": 3, "45L": 3}, res.BySize)
	assert.Equal(t, 0, res.Report.Len())
}

func TestAllocate_EqualReportsRoundingLoss(t *testing.T) {
	f := newFixture()

	f.receivables.current[f.driverID] = &receivable.Balance{ClosingCylinder: 10}
	f.receivables.tenantTotal = 0

	res, err := f.engine.AllocateBySize(context.Background(), f.tenantID, f.driverID)
	require.NoError(t, err)

	assert.Equal(t, "equal", res.Strategy)
	assert.Equal(t, map[string]types.Count{"12L": 3, "35L": 3, "45L": 3}, res.BySize)

	losses := res.Report.ByKind(anomaly.KindAllocationRoundingLoss)
	require.Len(t, losses, 1)
}

func TestAllocate_RedistributeRemainderSumsToTotal(t *testing.T) {
	f := newFixture()
	f.engine.RedistributeRemainder = true

	f.receivables.current[f.driverID] = &receivable.Balance{ClosingCylinder: 10}
	f.receivables.tenantTotal = 0

	res, err := f.engine.AllocateBySize(context.Background(), f.tenantID, f.driverID)
	require.NoError(t, err)

	var sum int64
	var max int64
	for _, qty := range res.BySize {
		sum += qty.Int64()
		if qty.Int64() > max {
			max = qty.Int64()
		}
	}
	assert.Equal(t, int64(10), sum)
	assert.Equal(t, int64(4), max)
	assert.Equal(t, 0, res.Report.Len())
}

func TestAllocate_NoSignalYieldsEmptyResult(t *testing.T) {
	f := newFixture()

	res, err := f.engine.AllocateBySize(context.Background(), f.tenantID, f.driverID)
	require.NoError(t, err)

	assert.Equal(t, "none", res.Strategy)
	assert.Empty(t, res.BySize)
	assert.Equal(t, 0, res.Report.Len())
}

func TestSeed_DefaultsSetAt(t *testing.T) {
	f := newFixture()

	err := f.engine.Seed(context.Background(), []Baseline{
		{TenantID: f.tenantID, DriverID: f.driverID, CylinderSizeID: f.size12, Quantity: 10},
	})
	require.NoError(t, err)

	require.Len(t, f.baselines.items, 1)
	assert.False(t, f.baselines.items[0].SetAt.IsZero())
}

func TestCorrect_ReplacesExistingBaseline(t *testing.T) {
	f := newFixture()
	anchor := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	f.baselines.items = []Baseline{
		{TenantID: f.tenantID, DriverID: f.driverID, CylinderSizeID: f.size12, Quantity: 10, SetAt: anchor},
	}

	err := f.engine.Correct(context.Background(), Baseline{
		TenantID: f.tenantID, DriverID: f.driverID, CylinderSizeID: f.size12,
		Quantity: 7, SetAt: anchor.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	require.Len(t, f.baselines.items, 1)
	assert.Equal(t, types.Count(7), f.baselines.items[0].Quantity)
}
