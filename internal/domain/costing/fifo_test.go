package costing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasledger/internal/core/anomaly"
	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/events"
)

func lot(date types.Date, qty int64, unitCost string) Lot {
	return Lot{
		BatchID:   id.New(),
		Date:      date,
		Quantity:  types.Count(qty),
		Remaining: types.Count(qty),
		UnitCost:  types.MustMoney(unitCost),
	}
}

func counts(qs ...int64) []types.Count {
	out := make([]types.Count, len(qs))
	for i, q := range qs {
		out[i] = types.Count(q)
	}
	return out
}

func TestConsume_CrossesBatchBoundaries(t *testing.T) {
	lots := []Lot{
		lot(types.DateOf(2026, 8, 1), 100, "1000"),
		lot(types.DateOf(2026, 8, 10), 50, "1050"),
		lot(types.DateOf(2026, 8, 20), 75, "980"),
	}

	// 150 units drain the first two lots exactly; the third is untouched.
	out := Consume(lots, counts(30, 80, 40))

	assert.True(t, types.MustMoney("152500").Equal(out.TotalCOGS),
		"got %s", out.TotalCOGS)
	assert.Equal(t, types.Count(150), out.UnitsSold)
	assert.True(t, types.MustMoney("1016.67").Equal(out.AverageBuyingPrice.Round(2)),
		"got %s", out.AverageBuyingPrice)
	assert.Equal(t, types.Count(0), out.Shortfall)

	require.Len(t, out.Remaining, 1)
	assert.Equal(t, lots[2].BatchID, out.Remaining[0].BatchID)
	assert.Equal(t, types.Count(75), out.Remaining[0].Remaining)
}

func TestConsume_SingleSaleSpansLots(t *testing.T) {
	lots := []Lot{
		lot(types.DateOf(2026, 8, 1), 10, "100"),
		lot(types.DateOf(2026, 8, 2), 10, "200"),
	}

	out := Consume(lots, counts(15))

	// 10*100 + 5*200
	assert.True(t, types.MustMoney("2000").Equal(out.TotalCOGS))
	require.Len(t, out.Remaining, 1)
	assert.Equal(t, types.Count(5), out.Remaining[0].Remaining)
}

func TestConsume_ShortfallCarriesZeroCost(t *testing.T) {
	lots := []Lot{
		lot(types.DateOf(2026, 8, 1), 10, "100"),
	}

	out := Consume(lots, counts(15))

	assert.True(t, types.MustMoney("1000").Equal(out.TotalCOGS))
	assert.Equal(t, types.Count(15), out.UnitsSold)
	assert.Equal(t, types.Count(5), out.Shortfall)
	// Average divides by every sold unit, shortfall included.
	assert.True(t, types.MustMoney("66.67").Equal(out.AverageBuyingPrice.Round(2)),
		"got %s", out.AverageBuyingPrice)
	assert.Empty(t, out.Remaining)
}

func TestConsume_NoSales(t *testing.T) {
	lots := []Lot{
		lot(types.DateOf(2026, 8, 1), 10, "100"),
	}

	out := Consume(lots, nil)

	assert.True(t, out.TotalCOGS.IsZero())
	assert.True(t, out.AverageBuyingPrice.IsZero())
	assert.Equal(t, types.Count(0), out.UnitsSold)
	require.Len(t, out.Remaining, 1)
	assert.Equal(t, types.Count(10), out.Remaining[0].Remaining)
}

func TestConsume_NoLotsAllShortfall(t *testing.T) {
	out := Consume(nil, counts(3, 4))

	assert.True(t, out.TotalCOGS.IsZero())
	assert.Equal(t, types.Count(7), out.UnitsSold)
	assert.Equal(t, types.Count(7), out.Shortfall)
}

func TestConsume_DoesNotMutateInput(t *testing.T) {
	lots := []Lot{
		lot(types.DateOf(2026, 8, 1), 10, "100"),
	}

	_ = Consume(lots, counts(4))

	assert.Equal(t, types.Count(10), lots[0].Remaining)
}

type fakeSales struct {
	events.SaleRepository
	sales []*events.SaleEvent
}

func (f *fakeSales) ListByProductThrough(_ context.Context, _, productID id.ID, asOf types.Date) ([]*events.SaleEvent, error) {
	var out []*events.SaleEvent
	for _, s := range f.sales {
		if s.ProductID == productID && !s.SaleDate.After(asOf) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeShipments struct {
	events.ShipmentRepository
	batches []*events.ShipmentBatch
}

func (f *fakeShipments) ListPurchasesThrough(_ context.Context, _, productID id.ID, asOf types.Date) ([]*events.ShipmentBatch, error) {
	var out []*events.ShipmentBatch
	for _, b := range f.batches {
		if b.ProductID == productID && !b.ShipmentDate.After(asOf) {
			out = append(out, b)
		}
	}
	return out, nil
}

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (nopTxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestComputeCOGS_ReportsInsufficientInventory(t *testing.T) {
	tenantID := id.New()
	productID := id.New()
	asOf := types.DateOf(2026, 8, 30)

	shipments := &fakeShipments{batches: []*events.ShipmentBatch{{
		ID:           id.New(),
		TenantID:     tenantID,
		ProductID:    productID,
		Quantity:     10,
		UnitCost:     types.MustMoney("100"),
		Direction:    events.DirectionIncoming,
		Content:      events.ContentFull,
		Status:       events.ShipmentCompleted,
		ShipmentDate: types.DateOf(2026, 8, 1),
		CreatedAt:    time.Now(),
	}}}
	sales := &fakeSales{sales: []*events.SaleEvent{{
		ID:        id.New(),
		TenantID:  tenantID,
		ProductID: productID,
		Type:      events.SalePackage,
		Quantity:  12,
		SaleDate:  types.DateOf(2026, 8, 15),
	}}}

	svc := NewService(sales, shipments, nopTxManager{})

	res, err := svc.ComputeCOGS(context.Background(), tenantID, productID, asOf)
	require.NoError(t, err)

	assert.True(t, types.MustMoney("1000").Equal(res.Consumption.TotalCOGS))
	assert.Equal(t, types.Count(2), res.Consumption.Shortfall)
	require.Len(t, res.Report.ByKind(anomaly.KindInsufficientInventory), 1)
}

func TestComputeCOGS_ExcludesFactsAfterAsOf(t *testing.T) {
	tenantID := id.New()
	productID := id.New()

	shipments := &fakeShipments{batches: []*events.ShipmentBatch{
		{
			ID: id.New(), TenantID: tenantID, ProductID: productID,
			Quantity: 10, UnitCost: types.MustMoney("100"),
			Direction: events.DirectionIncoming, Content: events.ContentFull,
			Status: events.ShipmentCompleted, ShipmentDate: types.DateOf(2026, 8, 1),
		},
		{
			ID: id.New(), TenantID: tenantID, ProductID: productID,
			Quantity: 10, UnitCost: types.MustMoney("500"),
			Direction: events.DirectionIncoming, Content: events.ContentFull,
			Status: events.ShipmentCompleted, ShipmentDate: types.DateOf(2026, 9, 1),
		},
	}}
	sales := &fakeSales{sales: []*events.SaleEvent{
		{ID: id.New(), TenantID: tenantID, ProductID: productID, Type: events.SalePackage,
			Quantity: 5, SaleDate: types.DateOf(2026, 8, 10)},
		{ID: id.New(), TenantID: tenantID, ProductID: productID, Type: events.SalePackage,
			Quantity: 5, SaleDate: types.DateOf(2026, 9, 2)},
	}}

	svc := NewService(sales, shipments, nopTxManager{})

	res, err := svc.ComputeCOGS(context.Background(), tenantID, productID, types.DateOf(2026, 8, 31))
	require.NoError(t, err)

	assert.True(t, types.MustMoney("500").Equal(res.Consumption.TotalCOGS))
	assert.Equal(t, types.Count(5), res.Consumption.UnitsSold)
	require.Len(t, res.Consumption.Remaining, 1)
	assert.Equal(t, types.Count(5), res.Consumption.Remaining[0].Remaining)
}
