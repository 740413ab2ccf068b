package recompute

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasledger/internal/core/id"
	"gasledger/internal/core/tenant"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/internal/domain/catalogs/product"
	"gasledger/internal/domain/events"
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
)

// Fakes embed the interface they fake; only the methods the runner's
// code path touches get bodies.

type fakeRegistry struct {
	tenant.Registry
	tenants []*tenant.Tenant

	// denyActive makes RequireActive reject a tenant ListActive already
	// returned, mimicking a status flip mid-run.
	denyActive map[id.ID]bool
}

func (f *fakeRegistry) ListActive(_ context.Context) ([]*tenant.Tenant, error) {
	var out []*tenant.Tenant
	for _, t := range f.tenants {
		if t.IsActive() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRegistry) RequireActive(_ context.Context, tenantID id.ID) (*tenant.Tenant, error) {
	for _, t := range f.tenants {
		if t.ID == tenantID {
			if !t.IsActive() || f.denyActive[tenantID] {
				return nil, tenant.ErrTenantNotActive
			}
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

type fakeStockRepo struct {
	stock.Repository
	mu       sync.Mutex
	balances []stock.Balance
	empties  []stock.EmptyBalance
}

func (f *fakeStockRepo) GetLatestBefore(_ context.Context, _, _ id.ID, _ types.Date) (*stock.Balance, error) {
	return nil, nil
}

func (f *fakeStockRepo) GetLatestEmptyBefore(_ context.Context, _, _ id.ID, _ types.Date) (*stock.EmptyBalance, error) {
	return nil, nil
}

func (f *fakeStockRepo) UpsertBalances(_ context.Context, balances []stock.Balance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances = append(f.balances, balances...)
	return nil
}

func (f *fakeStockRepo) UpsertEmptyBalances(_ context.Context, balances []stock.EmptyBalance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.empties = append(f.empties, balances...)
	return nil
}

type fakeRecvRepo struct {
	receivable.Repository
	drivers []id.ID

	// failUpserts makes Upsert fail for the listed drivers, so a run can
	// carry failed units without aborting.
	failUpserts map[id.ID]bool

	mu       sync.Mutex
	balances []receivable.Balance
}

func (f *fakeRecvRepo) GetLatestOnOrBefore(_ context.Context, _, _ id.ID, _ types.Date) (*receivable.Balance, error) {
	return nil, nil
}

func (f *fakeRecvRepo) GetEarliest(_ context.Context, _, _ id.ID) (*receivable.Balance, error) {
	return nil, nil
}

func (f *fakeRecvRepo) Upsert(_ context.Context, balance receivable.Balance) error {
	if f.failUpserts[balance.DriverID] {
		return errors.New("connection reset")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances = append(f.balances, balance)
	return nil
}

func (f *fakeRecvRepo) ListDriversWithActivity(_ context.Context, _ id.ID, _ types.Date) ([]id.ID, error) {
	return f.drivers, nil
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

type fakeSales struct {
	events.SaleRepository
	sales []*events.SaleEvent
}

func (f *fakeSales) ListByTenantDate(_ context.Context, tenantID id.ID, date types.Date) ([]*events.SaleEvent, error) {
	var out []*events.SaleEvent
	for _, s := range f.sales {
		if s.TenantID == tenantID && s.SaleDate.Equal(date) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSales) ListByDriverDate(_ context.Context, tenantID, driverID id.ID, date types.Date) ([]*events.SaleEvent, error) {
	var out []*events.SaleEvent
	for _, s := range f.sales {
		if s.TenantID == tenantID && s.DriverID == driverID && s.SaleDate.Equal(date) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeShipments struct {
	events.ShipmentRepository
}

func (fakeShipments) ListCompletedByTenantDate(_ context.Context, _ id.ID, _ types.Date) ([]*events.ShipmentBatch, error) {
	return nil, nil
}

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type journalSpy struct {
	mu      sync.Mutex
	entries []RunEntry
}

func (j *journalSpy) Write(_ context.Context, entry RunEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

type harness struct {
	runner    *Runner
	registry  *fakeRegistry
	stockRepo *fakeStockRepo
	recvRepo  *fakeRecvRepo
	sales     *fakeSales
	journal   *journalSpy

	tenantID id.ID
	date     types.Date
}

func newHarness(drivers ...id.ID) *harness {
	h := &harness{
		tenantID: id.New(),
		date:     types.DateOf(2026, 8, 30),
	}

	h.registry = &fakeRegistry{
		tenants: []*tenant.Tenant{
			{ID: h.tenantID, Slug: "petrogas", Status: tenant.StatusActive},
		},
		denyActive: map[id.ID]bool{},
	}
	h.stockRepo = &fakeStockRepo{}
	h.recvRepo = &fakeRecvRepo{drivers: drivers, failUpserts: map[id.ID]bool{}}
	h.sales = &fakeSales{}
	h.journal = &journalSpy{}

	sizeID := id.New()
	productID := id.New()
	sizes := &fakeSizes{sizes: []*cylindersize.CylinderSize{
		{ID: sizeID, TenantID: h.tenantID, Label: "12L", Active: true},
	}}
	products := &fakeProducts{products: []*product.Product{
		{ID: productID, TenantID: h.tenantID, CylinderSizeID: sizeID, Name: "Petrogas 12L", Active: true},
	}}

	for _, driverID := range drivers {
		h.sales.sales = append(h.sales.sales, &events.SaleEvent{
			ID:        id.New(),
			TenantID:  h.tenantID,
			DriverID:  driverID,
			ProductID: productID,
			Type:      events.SaleRefill,
			Quantity:  2,
			UnitPrice: types.MustMoney("50"),
			SaleDate:  h.date,
			CreatedAt: time.Now().UTC(),
		})
	}

	stocks := stock.NewService(h.stockRepo, products, sizes, h.sales, fakeShipments{}, nopTxManager{})
	receivables := receivable.NewService(h.recvRepo, h.sales, nopTxManager{})

	h.runner = NewRunner(h.registry, stocks, receivables, h.recvRepo, h.journal)
	return h
}

func TestRunTenant_CountsStockAndDriverUnits(t *testing.T) {
	d1, d2 := id.New(), id.New()
	h := newHarness(d1, d2)

	res, err := h.runner.RunTenant(context.Background(), h.tenantID, h.date)
	require.NoError(t, err)

	// One stock unit plus one unit per driver.
	assert.Equal(t, 3, res.Units)
	assert.Equal(t, 0, res.FailedUnits)
	assert.Len(t, h.recvRepo.balances, 2)
	assert.Len(t, h.stockRepo.balances, 1)
	assert.Len(t, h.stockRepo.empties, 1)

	require.Len(t, h.journal.entries, 1)
	entry := h.journal.entries[0]
	assert.Equal(t, h.tenantID, entry.TenantID)
	assert.Equal(t, 3, entry.Units)
	assert.True(t, entry.Date.Equal(h.date))
}

func TestRunTenant_FailedDriverDoesNotAbortOthers(t *testing.T) {
	d1, d2 := id.New(), id.New()
	h := newHarness(d1, d2)
	h.recvRepo.failUpserts[d1] = true

	res, err := h.runner.RunTenant(context.Background(), h.tenantID, h.date)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Units)
	assert.Equal(t, 1, res.FailedUnits)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], d1.String())

	// The healthy driver still got its balance.
	require.Len(t, h.recvRepo.balances, 1)
	assert.Equal(t, d2, h.recvRepo.balances[0].DriverID)
}

func TestRunTenant_UnknownTenantIsFatal(t *testing.T) {
	h := newHarness()

	_, err := h.runner.RunTenant(context.Background(), id.New(), h.date)
	require.Error(t, err)
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestRunTenant_SuspendedTenantIsFatal(t *testing.T) {
	h := newHarness()
	h.registry.tenants[0].Status = tenant.StatusSuspended

	_, err := h.runner.RunTenant(context.Background(), h.tenantID, h.date)
	require.Error(t, err)
	assert.ErrorIs(t, err, tenant.ErrTenantNotActive)
}

func TestRunAll_BrokenTenantDoesNotAbortFleet(t *testing.T) {
	d1 := id.New()
	h := newHarness(d1)

	broken := &tenant.Tenant{ID: id.New(), Slug: "ghost", Status: tenant.StatusActive}
	h.registry.tenants = append(h.registry.tenants, broken)
	h.registry.denyActive[broken.ID] = true

	res, err := h.runner.RunAll(context.Background(), h.date)
	require.NoError(t, err)

	require.Len(t, res.Tenants, 2)
	assert.Equal(t, 0, res.Skipped)

	var healthy, failed *TenantResult
	for i := range res.Tenants {
		switch res.Tenants[i].TenantID {
		case h.tenantID:
			healthy = &res.Tenants[i]
		case broken.ID:
			failed = &res.Tenants[i]
		}
	}
	require.NotNil(t, healthy)
	require.NotNil(t, failed)
	assert.Equal(t, 0, healthy.FailedUnits)
	assert.Equal(t, 1, failed.FailedUnits)
	require.Len(t, failed.Failures, 1)
}

func TestRunAll_CancellationSkipsRemainingTenants(t *testing.T) {
	h := newHarness()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.runner.RunAll(ctx, h.date)
	require.NoError(t, err)

	assert.Empty(t, res.Tenants)
	assert.Equal(t, 1, res.Skipped)
}

func TestRunTenant_WorkerFloorIsOne(t *testing.T) {
	d1 := id.New()
	h := newHarness(d1)
	h.runner.Workers = 0

	res, err := h.runner.RunTenant(context.Background(), h.tenantID, h.date)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Units)
	assert.Equal(t, 0, res.FailedUnits)
}
