package receivable

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

// --- in-memory fakes ---

type fakeRepo struct {
	rows []Balance
}

func (r *fakeRepo) GetLatestOnOrBefore(_ context.Context, _ id.ID, driverID id.ID, date types.Date) (*Balance, error) {
	var latest *Balance
	for i := range r.rows {
		b := r.rows[i]
		if b.DriverID != driverID || b.Date.After(date) {
			continue
		}
		if latest == nil || latest.Date.Before(b.Date) {
			latest = &r.rows[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	bb := *latest
	return &bb, nil
}

func (r *fakeRepo) GetEarliest(_ context.Context, _ id.ID, driverID id.ID) (*Balance, error) {
	var earliest *Balance
	for i := range r.rows {
		b := r.rows[i]
		if b.DriverID != driverID {
			continue
		}
		if earliest == nil || b.Date.Before(earliest.Date) {
			earliest = &r.rows[i]
		}
	}
	if earliest == nil {
		return nil, nil
	}
	bb := *earliest
	return &bb, nil
}

func (r *fakeRepo) GetCurrent(_ context.Context, _ id.ID, driverID id.ID) (*Balance, error) {
	var latest *Balance
	for i := range r.rows {
		b := r.rows[i]
		if b.DriverID != driverID {
			continue
		}
		if latest == nil || latest.Date.Before(b.Date) {
			latest = &r.rows[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	bb := *latest
	return &bb, nil
}

func (r *fakeRepo) Upsert(_ context.Context, balance Balance) error {
	for i := range r.rows {
		if r.rows[i].DriverID == balance.DriverID && r.rows[i].Date.Equal(balance.Date) {
			r.rows[i] = balance
			return nil
		}
	}
	r.rows = append(r.rows, balance)
	return nil
}

func (r *fakeRepo) SumCurrentCylinders(ctx context.Context, tenantID id.ID) (types.Count, error) {
	seen := make(map[id.ID]bool)
	var total types.Count
	for _, b := range r.rows {
		if seen[b.DriverID] {
			continue
		}
		seen[b.DriverID] = true
		cur, _ := r.GetCurrent(ctx, tenantID, b.DriverID)
		total += cur.ClosingCylinder
	}
	return total, nil
}

func (r *fakeRepo) ListDriversWithActivity(context.Context, id.ID, types.Date) ([]id.ID, error) {
	return nil, nil
}

type fakeSales struct {
	sales []*events.SaleEvent
}

func (r *fakeSales) Record(context.Context, []*events.SaleEvent) error { return nil }
func (r *fakeSales) ListByTenantDate(context.Context, id.ID, types.Date) ([]*events.SaleEvent, error) {
	return nil, nil
}
func (r *fakeSales) ListByDriverDate(_ context.Context, _ id.ID, driverID id.ID, date types.Date) ([]*events.SaleEvent, error) {
	var out []*events.SaleEvent
	for _, s := range r.sales {
		if s.DriverID == driverID && s.SaleDate.Equal(date) {
			out = append(out, s)
		}
	}
	return out, nil
}
func (r *fakeSales) ListRefillsByDriverSince(context.Context, id.ID, id.ID, time.Time) ([]*events.SaleEvent, error) {
	return nil, nil
}
func (r *fakeSales) ListByProductThrough(context.Context, id.ID, id.ID, types.Date) ([]*events.SaleEvent, error) {
	return nil, nil
}

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- tests ---

func TestRecompute_CashAndCylinderDeltas(t *testing.T) {
	tenantID, driverID := id.New(), id.New()
	day := types.DateOf(2026, 8, 30)

	repo := &fakeRepo{rows: []Balance{{
		TenantID:        tenantID,
		DriverID:        driverID,
		Date:            day.Prev(),
		ClosingCash:     types.MustMoney("1500.50"),
		ClosingCylinder: 25,
	}}}

	// Revenue 10x50=500, deposited 300, discount 50: cash delta +150.
	// Refill qty 10, deposited 8: cylinder delta +2.
	sales := &fakeSales{sales: []*events.SaleEvent{{
		TenantID:           tenantID,
		DriverID:           driverID,
		ProductID:          id.New(),
		Type:               events.SaleRefill,
		Quantity:           10,
		UnitPrice:          types.MustMoney("50"),
		Discount:           types.MustMoney("50"),
		CashDeposited:      types.MustMoney("300"),
		CylindersDeposited: 8,
		SaleDate:           day,
	}}}

	svc := NewService(repo, sales, nopTxManager{})
	result, err := svc.Recompute(context.Background(), tenantID, driverID, day)
	require.NoError(t, err)

	b := result.Balance
	assert.True(t, b.CashChange.Equal(types.MustMoney("150")), "cash change %s", b.CashChange)
	assert.Equal(t, types.Count(2), b.CylinderChange)
	assert.True(t, b.ClosingCash.Equal(types.MustMoney("1650.50")), "closing cash %s", b.ClosingCash)
	assert.Equal(t, types.Count(27), b.ClosingCylinder)
	assert.Equal(t, 0, result.Report.Len())
}

func TestRecompute_NegativeBalancePersistedUnclamped(t *testing.T) {
	tenantID, driverID := id.New(), id.New()
	day := types.DateOf(2026, 8, 30)

	repo := &fakeRepo{}
	// Driver deposits more than the day's revenue and returns more
	// cylinders than sold.
	sales := &fakeSales{sales: []*events.SaleEvent{{
		DriverID:           driverID,
		Type:               events.SaleRefill,
		Quantity:           2,
		UnitPrice:          types.MustMoney("50"),
		CashDeposited:      types.MustMoney("500"),
		CylindersDeposited: 6,
		SaleDate:           day,
	}}}

	svc := NewService(repo, sales, nopTxManager{})
	result, err := svc.Recompute(context.Background(), tenantID, driverID, day)
	require.NoError(t, err)

	b := result.Balance
	assert.True(t, b.ClosingCash.Equal(types.MustMoney("-400")), "closing cash %s", b.ClosingCash)
	assert.Equal(t, types.Count(-4), b.ClosingCylinder)

	negatives := result.Report.ByKind(anomaly.KindNegativeReceivable)
	assert.Len(t, negatives, 2)

	// Stored unclamped.
	stored, err := repo.GetCurrent(context.Background(), tenantID, driverID)
	require.NoError(t, err)
	assert.Equal(t, types.Count(-4), stored.ClosingCylinder)
}

func TestRecompute_OnboardingAnchorUsedWhenNoPriorBeforeDate(t *testing.T) {
	tenantID, driverID := id.New(), id.New()

	// First-ever balance recorded AFTER the date being recomputed; it
	// still anchors the driver's position.
	anchor := types.DateOf(2026, 9, 5)
	day := types.DateOf(2026, 8, 30)

	repo := &fakeRepo{rows: []Balance{{
		TenantID:        tenantID,
		DriverID:        driverID,
		Date:            anchor,
		ClosingCash:     types.MustMoney("200"),
		ClosingCylinder: 3,
	}}}

	sales := &fakeSales{sales: []*events.SaleEvent{{
		DriverID:  driverID,
		Type:      events.SalePackage,
		Quantity:  1,
		UnitPrice: types.MustMoney("100"),
		SaleDate:  day,
	}}}

	svc := NewService(repo, sales, nopTxManager{})
	result, err := svc.Recompute(context.Background(), tenantID, driverID, day)
	require.NoError(t, err)

	assert.True(t, result.Balance.ClosingCash.Equal(types.MustMoney("300")),
		"closing cash %s", result.Balance.ClosingCash)
}

func TestRecompute_ZeroNoiseNoHistoryNoActivity(t *testing.T) {
	tenantID, driverID := id.New(), id.New()
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeSales{}, nopTxManager{})

	result, err := svc.Recompute(context.Background(), tenantID, driverID, types.DateOf(2026, 8, 30))
	require.NoError(t, err)
	assert.Empty(t, repo.rows, "no row materialized")
	assert.Equal(t, 0, result.Report.Len())
}

func TestRecompute_Idempotent(t *testing.T) {
	tenantID, driverID := id.New(), id.New()
	day := types.DateOf(2026, 8, 30)

	repo := &fakeRepo{}
	sales := &fakeSales{sales: []*events.SaleEvent{{
		DriverID:  driverID,
		Type:      events.SalePackage,
		Quantity:  2,
		UnitPrice: types.MustMoney("75"),
		SaleDate:  day,
	}}}

	svc := NewService(repo, sales, nopTxManager{})
	first, err := svc.Recompute(context.Background(), tenantID, driverID, day)
	require.NoError(t, err)
	second, err := svc.Recompute(context.Background(), tenantID, driverID, day)
	require.NoError(t, err)

	// The first run's row must not become the second run's anchor: the
	// day's deltas apply once, not once per run.
	assert.True(t, first.Balance.ClosingCash.Equal(types.MustMoney("150")))
	assert.True(t, second.Balance.ClosingCash.Equal(types.MustMoney("150")))
	assert.Equal(t, first.Balance.ClosingCylinder, second.Balance.ClosingCylinder)
	assert.Len(t, repo.rows, 1)
}

func TestSumSales_PackageSalesReturnNoEmpties(t *testing.T) {
	activity := SumSales([]*events.SaleEvent{
		{Type: events.SalePackage, Quantity: 5, UnitPrice: types.MustMoney("10")},
		{Type: events.SaleRefill, Quantity: 3, UnitPrice: types.MustMoney("10")},
	})

	assert.Equal(t, types.Count(3), activity.RefillQty)
	assert.True(t, activity.Revenue.Equal(types.MustMoney("80")))
}

func TestCurrent_ZeroBalanceForUnknownDriver(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeSales{}, nopTxManager{})

	b, err := svc.Current(context.Background(), id.New(), id.New())
	require.NoError(t, err)
	assert.True(t, b.ClosingCash.IsZero())
	assert.Equal(t, types.Count(0), b.ClosingCylinder)
}
