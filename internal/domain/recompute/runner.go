package recompute

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gasledger/internal/core/anomaly"
	"gasledger/internal/core/apperror"
	"gasledger/internal/core/id"
	"gasledger/internal/core/reqctx"
	"gasledger/internal/core/tenant"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
	"gasledger/pkg/logger"
)

// Runner executes a day's recomputation for one or all tenants. Units
// for different drivers are embarrassingly parallel; units for the same
// key are serialized by construction (one unit per key per run) and by
// the repositories' transactional upserts.
type Runner struct {
	registry    tenant.Registry
	stocks      *stock.Service
	receivables *receivable.Service
	drivers     receivable.Repository
	journal     JournalWriter

	// Workers bounds concurrent driver units per tenant.
	Workers int
}

// NewRunner creates a batch recompute runner.
func NewRunner(
	registry tenant.Registry,
	stocks *stock.Service,
	receivables *receivable.Service,
	drivers receivable.Repository,
	journal JournalWriter,
) *Runner {
	return &Runner{
		registry:    registry,
		stocks:      stocks,
		receivables: receivables,
		drivers:     drivers,
		journal:     journal,
		Workers:     4,
	}
}

// TenantResult summarizes one tenant's run.
type TenantResult struct {
	TenantID    id.ID
	Units       int
	FailedUnits int
	Report      anomaly.Report
	Failures    []string
}

// BatchResult summarizes a whole-fleet run.
type BatchResult struct {
	Tenants []TenantResult

	// Skipped counts tenants not processed because the run was
	// cancelled. Cancellation is cooperative at the tenant-loop
	// boundary only; a tenant in flight finishes.
	Skipped int
}

// RunAll recomputes the given date for every active tenant.
func (r *Runner) RunAll(ctx context.Context, date types.Date) (*BatchResult, error) {
	tenants, err := r.registry.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	result := &BatchResult{}
	for i, t := range tenants {
		if ctx.Err() != nil {
			result.Skipped = len(tenants) - i
			logger.Warn(ctx, "batch recompute cancelled",
				"processed", i,
				"skipped", result.Skipped,
			)
			break
		}

		tr, err := r.RunTenant(ctx, t.ID, date)
		if err != nil {
			// A broken tenant must not abort the fleet.
			logger.Error(ctx, "tenant recompute failed",
				"tenant_id", t.ID,
				"error", err,
			)
			result.Tenants = append(result.Tenants, TenantResult{
				TenantID:    t.ID,
				FailedUnits: 1,
				Failures:    []string{err.Error()},
			})
			continue
		}
		result.Tenants = append(result.Tenants, *tr)
	}

	return result, nil
}

// RunTenant recomputes the given date for one tenant: the stock ledger
// first, then receivables per driver in parallel.
func (r *Runner) RunTenant(ctx context.Context, tenantID id.ID, date types.Date) (*TenantResult, error) {
	// Unknown or inactive tenant is the only fatal condition for a unit.
	if _, err := r.registry.RequireActive(ctx, tenantID); err != nil {
		return nil, apperror.NewUnknownTenant(tenantID.String()).WithCause(err)
	}

	ctx = reqctx.WithTenant(ctx, tenantID)
	result := &TenantResult{TenantID: tenantID}

	// Stock is one unit: all products and sizes share the day's fact
	// fetch and one upsert transaction.
	result.Units++
	stockRes, err := r.stocks.Recompute(ctx, tenantID, date, stock.RecomputeOptions{})
	if err != nil {
		result.FailedUnits++
		result.Failures = append(result.Failures, fmt.Sprintf("stock: %v", err))
	} else {
		result.Report.Merge(&stockRes.Report)
	}

	driverIDs, err := r.drivers.ListDriversWithActivity(ctx, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.workers())
	)

	for _, driverID := range driverIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(driverID id.ID) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := r.receivables.Recompute(ctx, tenantID, driverID, date)

			mu.Lock()
			defer mu.Unlock()
			result.Units++
			if err != nil {
				result.FailedUnits++
				result.Failures = append(result.Failures, fmt.Sprintf("driver %s: %v", driverID, err))
				return
			}
			result.Report.Merge(&res.Report)
		}(driverID)
	}
	wg.Wait()

	entry := RunEntry{
		ID:          id.New(),
		TenantID:    tenantID,
		RunAt:       time.Now().UTC(),
		Date:        date,
		Units:       result.Units,
		FailedUnits: result.FailedUnits,
		Anomalies:   result.Report.All(),
		Failures:    result.Failures,
	}
	if err := r.journal.Write(ctx, entry); err != nil {
		// Journal trouble is not worth failing a completed run over.
		logger.Warn(ctx, "journal write failed", "error", err)
	}

	logger.Info(ctx, "tenant recompute finished",
		"date", date.String(),
		"units", result.Units,
		"failed_units", result.FailedUnits,
		"anomalies", result.Report.Len(),
	)

	return result, nil
}

func (r *Runner) workers() int {
	if r.Workers <= 0 {
		return 1
	}
	return r.Workers
}
