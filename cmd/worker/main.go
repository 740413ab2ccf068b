// Package main is the entry point for the gasledger reconciliation
// worker. It runs the nightly close for every active tenant and can
// backfill a date range on demand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gasledger/internal/core/tenant"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
	"gasledger/internal/domain/recompute"
	"gasledger/internal/infrastructure/storage/postgres"
	"gasledger/internal/infrastructure/storage/postgres/catalog_repo"
	"gasledger/internal/infrastructure/storage/postgres/event_repo"
	"gasledger/internal/infrastructure/storage/postgres/ledger_repo"
	"gasledger/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting gasledger worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	registry := tenant.NewPostgresRegistry(pool.Unwrap())

	sizeRepo := catalog_repo.NewCylinderSizeRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	saleRepo := event_repo.NewSaleRepo(txManager)
	shipmentRepo := event_repo.NewShipmentRepo(txManager)
	stockRepo := ledger_repo.NewStockRepo(txManager)
	receivableRepo := ledger_repo.NewReceivableRepo(txManager)

	stockService := stock.NewService(stockRepo, productRepo, sizeRepo, saleRepo, shipmentRepo, txManager)
	receivableService := receivable.NewService(receivableRepo, saleRepo, txManager)

	journal, err := postgres.NewJournalStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize run journal", "error", err)
	}

	runner := recompute.NewRunner(registry, stockService, receivableService, receivableRepo, journal)
	if workers := getEnvInt("RECONCILE_WORKERS", 4); workers > 0 {
		runner.Workers = workers
	}

	worker := NewCloseWorker(runner, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// CloseWorker runs the daily close across all tenants. The close
// recomputes yesterday's ledgers shortly after midnight UTC, then
// re-checks hourly so late-arriving events still land on the right day.
type CloseWorker struct {
	runner *recompute.Runner
	log    *logger.Logger
}

func NewCloseWorker(runner *recompute.Runner, log *logger.Logger) *CloseWorker {
	return &CloseWorker{
		runner: runner,
		log:    log.WithComponent("close-worker"),
	}
}

// Run blocks until ctx is cancelled.
func (w *CloseWorker) Run(ctx context.Context) {
	// First close on startup, then hourly.
	w.close(ctx)

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.close(ctx)
		}
	}
}

func (w *CloseWorker) close(ctx context.Context) {
	date := types.NewDate(time.Now().UTC()).Prev()

	start := time.Now()
	result, err := w.runner.RunAll(ctx, date)
	if err != nil {
		w.log.Errorw("daily close failed", "date", date, "error", err)
		return
	}

	units, failed := 0, 0
	for _, t := range result.Tenants {
		units += t.Units
		failed += t.FailedUnits
	}

	w.log.Infow("daily close finished",
		"date", date,
		"tenants", len(result.Tenants),
		"skipped", result.Skipped,
		"units", units,
		"failed_units", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
