// Package main is the entry point for the gasledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gasledger/internal/core/tenant"
	"gasledger/internal/domain/allocation"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/internal/domain/catalogs/product"
	"gasledger/internal/domain/costing"
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
	"gasledger/internal/domain/recompute"
	v1 "gasledger/internal/infrastructure/http/v1"
	"gasledger/internal/infrastructure/storage/postgres"
	"gasledger/internal/infrastructure/storage/postgres/baseline_repo"
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

	ctx := context.Background()
	log.Info("starting gasledger server")

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 25); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	registry := tenant.NewPostgresRegistry(pool.Unwrap())

	// --- Repositories ---
	sizeRepo := catalog_repo.NewCylinderSizeRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	saleRepo := event_repo.NewSaleRepo(txManager)
	shipmentRepo := event_repo.NewShipmentRepo(txManager)
	stockRepo := ledger_repo.NewStockRepo(txManager)
	receivableRepo := ledger_repo.NewReceivableRepo(txManager)
	baselineRepo := baseline_repo.NewBaselineRepo(txManager)

	// --- Services ---
	sizeService := cylindersize.NewService(sizeRepo)
	productService := product.NewService(productRepo, sizeRepo)
	stockService := stock.NewService(stockRepo, productRepo, sizeRepo, saleRepo, shipmentRepo, txManager)
	receivableService := receivable.NewService(receivableRepo, saleRepo, txManager)
	allocationEngine := allocation.NewEngine(
		baselineRepo, saleRepo, productRepo, sizeRepo,
		receivableRepo, stockRepo, txManager,
	)
	costingService := costing.NewService(saleRepo, shipmentRepo, txManager)

	journal, err := postgres.NewJournalStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize run journal", "error", err)
	}
	runner := recompute.NewRunner(registry, stockService, receivableService, receivableRepo, journal)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool.Unwrap(),
		Registry:    registry,
		Logger:      log,
		Sizes:       sizeService,
		Products:    productService,
		Sales:       saleRepo,
		Shipments:   shipmentRepo,
		Stocks:      stockService,
		Receivables: receivableService,
		Allocations: allocationEngine,
		Costs:       costingService,
		Runner:      runner,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
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
