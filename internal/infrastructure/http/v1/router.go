// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"gasledger/internal/core/tenant"
	"gasledger/internal/domain/allocation"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/internal/domain/catalogs/product"
	"gasledger/internal/domain/costing"
	"gasledger/internal/domain/events"
	"gasledger/internal/domain/ledger/receivable"
	"gasledger/internal/domain/ledger/stock"
	"gasledger/internal/domain/recompute"
	"gasledger/internal/infrastructure/http/v1/handlers"
	"gasledger/internal/infrastructure/http/v1/middleware"
	"gasledger/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool     *pgxpool.Pool
	Registry tenant.Registry
	Logger   *logger.Logger

	Sizes    *cylindersize.Service
	Products *product.Service

	Sales     events.SaleRepository
	Shipments events.ShipmentRepository

	Stocks      *stock.Service
	Receivables *receivable.Service
	Allocations *allocation.Engine
	Costs       *costing.Service
	Runner      *recompute.Runner
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	// API v1 - every route below requires a resolved active tenant.
	api := router.Group("/api/v1")
	api.Use(middleware.Tenant(cfg.Registry))

	catalogHandler := handlers.NewCatalogHandler(cfg.Sizes, cfg.Products)
	catalog := api.Group("/catalog")
	{
		catalog.POST("/sizes", catalogHandler.CreateCylinderSize)
		catalog.GET("/sizes", catalogHandler.ListCylinderSizes)
		catalog.POST("/sizes/:sizeID/deactivate", catalogHandler.DeactivateCylinderSize)
		catalog.DELETE("/sizes/:sizeID", catalogHandler.RemoveCylinderSize)

		catalog.POST("/products", catalogHandler.CreateProduct)
		catalog.GET("/products", catalogHandler.ListProducts)
		catalog.PUT("/products/:productID/price", catalogHandler.UpdateProductPrice)
	}

	eventsHandler := handlers.NewEventsHandler(cfg.Sales, cfg.Shipments)
	eventsGroup := api.Group("/events")
	{
		eventsGroup.POST("/sales", eventsHandler.RecordSales)
		eventsGroup.POST("/shipments", eventsHandler.RecordShipments)
	}

	ledgerHandler := handlers.NewLedgerHandler(cfg.Stocks, cfg.Receivables, cfg.Runner)
	ledger := api.Group("/ledger")
	{
		ledger.POST("/recompute", ledgerHandler.RunTenant)
		ledger.POST("/stock/recompute", ledgerHandler.RecomputeStock)
		ledger.GET("/stock/:productID/current", ledgerHandler.CurrentStock)
		ledger.GET("/empties/:sizeID/current", ledgerHandler.CurrentEmptyStock)
		ledger.POST("/receivables/:driverID/recompute", ledgerHandler.RecomputeReceivable)
		ledger.GET("/receivables/:driverID/current", ledgerHandler.CurrentReceivable)
	}

	allocationHandler := handlers.NewAllocationHandler(cfg.Allocations)
	allocations := api.Group("/allocations")
	{
		allocations.GET("/:driverID", allocationHandler.AllocateBySize)
		allocations.POST("/:driverID/baselines", allocationHandler.SeedBaselines)
		allocations.PUT("/:driverID/baselines/:sizeID", allocationHandler.CorrectBaseline)
	}

	costingHandler := handlers.NewCostingHandler(cfg.Costs)
	api.GET("/costing/:productID", costingHandler.ComputeCOGS)

	return router
}
