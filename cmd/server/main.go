package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	ledgerapp "github.com/stockledger/backend/internal/application/ledger"
	procurementapp "github.com/stockledger/backend/internal/application/procurement"
	"github.com/stockledger/backend/internal/domain/procurement"
	"github.com/stockledger/backend/internal/infrastructure/config"
	"github.com/stockledger/backend/internal/infrastructure/lock"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stockledger/backend/internal/interfaces/http/handler"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"github.com/stockledger/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting stockledger engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Concurrency-control backend: in-process keyed mutexes for a single
	// instance, redislock when several instances share the database.
	var locks lock.Manager
	switch cfg.Locking.Mode {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		locks = lock.NewRedisManager(redisClient, cfg.Locking.TTL, log)
		log.Info("Distributed locking enabled", zap.String("redis", cfg.Redis.Addr()))
	default:
		locks = lock.NewKeyedManager()
	}

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	entryRepo := persistence.NewGormJournalEntryRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	lotRepo := persistence.NewGormStockLotRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	receiptRepo := persistence.NewGormGoodsReceiptRepository(db.DB)
	invoiceRepo := persistence.NewGormSupplierInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormSupplierPaymentRepository(db.DB)

	// Transaction scopes
	ledgerScope := persistence.NewGormLedgerTransactionScope(db.DB)
	inventoryScope := persistence.NewGormInventoryTransactionScope(db.DB)
	procurementScope := persistence.NewGormProcurementTransactionScope(db.DB)

	matchingCfg := procurement.MatchingConfig{
		TolerancePct:        decimal.NewFromFloat(cfg.Matching.TolerancePct),
		HighVariancePct:     decimal.NewFromFloat(cfg.Matching.HighVariancePct),
		MissingInvoiceGrace: cfg.Matching.MissingInvoiceGrace,
	}

	// Initialize application services
	postingService := ledgerapp.NewPostingService(ledgerScope, accountRepo, entryRepo, log)
	movementService := inventoryapp.NewMovementService(
		inventoryScope, locks, itemRepo, lotRepo, movementRepo, log)
	purchaseOrderService := procurementapp.NewPurchaseOrderService(procurementScope, purchaseOrderRepo, log)
	goodsReceiptService := procurementapp.NewGoodsReceiptService(procurementScope, locks, receiptRepo, log)
	invoiceService := procurementapp.NewInvoiceService(procurementScope, invoiceRepo, matchingCfg, log)
	paymentService := procurementapp.NewPaymentService(procurementScope, locks, paymentRepo, invoiceRepo, log)

	movementService.SetLockTimeout(cfg.Locking.AcquireTimeout)
	goodsReceiptService.SetLockTimeout(cfg.Locking.AcquireTimeout)
	paymentService.SetLockTimeout(cfg.Locking.AcquireTimeout)

	// The engine accounts must exist before anything can post
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postingService.EnsureEngineAccounts(startupCtx); err != nil {
		cancelStartup()
		log.Fatal("Failed to seed engine accounts", zap.Error(err))
	}
	cancelStartup()

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Register domain handlers
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewLedgerHandler(postingService)).
		Register(handler.NewInventoryHandler(movementService)).
		Register(handler.NewProcurementHandler(
			purchaseOrderService, goodsReceiptService, invoiceService, paymentService))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
