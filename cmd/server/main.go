package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	allocationapp "github.com/steelerp/backend/internal/application/allocation"
	inventoryapp "github.com/steelerp/backend/internal/application/inventory"
	"github.com/steelerp/backend/internal/domain/allocation"
	"github.com/steelerp/backend/internal/infrastructure/cache"
	"github.com/steelerp/backend/internal/infrastructure/config"
	"github.com/steelerp/backend/internal/infrastructure/ledger"
	"github.com/steelerp/backend/internal/infrastructure/logger"
	"github.com/steelerp/backend/internal/infrastructure/persistence"
	"github.com/steelerp/backend/internal/interfaces/http/handler"
	"github.com/steelerp/backend/internal/interfaces/http/middleware"
	"github.com/steelerp/backend/internal/interfaces/http/router"
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
		_ = log.Sync()
	}()

	log.Info("Starting steel ERP backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Stock ledger client. The ledger owns all stock state; everything this
	// server does goes through it.
	ledgerClient := ledger.NewHTTPClient(cfg.Ledger.BaseURL, cfg.Ledger.RequestTimeout)
	log.Info("Stock ledger client configured",
		zap.String("base_url", cfg.Ledger.BaseURL),
		zap.Duration("timeout", cfg.Ledger.RequestTimeout),
	)

	// Batch snapshot cache: Redis when configured, in-process otherwise.
	var snapshotCache cache.SnapshotCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisSnapshotCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory snapshot cache", zap.Error(err))
			snapshotCache = cache.NewInMemorySnapshotCache(cfg.Redis.TTL)
		} else {
			log.Info("Redis snapshot cache connected", zap.String("addr", cfg.Redis.Addr()))
			snapshotCache = redisCache
		}
	} else {
		snapshotCache = cache.NewInMemorySnapshotCache(cfg.Redis.TTL)
	}

	// Reallocation audit store. The audit trail is best-effort: a missing
	// database degrades history to empty instead of blocking startup.
	var db *persistence.Database
	var auditRepo *persistence.GormReallocationRepository
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err = persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Warn("Audit database unavailable, reallocation history disabled", zap.Error(err))
		db = nil
	} else {
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate audit database", zap.Error(err))
		}
		auditRepo = persistence.NewGormReallocationRepository(db.DB)
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		log.Info("Audit database connected")
	}

	// Application services. The snapshot session is shared so a committed
	// reallocation invalidates snapshot fetches already in flight.
	session := &allocation.SnapshotSession{}
	allocationService := allocationapp.NewAllocationService(ledgerClient, snapshotCache, session, log)
	var audit allocation.ReallocationRepository
	if auditRepo != nil {
		audit = auditRepo
	}
	reallocationService := allocationapp.NewReallocationService(ledgerClient, snapshotCache, session, audit, log)
	previewer := inventoryapp.NewDeductionPreviewer(ledgerClient, cfg.Stock.LowStockRatio, cfg.Ledger.MaxConcurrency, log)
	aggregator := inventoryapp.NewWarehouseStockAggregator(ledgerClient, cfg.Ledger.MaxConcurrency, log)

	// HTTP handlers
	allocationHandler := handler.NewAllocationHandler(allocationService, reallocationService)
	stockHandler := handler.NewStockHandler(previewer, aggregator)

	// Setup Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(allocationHandler).
		Register(stockHandler)
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

// healthHandler reports process and audit database health. The audit
// database is optional, so a missing one reports as disabled, not unhealthy.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		database := "disabled"
		if db != nil {
			if err := db.Ping(); err != nil {
				logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"time":     time.Now().Format(time.RFC3339),
					"database": "error",
				})
				return
			}
			database = "ok"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
		})
	}
}
