package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adfeed/backend/internal/application/catalogapp"
	"github.com/adfeed/backend/internal/application/feedapp"
	"github.com/adfeed/backend/internal/application/importapp"
	"github.com/adfeed/backend/internal/application/syncapp"
	domainsync "github.com/adfeed/backend/internal/domain/sync"
	"github.com/adfeed/backend/internal/infrastructure/config"
	"github.com/adfeed/backend/internal/infrastructure/feedspec"
	"github.com/adfeed/backend/internal/infrastructure/lock"
	"github.com/adfeed/backend/internal/infrastructure/logger"
	"github.com/adfeed/backend/internal/infrastructure/persistence"
	"github.com/adfeed/backend/internal/infrastructure/platform"
	"github.com/adfeed/backend/internal/infrastructure/storage"
	"github.com/adfeed/backend/internal/interfaces/http/handler"
	"github.com/adfeed/backend/internal/interfaces/http/middleware"
	"github.com/adfeed/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ad feed backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	catalogRepo := persistence.NewGormCatalogRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customizationRepo := persistence.NewGormCustomizationRepository(db.DB)
	conflictRepo := persistence.NewGormConflictRepository(db.DB)
	syncJobRepo := persistence.NewGormSyncJobRepository(db.DB)
	importJobRepo := persistence.NewGormImportJobRepository(db.DB)
	feedRepo := persistence.NewGormFeedRepository(db.DB)

	// Catalog locker: Redis when reachable so multiple instances can share
	// locks, in-memory otherwise
	locker := newCatalogLocker(cfg, log)

	// Artifact store for feed files and import uploads
	store, err := newArtifactStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize artifact store", zap.Error(err))
	}
	log.Info("Artifact store initialized", zap.String("driver", cfg.Storage.Driver))

	// Product source on the core commerce platform
	source := newProductSource(cfg, log)

	// Built-in ad network feed specifications
	specs := feedspec.NewBuiltinRegistry()

	// Initialize application services
	catalogService := catalogapp.NewCatalogService(
		catalogRepo, productRepo, customizationRepo, conflictRepo,
		syncJobRepo, importJobRepo, feedRepo,
	)
	productService := catalogapp.NewProductService(catalogRepo, productRepo, customizationRepo)
	conflictService := catalogapp.NewConflictService(conflictRepo, productRepo)
	syncService := syncapp.NewSyncService(
		catalogRepo, productRepo, conflictRepo, syncJobRepo,
		source, locker, cfg.Sync, log,
	)
	importService := importapp.NewImportService(
		catalogRepo, productRepo, conflictRepo, importJobRepo,
		store, locker, cfg.Import, log,
	)
	feedService := feedapp.NewFeedService(
		catalogRepo, productRepo, customizationRepo, feedRepo,
		specs, store, cfg.Feed, log,
	)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router with the standard middleware chain
	r := router.New(router.Config{
		APIVersion: "v1",
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		MaxBodyBytes: cfg.HTTP.MaxBodySize,
		Logger:       log,
	})

	r.Register(handler.NewSystemHandler(db.DB, version)).
		Register(handler.NewCatalogHandler(catalogService)).
		Register(handler.NewProductHandler(productService)).
		Register(handler.NewConflictHandler(conflictService)).
		Register(handler.NewSyncHandler(syncService)).
		Register(handler.NewImportHandler(importService)).
		Register(handler.NewFeedHandler(feedService))

	engine := r.Setup()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

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

	// Let in-flight sync, import and feed generation runs finish so jobs
	// are not left marked running with no worker behind them
	log.Info("Draining background jobs...")
	syncService.Wait()
	importService.Wait()
	feedService.Wait()

	log.Info("Server exited gracefully")
}

// newCatalogLocker prefers the Redis lease locker and falls back to the
// in-memory one when Redis is not reachable at startup
func newCatalogLocker(cfg *config.Config, log *zap.Logger) lock.CatalogLocker {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Redis is required in production", zap.Error(err))
		}
		log.Warn("Redis unreachable, using in-memory catalog locks",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err),
		)
		_ = client.Close()
		return lock.NewMemoryCatalogLocker()
	}

	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	return lock.NewRedisCatalogLocker(client, "")
}

// newArtifactStore builds the artifact store selected by storage.driver
func newArtifactStore(cfg *config.Config) (storage.ArtifactStore, error) {
	if cfg.Storage.Driver == "s3" {
		return storage.NewS3ArtifactStore(&cfg.Storage)
	}
	return storage.NewLocalArtifactStore(cfg.Storage.LocalDir)
}

// newProductSource builds the platform client, or a fake source in
// development when no platform URL is configured so syncs can be exercised
// locally
func newProductSource(cfg *config.Config, log *zap.Logger) domainsync.ProductSource {
	if cfg.Platform.BaseURL == "" {
		log.Warn("platform.base_url not configured, sync will use an empty fake source")
		return platform.NewFakeProductSource(nil)
	}
	source, err := platform.NewHTTPProductSource(cfg.Platform)
	if err != nil {
		log.Fatal("Failed to initialize platform client", zap.Error(err))
	}
	return source
}
