// Package main provides the main entry point for the event funnel API
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/event-funnel/app/handlers"
	"github.com/amirphl/event-funnel/app/middleware"
	"github.com/amirphl/event-funnel/app/router"
	"github.com/amirphl/event-funnel/app/scheduler"
	"github.com/amirphl/event-funnel/app/services"
	businessflow "github.com/amirphl/event-funnel/business_flow"
	"github.com/amirphl/event-funnel/config"
	"github.com/amirphl/event-funnel/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	db        *gorm.DB
	cache     *redis.Client
	stopFuncs []func()
}

func main() {
	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logOutput := initializeLogging(cfg.Logging)
	log.Printf("Starting event funnel %s (%s)...", cfg.Deployment.Version, cfg.Deployment.Environment)

	app, err := initializeApplication(cfg, logOutput)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Stop background workers after in-flight requests drained
	for _, fn := range app.stopFuncs {
		fn()
	}

	if app.cache != nil {
		_ = app.cache.Close()
	}
	if sqlDB, err := app.db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("Server stopped")
}

// initializeLogging points the std logger at stdout, a rotating file, or both.
// The returned writer is shared with the HTTP access log.
func initializeLogging(cfg config.LoggingConfig) io.Writer {
	var out io.Writer = os.Stdout
	if cfg.Output == "file" || cfg.Output == "both" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		out = rotating
		if cfg.Output == "both" {
			out = io.MultiWriter(os.Stdout, rotating)
		}
	}
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.LUTC)
	return out
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.SlowQueryLog {
		gormCfg.Logger = logger.New(log.Default(), logger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity.
// A nil client means the service runs without redis.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		log.Println("Redis disabled: link lookups hit the database, visits are not deduplicated")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis and logs the link cache breaker state.
// The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, linkCache *services.MarketingLinkCache, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if client == nil {
		return cancel
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v (link cache breaker %s)", err, linkCache.BreakerState())
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication wires repositories, pipeline components, flows and handlers
func initializeApplication(cfg *config.ProductionConfig, logOutput io.Writer) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Repositories
	campaignRepo := repository.NewSurveyCampaignRepository(db)
	linkRepo := repository.NewMarketingLinkRepository(db)
	entryRepo := repository.NewSurveyEntryRepository(db)
	formRepo := repository.NewFormSubmissionRepository(db)
	visitRepo := repository.NewCampaignVisitRepository(db)
	statsRepo := repository.NewMarketingStatDailyRepository(db)

	// Services
	tokenService, err := services.NewTokenService(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.Leeway)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	linkCache := services.NewMarketingLinkCache(rc, linkRepo, services.LinkCacheConfig{
		Prefix:          cfg.Cache.RedisPrefix,
		TTL:             cfg.Cache.LinkTTL,
		BreakerFailures: cfg.Cache.BreakerFailures,
		BreakerTimeout:  cfg.Cache.BreakerTimeout,
	})
	visitDedup := services.NewRedisVisitDeduplicator(rc, cfg.Cache.RedisPrefix, cfg.Tracking.VisitDedupWindow)

	stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, linkCache, cfg.Cache.HealthCheckInterval))

	// Pipeline components
	resolver := businessflow.NewAttributionResolver(linkCache, cfg.Tracking.CookieTrustWindow)
	allocator := businessflow.NewSequenceAllocator(campaignRepo)
	codes := businessflow.NewConfirmationCodeGenerator(entryRepo, cfg.Tracking.CodeAttempts)
	linker := businessflow.NewVisitLinker(visitRepo)

	// Flows
	submissionFlow := businessflow.NewSubmissionFlow(campaignRepo, entryRepo, formRepo, resolver, allocator, codes, linker)
	visitFlow := businessflow.NewVisitFlow(campaignRepo, visitRepo, linkCache, visitDedup)
	linkFlow := businessflow.NewMarketingLinkFlow(campaignRepo, linkRepo, linkCache, cfg.Tracking.PublicBaseURL, cfg.Tracking.CIDAttempts)
	statsFlow := businessflow.NewMarketingStatsFlow(campaignRepo, statsRepo)
	exportFlow := businessflow.NewEntryExportFlow(campaignRepo, entryRepo)

	// Handlers
	cookieSettings := handlers.CookieSettings{
		Secure:     cfg.Security.CookieSecure,
		SameSite:   cfg.Security.CookieSameSite,
		Domain:     cfg.Security.CookieDomain,
		SessionTTL: cfg.Tracking.SessionCookieTTL,
	}
	h := router.Handlers{
		Submission:    handlers.NewSubmissionHandler(submissionFlow),
		Visit:         handlers.NewVisitHandler(visitFlow, cookieSettings),
		MarketingLink: handlers.NewMarketingLinkHandler(linkFlow),
		Report:        handlers.NewCampaignReportHandler(exportFlow, statsFlow),
	}

	probes := map[string]router.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rc != nil {
		probes["redis"] = func(ctx context.Context) error {
			return rc.Ping(ctx).Err()
		}
	}

	fiberRouter := router.NewFiberRouter(cfg, h, middleware.NewAuthMiddleware(tokenService), probes, logOutput)

	if cfg.Scheduler.StatsEnabled {
		lock := services.NewRedisLock(rc, cfg.Cache.RedisPrefix+"lock:marketing-stats", cfg.Scheduler.StatsLockTTL)
		statsScheduler := scheduler.NewMarketingStatsScheduler(statsFlow, lock, cfg.Scheduler)
		stop, err := statsScheduler.Start(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to start marketing stats scheduler: %w", err)
		}
		stopFuncs = append(stopFuncs, stop)
	}

	return &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		db:        db,
		cache:     rc,
		stopFuncs: stopFuncs,
	}, nil
}
