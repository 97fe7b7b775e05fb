// Package main provides the main entry point for the operator ranking service
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

	"github.com/amirphl/operator-ranking/app/handlers"
	"github.com/amirphl/operator-ranking/app/middleware"
	"github.com/amirphl/operator-ranking/app/router"
	"github.com/amirphl/operator-ranking/app/scheduler"
	"github.com/amirphl/operator-ranking/app/services"
	businessflow "github.com/amirphl/operator-ranking/business_flow"
	"github.com/amirphl/operator-ranking/config"
	"github.com/amirphl/operator-ranking/ranking"
	"github.com/amirphl/operator-ranking/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
	closers   []io.Closer
}

func main() {
	log.Println("Starting operator ranking service...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closers := initializeLogging(cfg.Logging)
	log.Printf("Build version=%s commit=%s built=%s env=%s",
		cfg.Deployment.Version, cfg.Deployment.CommitHash, cfg.Deployment.BuildTime, cfg.Deployment.Environment)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	app.closers = append(app.closers, closers...)

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

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	for _, c := range app.closers {
		_ = c.Close()
	}

	log.Println("Server stopped")
}

// initializeLogging routes the standard logger to stdout, a rotated file, or both.
func initializeLogging(cfg config.LoggingConfig) []io.Closer {
	var closers []io.Closer
	var writers []io.Writer

	if cfg.Output == "file" || cfg.Output == "both" {
		file := rotatingFile(cfg, cfg.FilePath)
		closers = append(closers, file)
		writers = append(writers, file)
	}
	if cfg.Output == "stdout" || cfg.Output == "both" || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	flags := log.LstdFlags | log.LUTC
	if cfg.EnableCaller {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)
	log.SetOutput(io.MultiWriter(writers...))
	return closers
}

func rotatingFile(cfg config.LoggingConfig, path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormCfg := &gorm.Config{}
	if cfg.SlowQueryLog {
		gormCfg.Logger = gormlogger.New(log.Default(), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
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
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
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

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()
	var closers []io.Closer

	// The dashboard keeps serving demo data while the database is down
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		log.Printf("Database unavailable, serving demo data: %v", err)
		db = nil
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		log.Printf("Cache unavailable, rankings will not be cached: %v", err)
		rc = nil
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, scheduler.StartCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval))
		closers = append(closers, rc)
	}

	var (
		adminRepo    repository.AdminRepository
		operatorRepo repository.OperatorRepository
		variableRepo repository.ControlVariableRepository
		incidentRepo repository.IncidentRepository
		auditRepo    repository.UploadAuditRepository
		source       ranking.RecordSource
		sink         ranking.RecordSink
	)
	if db != nil {
		adminRepo = repository.NewAdminRepository(db)
		operatorRepo = repository.NewOperatorRepository(db)
		variableRepo = repository.NewControlVariableRepository(db)
		incidentRepo = repository.NewIncidentRepository(db)
		auditRepo = repository.NewUploadAuditRepository(db)

		store := repository.NewRankingStore(operatorRepo, variableRepo, incidentRepo)
		source = store
		sink = store
	}

	engine := ranking.NewEngine(source, ranking.Config{
		DailyRate:        cfg.Ranking.DailyRate,
		LookbackMonths:   cfg.Ranking.LookbackMonths,
		DefaultBaseBonus: cfg.Ranking.DefaultBaseBonus,
		DemoFallback:     cfg.Ranking.DemoFallback,
	})

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	rankingFlow := businessflow.NewRankingFlow(engine, rc, &cfg.Cache)
	uploadFlow := businessflow.NewUploadFlow(
		operatorRepo,
		variableRepo,
		incidentRepo,
		auditRepo,
		sink,
		rankingFlow,
		cfg.Upload,
		db,
	)
	adminAuthFlow := businessflow.NewAdminAuthFlow(adminRepo, tokenService)

	if db != nil && cfg.Admin.Username != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := adminAuthFlow.EnsureBootstrapAdmin(ctx, cfg.Admin.Username, cfg.Admin.PasswordHash)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to ensure bootstrap admin: %w", err)
		}
	}

	// Initialize handlers
	rankingHandler := handlers.NewRankingHandler(rankingFlow)
	uploadHandler := handlers.NewUploadHandler(uploadFlow)
	adminHandler := handlers.NewAdminHandler(adminAuthFlow)
	healthHandler := handlers.NewHealthHandler(cfg.Deployment.Version, healthCheckers(db, rc))

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	var accessLog io.Writer
	if cfg.Logging.EnableAccessLog && cfg.Logging.AccessLogPath != "" {
		file := rotatingFile(cfg.Logging, cfg.Logging.AccessLogPath)
		closers = append(closers, file)
		accessLog = file
	}

	appRouter := router.NewFiberRouter(
		cfg,
		rankingHandler,
		uploadHandler,
		adminHandler,
		healthHandler,
		authMiddleware,
		accessLog,
	)

	if cfg.Scheduler.RankingWarmupEnabled {
		warmer := scheduler.NewRankingWarmer(rankingFlow, rc, cfg.Cache, cfg.Scheduler, cfg.Logging)
		stopFuncs = append(stopFuncs, warmer.Start(context.Background()))
	}

	fiberRouter := appRouter.(*router.FiberRouter)
	return &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
		closers:   closers,
	}, nil
}

// healthCheckers reports a missing dependency as disabled rather than down.
func healthCheckers(db *gorm.DB, rc *redis.Client) map[string]handlers.HealthChecker {
	checkers := map[string]handlers.HealthChecker{}
	if db != nil {
		checkers["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	} else {
		checkers["database"] = nil
	}
	if rc != nil {
		checkers["cache"] = func(ctx context.Context) error {
			return rc.Ping(ctx).Err()
		}
	} else {
		checkers["cache"] = nil
	}
	return checkers
}
