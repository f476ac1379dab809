package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/config"
	"github.com/craftline/aps-engine/pkg/database"
	"github.com/craftline/aps-engine/pkg/handlers"
	"github.com/craftline/aps-engine/pkg/logging"
	"github.com/craftline/aps-engine/pkg/middleware"
	"github.com/craftline/aps-engine/pkg/planning"
	"github.com/craftline/aps-engine/pkg/repositories"
	"github.com/craftline/aps-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.String("redis", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)),
		zap.Int("default_horizon_days", cfg.Scheduling.DefaultHorizonDays))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		// Connection errors can echo the DSN, so redact before logging.
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	if err := database.RunMigrations(db, "migrations", logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
	}

	// Redis is optional; without it every schedule read goes to PostgreSQL.
	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	products := repositories.NewProductRepository(db)
	lines := repositories.NewProductionLineRepository(db)
	stations := repositories.NewProcessStationRepository(db)
	routes := repositories.NewProcessRouteRepository(db)
	capabilities := repositories.NewLineCapabilityRepository(db)
	orders := repositories.NewOrderRepository(db)
	schedule := repositories.NewScheduleRepository(db)

	params := planning.Params{
		Calendar: planning.WorkCalendar{
			StartHour:        cfg.Scheduling.WorkDayStartHour,
			EndHour:          cfg.Scheduling.WorkDayEndHour,
			MaxOvertimeHours: cfg.Scheduling.MaxOvertimeHours,
		},
		DefaultChangeoverMinutes: cfg.Scheduling.DefaultChangeoverMinutes,
		OvertimeCostPerHour:      cfg.Scheduling.OvertimeCostPerHour,
	}

	loader := services.NewSnapshotLoader(products, lines, stations, routes, capabilities, orders, schedule, logger)
	cacheTTL := time.Duration(cfg.Scheduling.ScheduleCacheTTLSeconds) * time.Second
	cache := services.NewScheduleCache(redisClient, cacheTTL, logger)
	scheduleService := services.NewScheduleService(loader, schedule, cache, params, cfg.Scheduling.DefaultHorizonDays, logger)
	simulationService := services.NewSimulationService(loader, params, logger)
	capabilityService := services.NewCapabilityService(capabilities, lines, routes, products, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProductHandler(products, logger).RegisterRoutes(mux)
	handlers.NewProductionLineHandler(lines, stations, logger).RegisterRoutes(mux)
	handlers.NewOrderHandler(orders, logger).RegisterRoutes(mux)
	handlers.NewProcessRouteHandler(routes, products, logger).RegisterRoutes(mux)
	handlers.NewScheduleHandler(scheduleService, logger).RegisterRoutes(mux)
	handlers.NewSimulationHandler(simulationService, logger).RegisterRoutes(mux)
	handlers.NewCapabilityHandler(capabilityService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting aps-engine", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
