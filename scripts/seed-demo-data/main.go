// seed-demo-data loads the embedded demo dataset (products, production lines,
// stations, capabilities, process routes, and open orders) into the database.
//
// By default the load is skipped when products already exist, so the command
// is safe to re-run. Pass -force to insert regardless; the rows must not
// conflict with existing ones.
//
// Usage: go run ./scripts/seed-demo-data [-force]
//
// Database connection: read from config.yaml with PG* environment variable
// overrides, the same way the server reads it. Migrations run first.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/config"
	"github.com/craftline/aps-engine/pkg/database"
	"github.com/craftline/aps-engine/pkg/logging"
	"github.com/craftline/aps-engine/pkg/repositories"
	"github.com/craftline/aps-engine/pkg/seed"
)

func main() {
	force := flag.Bool("force", false, "Load the dataset even when products already exist")
	flag.Parse()

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	if err := run(*force, logger); err != nil {
		fmt.Fprintf(os.Stderr, "seed-demo-data: %s\n", logging.SanitizeError(err))
		os.Exit(1)
	}
}

func run(force bool, logger *zap.Logger) error {
	cfg, err := config.Load("dev")
	if err != nil {
		return err
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db, "migrations", logger); err != nil {
		return err
	}

	loader := seed.NewLoader(
		repositories.NewProductRepository(db),
		repositories.NewProductionLineRepository(db),
		repositories.NewProcessStationRepository(db),
		repositories.NewProcessRouteRepository(db),
		repositories.NewLineCapabilityRepository(db),
		repositories.NewOrderRepository(db),
		logger,
	)

	var counts *seed.Counts
	if force {
		counts, err = loader.Load(ctx, time.Now())
	} else {
		counts, err = loader.LoadIfEmpty(ctx, time.Now())
	}
	if err != nil {
		return err
	}

	if counts == nil {
		fmt.Println("Products already exist; nothing loaded. Use -force to load anyway.")
		return nil
	}

	fmt.Printf("Loaded %d products, %d production lines, %d stations, %d capabilities, %d routes, %d orders (%d items)\n",
		counts.Products, counts.ProductionLines, counts.ProcessStations,
		counts.LineCapabilities, counts.ProcessRoutes, counts.Orders, counts.OrderItems)
	return nil
}
