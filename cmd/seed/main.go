package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"lineupremote/adapters/excel"
	"lineupremote/internal/config"
	"lineupremote/internal/container"
	"lineupremote/internal/errors"
	"lineupremote/internal/logger"
	"lineupremote/internal/testkit"
)

// seed fills the served table with synthetic rows, or with the rows of
// SEED_FILE when one is configured
func main() {
	_ = godotenv.Load()

	seed := flag.Int64("seed", testkit.DefaultRowConfig().Seed, "random seed for synthetic rows")
	sheet := flag.String("sheet", excel.DefaultLoaderConfig().Sheet, "worksheet to import")
	flag.Parse()

	if err := run(*seed, *sheet); err != nil {
		logger.DefaultLogger.Fatal().
			Err(err).
			Str("code", errors.GetCode(err)).
			Msg("seed failed")
	}
}

func run(seed int64, sheet string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, logger.ParseLevel(cfg.LogLevel))
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	appContainer, err := container.New(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create application container")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer appContainer.Shutdown(context.Background())
	if err := appContainer.InitWithDatabase(ctx, db); err != nil {
		return errors.Wrap(err, "failed to initialize container")
	}

	start := time.Now()
	var rows []map[string]any
	if cfg.Seed.File != "" {
		loaderConfig := excel.DefaultLoaderConfig()
		loaderConfig.Sheet = sheet
		rows, err = excel.NewLoader(appContainer.Catalog, loaderConfig).LoadFile(ctx, cfg.Seed.File)
		if err != nil {
			return errors.Wrap(err, "failed to load seed file "+cfg.Seed.File)
		}
	} else {
		genConfig := testkit.DefaultRowConfig()
		genConfig.Rows = cfg.Seed.Rows
		genConfig.Seed = seed
		rows = testkit.NewRowGenerator(appContainer.Catalog, genConfig).Generate()
	}

	inserted, err := appContainer.Rows.Insert(ctx, rows)
	if err != nil {
		log.Error().Int64("inserted", inserted).Msg("insert stopped early")
		return errors.Wrap(err, "failed to insert rows")
	}
	log.Info().
		Int64("inserted", inserted).
		Str("table", appContainer.Catalog.Table).
		Dur("elapsed", time.Since(start)).
		Msg("seed complete")
	return nil
}
