package main

import (
	"context"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"lineupremote/internal/config"
	"lineupremote/internal/container"
	"lineupremote/internal/errors"
	"lineupremote/internal/logger"
	"lineupremote/internal/migration"
)

// migrate creates the served table, its indexes and the aggregate functions
func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		logger.DefaultLogger.Fatal().
			Err(err).
			Str("code", errors.GetCode(err)).
			Msg("migration failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, logger.ParseLevel(cfg.LogLevel))
	logger.SetDefault(log)

	cat, err := container.LoadCatalog(cfg.Table)
	if err != nil {
		return errors.Wrap(err, "failed to load catalog")
	}

	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	runner := migration.NewRunner(cat)
	if err := runner.Run(ctx, db); err != nil {
		return err
	}
	log.Info().Str("table", cat.Table).Str("version", runner.Version()).Msg("migration complete")
	return nil
}
