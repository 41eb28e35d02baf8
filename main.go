package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"lineupremote/adapters/api"
	"lineupremote/internal/config"
	"lineupremote/internal/container"
	"lineupremote/internal/errors"
	"lineupremote/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.DefaultLogger.Debug().Msg("no .env file found, using system environment variables")
	}

	if err := run(); err != nil {
		logger.DefaultLogger.Fatal().
			Err(err).
			Str("code", errors.GetCode(err)).
			Msg("server failed")
	}
}

// run returns instead of exiting so deferred cleanup always happens
func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, logger.ParseLevel(appConfig.LogLevel))
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	appContainer, err := container.New(appConfig)
	if err != nil {
		return errors.Wrap(err, "failed to create application container")
	}

	db, err := initDatabase(ctx, appConfig)
	if err != nil {
		return err
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitWithDatabase(ctx, db); err != nil {
		return errors.Wrap(err, "failed to initialize container")
	}

	server := api.NewServer(appContainer.Service, appConfig.Server.MetricsEnabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx, api.Config{Port: appConfig.Server.Port})
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "server stopped")
	}
	log.Info().Msg("server stopped")
	return nil
}

// initDatabase opens the PostgreSQL connection pool
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}
