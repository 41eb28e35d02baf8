package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"lineupremote/adapters/postgres"
	"lineupremote/app"
	"lineupremote/domain/catalog"
	"lineupremote/internal/config"
	"lineupremote/internal/migration"
	"lineupremote/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config  *config.Config
	Catalog *catalog.Catalog

	// Infrastructure
	DB    *sqlx.DB
	Store *postgres.Store

	// Data access
	Rows ports.RowRepository

	Service *app.LineupService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	cat, err := LoadCatalog(cfg.Table)
	if err != nil {
		return nil, err
	}
	return &Container{Config: cfg, Catalog: cat}, nil
}

// LoadCatalog reads the catalog file when one is configured. Otherwise the
// built-in demo catalog is renamed to the configured table and id column.
func LoadCatalog(table config.TableConfig) (*catalog.Catalog, error) {
	if table.CatalogFile != "" {
		cat, err := catalog.Load(table.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		return cat, nil
	}

	cat := catalog.Default()
	if table.Name != "" {
		cat.Table = table.Name
	}
	if table.IDColumn != "" {
		cat.IDColumn = table.IDColumn
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}

// InitWithDatabase migrates the schema and builds everything that needs the database
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	runner := migration.NewRunner(c.Catalog)
	if err := runner.Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.Store = postgres.NewStore(db, c.Config.Database.QueryTimeout)
	c.Rows = postgres.NewRowRepository(c.Store, c.Catalog)
	c.Service = app.NewLineupService(c.Store, c.Rows, c.Catalog, c.Config.Stats.MappingSampleSize)

	log.Info().
		Str("table", c.Catalog.Table).
		Int("columns", len(c.Catalog.Columns)).
		Str("schema_version", runner.Version()).
		Msg("container initialized")
	return nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
