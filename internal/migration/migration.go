package migration

import (
	"context"
	"fmt"
	"strings"

	"lineupremote/domain/catalog"
	"lineupremote/domain/core"
	"lineupremote/internal/errors"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner creates the served table and the aggregate functions the
// statistics engine calls
type MigrationRunner struct {
	version string
	catalog *catalog.Catalog
}

const schemaVersion = "1.0.0"

// NewRunner creates a new migration runner
func NewRunner(cat *catalog.Catalog) *MigrationRunner {
	statements := append([]string{CreateTableSQL(cat)}, aggregateStatements...)
	return &MigrationRunner{
		version: schemaVersion + "+" + core.SchemaHash(statements...).Short(12),
		catalog: cat,
	}
}

// Version returns the schema version suffixed with a fingerprint of the
// generated DDL
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRowsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create rows table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	for _, stmt := range aggregateStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to create aggregate functions")
		}
	}

	return nil
}

func (r *MigrationRunner) createRowsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, CreateTableSQL(r.catalog))
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	for _, c := range r.catalog.Columns {
		if c.Type != "categorical" && c.Type != "date" {
			continue
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			r.catalog.Table, c.Column, r.catalog.Table, c.Column)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateTableSQL renders the CREATE TABLE statement for a catalog
func CreateTableSQL(cat *catalog.Catalog) string {
	defs := []string{cat.IDColumn + " BIGINT PRIMARY KEY"}
	for _, c := range cat.Columns {
		defs = append(defs, c.Column+" "+sqlType(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", cat.Table, strings.Join(defs, ",\n\t"))
}

func sqlType(columnType string) string {
	switch columnType {
	case "number":
		return "DOUBLE PRECISION"
	case "date":
		return "TIMESTAMP WITH TIME ZONE"
	default:
		return "TEXT"
	}
}
