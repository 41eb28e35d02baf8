package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"lineupremote/domain/core"
	"lineupremote/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store runs ":name" query templates against PostgreSQL
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStore creates a store. A zero timeout leaves queries unbounded.
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// DB exposes the underlying connection pool
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Query executes query and returns every row keyed by column name
func (s *Store) Query(ctx context.Context, query string, params map[string]any) ([]ports.Row, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return querier{ext: s.db}.Query(ctx, query, params)
}

// Scalar executes query and returns the first column of the first row
func (s *Store) Scalar(ctx context.Context, query string, params map[string]any) (any, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return querier{ext: s.db}.Scalar(ctx, query, params)
}

// Snapshot runs fn in a read-only repeatable-read transaction
func (s *Store) Snapshot(ctx context.Context, fn func(q ports.Querier) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return core.NewStoreError("begin snapshot", err)
	}
	if err := fn(querier{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.NewStoreError("commit snapshot", err)
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return core.NewStoreError("ping", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// querier executes against either the pool or a transaction
type querier struct {
	ext sqlx.QueryerContext
}

func (q querier) Query(ctx context.Context, query string, params map[string]any) ([]ports.Row, error) {
	compiled, args, err := compile(query, params)
	if err != nil {
		return nil, err
	}
	rows, err := q.ext.QueryxContext(ctx, compiled, args...)
	if err != nil {
		return nil, core.NewStoreError("query", err)
	}
	defer rows.Close()

	var out []ports.Row
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, core.NewStoreError("scan", err)
		}
		for k, v := range row {
			row[k] = normalize(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStoreError("iterate", err)
	}
	return out, nil
}

func (q querier) Scalar(ctx context.Context, query string, params map[string]any) (any, error) {
	compiled, args, err := compile(query, params)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := q.ext.QueryRowxContext(ctx, compiled, args...).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, core.NewStoreError("scalar", err)
	}
	return normalize(v), nil
}

// compile resolves ":name" placeholders into positional PostgreSQL
// parameters. Slices travel as PostgreSQL arrays.
func compile(query string, params map[string]any) (string, []interface{}, error) {
	if len(params) == 0 {
		return query, nil, nil
	}
	named, args, err := sqlx.Named(query, params)
	if err != nil {
		return "", nil, fmt.Errorf("failed to bind query parameters: %w", err)
	}
	for i, a := range args {
		args[i] = arrayArg(a)
	}
	return sqlx.Rebind(sqlx.DOLLAR, named), args, nil
}

func arrayArg(v interface{}) interface{} {
	switch v.(type) {
	case nil, []byte:
		return v
	}
	if reflect.TypeOf(v).Kind() == reflect.Slice {
		return pq.Array(v)
	}
	return v
}

// normalize turns driver text results into strings so rows serialize cleanly
func normalize(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
