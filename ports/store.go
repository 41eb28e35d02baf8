package ports

import (
	"context"
	"fmt"
	"strconv"
)

// Row is one result row addressable by column name
type Row map[string]any

// Int64 reads an integer column
func (r Row) Int64(key string) (int64, error) {
	n, err := AsInt64(r[key])
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", key, err)
	}
	return n, nil
}

// AsInt64 accepts the integer representations drivers hand back
func AsInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("unexpected integer value of type %T", v)
}

// Querier executes SQL templates with ":name" placeholders
type Querier interface {
	Query(ctx context.Context, query string, params map[string]any) ([]Row, error)
	Scalar(ctx context.Context, query string, params map[string]any) (any, error)
}

// Store is the relational store holding the served table
type Store interface {
	Querier

	// Snapshot runs fn inside one read-only transaction so every query fn
	// issues observes the same data
	Snapshot(ctx context.Context, fn func(q Querier) error) error
	Ping(ctx context.Context) error
}
