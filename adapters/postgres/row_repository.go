package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"lineupremote/domain/catalog"
	"lineupremote/domain/core"
	"lineupremote/ports"
)

const insertBatchSize = 500

// rowRepository implements the RowRepository interface over the served table
type rowRepository struct {
	store   *Store
	catalog *catalog.Catalog
}

// NewRowRepository creates a new row repository
func NewRowRepository(store *Store, cat *catalog.Catalog) ports.RowRepository {
	return &rowRepository{store: store, catalog: cat}
}

// Count returns the number of rows in the table
func (r *rowRepository) Count(ctx context.Context) (int64, error) {
	v, err := r.store.Scalar(ctx, "SELECT count(*) FROM "+r.catalog.Table, nil)
	if err != nil {
		return 0, err
	}
	return ports.AsInt64(v)
}

// Rows returns the rows with the given ids in the order the ids were given.
// Without ids it returns the whole table.
func (r *rowRepository) Rows(ctx context.Context, ids []int64) ([]ports.Row, error) {
	id := r.catalog.IDColumn
	if len(ids) == 0 {
		rows, err := r.store.Query(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY %s", r.catalog.Table, id), nil)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []ports.Row{}
		}
		return rows, nil
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ANY(CAST(:ids AS bigint[])) ORDER BY array_position(CAST(:ids AS bigint[]), %s)",
		r.catalog.Table, id, id)
	rows, err := r.store.Query(ctx, query, map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ports.Row{}
	}
	return rows, nil
}

// Row returns a single row
func (r *rowRepository) Row(ctx context.Context, id int64) (ports.Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = :id", r.catalog.Table, r.catalog.IDColumn)
	rows, err := r.store.Query(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w with id %d", core.ErrRowNotFound, id)
	}
	return rows[0], nil
}

// Search returns the ids of rows whose column matches query
func (r *rowRepository) Search(ctx context.Context, column, query string, regex bool) ([]int64, error) {
	if err := r.catalog.Require(column); err != nil {
		return nil, err
	}
	predicate := "strpos(lower(CAST(" + column + " AS text)), lower(:query)) > 0"
	if regex {
		predicate = "CAST(" + column + " AS text) ~ :query"
	}
	sql := fmt.Sprintf("SELECT %s AS id FROM %s WHERE %s ORDER BY %s",
		r.catalog.IDColumn, r.catalog.Table, predicate, r.catalog.IDColumn)
	rows, err := r.store.Query(ctx, sql, map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		id, err := row.Int64("id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Sample returns up to limit random non-null values of a number column
func (r *rowRepository) Sample(ctx context.Context, column string, limit int) ([]float64, error) {
	desc, ok := r.catalog.Lookup(column)
	if !ok || desc.Type != "number" {
		return nil, fmt.Errorf("%w %q", core.ErrUnknownColumn, column)
	}
	query := fmt.Sprintf("SELECT %s AS v FROM %s WHERE %s IS NOT NULL ORDER BY random() LIMIT :limit",
		column, r.catalog.Table, column)
	rows, err := r.store.Query(ctx, query, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		v, err := toFloat64(row["v"])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Insert writes rows in batches. Keys outside the catalog are ignored and
// absent columns are stored as null.
func (r *rowRepository) Insert(ctx context.Context, rows []map[string]any) (int64, error) {
	columns := []string{r.catalog.IDColumn}
	for _, c := range r.catalog.Columns {
		columns = append(columns, c.Column)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		r.catalog.Table, strings.Join(columns, ", "), strings.Join(columns, ", :"))

	var inserted int64
	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([]map[string]interface{}, 0, end-start)
		for _, row := range rows[start:end] {
			values := make(map[string]interface{}, len(columns))
			for _, c := range columns {
				values[c] = row[c]
			}
			batch = append(batch, values)
		}
		res, err := r.store.DB().NamedExecContext(ctx, query, batch)
		if err != nil {
			return inserted, core.NewStoreError("insert rows", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, core.NewStoreError("insert rows", err)
		}
		inserted += n
	}
	return inserted, nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("unexpected number value of type %T", v)
}
