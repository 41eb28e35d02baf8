// Package aggregation computes chart-ready statistics for many columns with a
// single aggregation query per request.
package aggregation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lineupremote/domain/catalog"
	"lineupremote/domain/column"
	"lineupremote/domain/core"
	"lineupremote/domain/stats"
	"lineupremote/internal/logger"
	"lineupremote/internal/metrics"
	"lineupremote/internal/sqlfrag"
	"lineupremote/ports"
)

// Store-side aggregate functions
const (
	fnStats     = "stats"
	fnBoxplot   = "boxplot"
	fnCatHist   = "cathist"
	fnDateStats = "datestats"
)

// Engine runs statistics requests against the served table
type Engine struct {
	store   ports.Store
	catalog *catalog.Catalog
}

// NewEngine creates a statistics engine
func NewEngine(store ports.Store, cat *catalog.Catalog) *Engine {
	return &Engine{store: store, catalog: cat}
}

// projection is one select-list item and the alias its result comes back under
type projection struct {
	alias string
	expr  sqlfrag.Expr
}

// request threads one compute column through query building and result
// unpacking so the two cannot drift apart
type request struct {
	index       int
	compute     column.ComputeColumn
	projections []projection
	shape       func(row ports.Row) (stats.Stat, error)
}

// Supported reports whether a statistic exists for the kind/type pair
func Supported(cc column.ComputeColumn) bool {
	switch cc.Column.(type) {
	case *column.NumberColumn:
		return cc.Kind == column.ComputeNumber || cc.Kind == column.ComputeBoxplot
	case *column.CategoricalColumn:
		return cc.Kind == column.ComputeCategorical
	case *column.DateColumn:
		return cc.Kind == column.ComputeDate
	}
	return false
}

// ToStats returns one statistic per compute column, in input order. Entries
// for unsupported kind/type pairs are nil. where and params restrict the rows
// (where may be empty); a failing query fails the whole call.
func (e *Engine) ToStats(ctx context.Context, cols []column.ComputeColumn, where string, params map[string]any) ([]stats.Stat, error) {
	log := logger.Ctx(ctx)
	out := make([]stats.Stat, len(cols))

	requests := make([]*request, 0, len(cols))
	for i, cc := range cols {
		err := e.admit(cc)
		switch {
		case core.IsUnsupportedAggregate(err):
			metrics.CountStat(string(cc.Kind), false)
			log.Warn().
				Err(err).
				Int("position", i).
				Msg("skipping unsupported aggregate")
			continue
		case err != nil:
			return nil, err
		}
		metrics.CountStat(string(cc.Kind), true)
		requests = append(requests, &request{index: i, compute: cc})
	}
	if len(requests) == 0 {
		return out, nil
	}

	started := time.Now()
	var bins int
	err := e.store.Snapshot(ctx, func(q ports.Querier) error {
		rowCount, bounds, err := e.prepare(ctx, q, requests, where, params)
		if err != nil {
			return err
		}
		bins = BinCount(rowCount)

		b := sqlfrag.NewBinderFrom(params)
		var selects []string
		for _, r := range requests {
			if err := e.plan(r, bins, rowCount, bounds); err != nil {
				return err
			}
			for _, p := range r.projections {
				selects = append(selects, p.expr.Render(b)+" AS "+p.alias)
			}
		}

		var row ports.Row
		if len(selects) > 0 {
			query := "SELECT " + strings.Join(selects, ", ") + " FROM " + e.catalog.Table + whereClause(where)
			aggStart := time.Now()
			rows, err := q.Query(ctx, query, b.Params())
			metrics.ObserveQuery("stats_aggregate", aggStart, err)
			if err != nil {
				return err
			}
			if len(rows) != 1 {
				return fmt.Errorf("aggregation returned %d rows, expected 1", len(rows))
			}
			row = rows[0]
		}

		for _, r := range requests {
			stat, err := r.shape(row)
			if err != nil {
				return fmt.Errorf("column %s: %w", r.compute.Column.Info().ID, err)
			}
			out[r.index] = stat
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int("columns", len(cols)).Msg("statistics failed")
		return nil, err
	}

	log.Debug().
		Int("columns", len(cols)).
		Int("computed", len(requests)).
		Int("bins", bins).
		Dur("elapsed", time.Since(started)).
		Msg("statistics computed")
	return out, nil
}

// prepare learns the row count and the min/max of every requested date
// column in one query
func (e *Engine) prepare(ctx context.Context, q ports.Querier, requests []*request, where string, params map[string]any) (int64, map[string]dateBounds, error) {
	selects := []string{"count(*) AS n"}
	aliases := make(map[string]int)
	for _, r := range requests {
		if r.compute.Kind != column.ComputeDate {
			continue
		}
		name := r.compute.Column.Info().Column
		if _, ok := aliases[name]; ok {
			continue
		}
		i := len(aliases)
		aliases[name] = i
		selects = append(selects,
			fmt.Sprintf("min(%s) AS b%d_min", name, i),
			fmt.Sprintf("max(%s) AS b%d_max", name, i))
	}

	started := time.Now()
	query := "SELECT " + strings.Join(selects, ", ") + " FROM " + e.catalog.Table + whereClause(where)
	rows, err := q.Query(ctx, query, params)
	metrics.ObserveQuery("stats_bounds", started, err)
	if err != nil {
		return 0, nil, err
	}
	if len(rows) != 1 {
		return 0, nil, fmt.Errorf("bounds query returned %d rows, expected 1", len(rows))
	}

	n, err := rows[0].Int64("n")
	if err != nil {
		return 0, nil, err
	}
	bounds := make(map[string]dateBounds, len(aliases))
	for name, i := range aliases {
		prefix := "b" + strconv.Itoa(i)
		min, err := toTime(rows[0][prefix+"_min"])
		if err != nil {
			return 0, nil, err
		}
		max, err := toTime(rows[0][prefix+"_max"])
		if err != nil {
			return 0, nil, err
		}
		bounds[name] = newDateBounds(min, max)
	}
	return n, bounds, nil
}

// plan fills the projections and the shaper of one request
func (e *Engine) plan(r *request, bins int, rowCount int64, bounds map[string]dateBounds) error {
	prefix := "s" + strconv.Itoa(r.index)
	name := r.compute.Column.Info().Column

	switch c := r.compute.Column.(type) {
	case *column.NumberColumn:
		if r.compute.Kind == column.ComputeBoxplot {
			r.projections = []projection{
				{alias: prefix + "_raw", expr: call(fnBoxplot, sqlfrag.Raw(name))},
				{alias: prefix + "_norm", expr: call(fnBoxplot, c.Mapped)},
			}
			r.shape = func(row ports.Row) (stats.Stat, error) {
				raw, err := shapeBoxplot(row[prefix+"_raw"])
				if err != nil {
					return nil, err
				}
				norm, err := shapeBoxplot(row[prefix+"_norm"])
				if err != nil {
					return nil, err
				}
				return stats.BoxplotStat{Type: "boxplot", Raw: raw, Normalized: norm}, nil
			}
			return nil
		}

		binsArg := sqlfrag.Cast("bins", bins, "integer")
		domain := c.Mapping.Domain
		r.projections = []projection{
			{alias: prefix + "_raw", expr: call(fnStats, sqlfrag.Raw(name), binsArg,
				sqlfrag.Cast(name+"_domain_min", domain[0], "double precision"),
				sqlfrag.Cast(name+"_domain_max", domain[1], "double precision"))},
			{alias: prefix + "_norm", expr: call(fnStats, c.Mapped, binsArg,
				sqlfrag.Raw("CAST(0 AS double precision)"),
				sqlfrag.Raw("CAST(1 AS double precision)"))},
		}
		r.shape = func(row ports.Row) (stats.Stat, error) {
			raw, err := shapeStatistics(row[prefix+"_raw"], domain[0], domain[1], bins)
			if err != nil {
				return nil, err
			}
			norm, err := shapeStatistics(row[prefix+"_norm"], 0, 1, bins)
			if err != nil {
				return nil, err
			}
			return stats.NumberStat{Type: "number", Raw: raw, Normalized: norm}, nil
		}
		return nil

	case *column.CategoricalColumn:
		categories, err := e.catalog.Categories(name)
		if err != nil {
			return err
		}
		r.projections = []projection{
			{alias: prefix, expr: call(fnCatHist, sqlfrag.Raw(name), sqlfrag.Cast(name+"_categories", categories, "text[]"))},
		}
		r.shape = func(row ports.Row) (stats.Stat, error) {
			return shapeCategorical(row[prefix], categories)
		}
		return nil

	case *column.DateColumn:
		b := bounds[name]
		if b.empty() {
			r.shape = func(ports.Row) (stats.Stat, error) {
				return emptyDate(rowCount), nil
			}
			return nil
		}
		edges := make([]string, len(b.edges))
		for i, t := range b.edges {
			edges[i] = t.Format(time.RFC3339Nano)
		}
		r.projections = []projection{
			{alias: prefix, expr: call(fnDateStats, sqlfrag.Raw(name), sqlfrag.Cast(name+"_edges", edges, "timestamptz[]"))},
		}
		r.shape = func(row ports.Row) (stats.Stat, error) {
			return shapeDate(row[prefix], b)
		}
		return nil
	}
	return unsupported(r.compute)
}

func call(fn string, args ...sqlfrag.Expr) sqlfrag.Expr {
	return sqlfrag.Raw(fn + "(").Append(sqlfrag.Join(args, ", ")).Raw(")")
}

func whereClause(where string) string {
	if where == "" {
		return ""
	}
	return " WHERE " + where
}

// admit checks a compute column before any query is issued
func (e *Engine) admit(cc column.ComputeColumn) error {
	if !Supported(cc) {
		return unsupported(cc)
	}
	info := cc.Column.Info()
	return e.catalog.RequireType(info.Column, info.Type)
}

func unsupported(cc column.ComputeColumn) error {
	typ := "unknown"
	if cc.Column != nil {
		typ = string(cc.Column.Info().Type)
	}
	return core.NewUnsupportedAggregateError(string(cc.Kind), typ)
}
