package app

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"lineupremote/domain/catalog"
	"lineupremote/domain/column"
	"lineupremote/domain/core"
	"lineupremote/domain/stats"
	"lineupremote/internal/aggregation"
	"lineupremote/internal/logger"
	"lineupremote/internal/metrics"
	"lineupremote/internal/query"
	"lineupremote/ports"

	"github.com/lib/pq"
	mstats "github.com/montanaflynn/stats"
)

// LineupService answers every request of the remote ranking client
type LineupService struct {
	store      ports.Store
	rows       ports.RowRepository
	catalog    *catalog.Catalog
	engine     *aggregation.Engine
	sampleSize int
}

// OrderedGroup is one group of a sorted ranking with its member ids in order
type OrderedGroup struct {
	Name  string  `json:"name"`
	Order []int64 `json:"order"`
}

// SortResult is the grouped listing of a ranking
type SortResult struct {
	Groups       []OrderedGroup `json:"groups"`
	MaxDataIndex int64          `json:"maxDataIndex"`
}

// NewLineupService creates the service
func NewLineupService(store ports.Store, rows ports.RowRepository, cat *catalog.Catalog, sampleSize int) *LineupService {
	if sampleSize <= 0 {
		sampleSize = 100
	}
	return &LineupService{
		store:      store,
		rows:       rows,
		catalog:    cat,
		engine:     aggregation.NewEngine(store, cat),
		sampleSize: sampleSize,
	}
}

// Desc returns the column descriptions of the served table
func (s *LineupService) Desc() []catalog.ColumnDesc {
	return s.catalog.Columns
}

// Count returns the number of rows
func (s *LineupService) Count(ctx context.Context) (int64, error) {
	return s.rows.Count(ctx)
}

// Rows returns the rows with the given ids, or all rows
func (s *LineupService) Rows(ctx context.Context, ids []int64) ([]ports.Row, error) {
	return s.rows.Rows(ctx, ids)
}

// Row returns one row
func (s *LineupService) Row(ctx context.Context, id int64) (ports.Row, error) {
	return s.rows.Row(ctx, id)
}

// Sort orders and groups the rows of a ranking
func (s *LineupService) Sort(ctx context.Context, rankingDump []byte) (*SortResult, error) {
	ranking, err := column.ParseRankingDump(rankingDump)
	if err != nil {
		return nil, err
	}
	if err := s.requireColumns(rankingColumns(ranking)...); err != nil {
		return nil, err
	}

	compiler := query.NewRankingCompiler(ranking)
	sql, params := compiler.Listing(s.catalog.Table, s.catalog.IDColumn)

	started := time.Now()
	rows, err := s.store.Query(ctx, sql, params)
	metrics.ObserveQuery("sort", started, err)
	if err != nil {
		return nil, err
	}

	result := &SortResult{Groups: []OrderedGroup{}, MaxDataIndex: -1}
	if !compiler.Grouped() {
		order := make([]int64, 0, len(rows))
		for _, row := range rows {
			id, err := row.Int64(query.ListingIDAlias)
			if err != nil {
				return nil, err
			}
			order = append(order, id)
		}
		result.Groups = append(result.Groups, OrderedGroup{Name: query.DefaultGroupName, Order: order})
	} else {
		for _, row := range rows {
			var ids pq.Int64Array
			if err := ids.Scan(row[query.ListingIDsAlias]); err != nil {
				return nil, fmt.Errorf("failed to read group members: %w", err)
			}
			name, _ := row[query.ListingGroupAlias].(string)
			result.Groups = append(result.Groups, OrderedGroup{Name: name, Order: []int64(ids)})
		}
	}

	for _, g := range result.Groups {
		for _, id := range g.Order {
			if id > result.MaxDataIndex {
				result.MaxDataIndex = id
			}
		}
	}

	logger.Ctx(ctx).Debug().
		Int("groups", len(result.Groups)).
		Int64("max_data_index", result.MaxDataIndex).
		Msg("ranking sorted")
	return result, nil
}

// Stats computes statistics over the whole table
func (s *LineupService) Stats(ctx context.Context, computeDump []byte) ([]stats.Stat, error) {
	cols, err := column.ParseComputeColumns(computeDump)
	if err != nil {
		return nil, err
	}
	return s.engine.ToStats(ctx, cols, "", nil)
}

// RankingStats computes statistics over the rows a ranking keeps
func (s *LineupService) RankingStats(ctx context.Context, rankingDump, computeDump []byte) ([]stats.Stat, error) {
	return s.rankingStats(ctx, rankingDump, computeDump, nil)
}

// GroupStats computes statistics over one group of a ranking
func (s *LineupService) GroupStats(ctx context.Context, group string, rankingDump, computeDump []byte) ([]stats.Stat, error) {
	return s.rankingStats(ctx, rankingDump, computeDump, &group)
}

func (s *LineupService) rankingStats(ctx context.Context, rankingDump, computeDump []byte, group *string) ([]stats.Stat, error) {
	ranking, err := column.ParseRankingDump(rankingDump)
	if err != nil {
		return nil, err
	}
	cols, err := column.ParseComputeColumns(computeDump)
	if err != nil {
		return nil, err
	}
	if err := s.requireColumns(rankingColumns(ranking)...); err != nil {
		return nil, err
	}
	where, params := query.NewRankingCompiler(ranking).ToWhere(group)
	return s.engine.ToStats(ctx, cols, where, params)
}

// MappingSample returns at most sampleSize ascending values representative of
// a number column, used by the client to preview mapping functions
func (s *LineupService) MappingSample(ctx context.Context, name string, columnDump []byte) ([]float64, error) {
	c, err := column.ParseColumnDump(columnDump)
	if err != nil {
		return nil, err
	}
	if _, ok := c.(*column.NumberColumn); !ok {
		return nil, core.NewMalformedError("$.desc", "must describe a number column")
	}
	if c.Info().Column != name {
		return nil, core.NewMalformedError("$.desc", fmt.Sprintf("names column %q, not %q", c.Info().Column, name))
	}

	values, err := s.rows.Sample(ctx, name, s.sampleSize*10)
	if err != nil {
		return nil, err
	}
	return reduceSample(values, s.sampleSize)
}

// Search returns the ids of rows whose column matches query. A query of the
// form /pattern/flags is a regular expression; anything else is a
// case-insensitive substring.
func (s *LineupService) Search(ctx context.Context, name, q string) ([]int64, error) {
	if pattern, ok := regexQuery(q); ok {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, core.NewMalformedError("query", "is not a valid regular expression")
		}
		return s.rows.Search(ctx, name, pattern, true)
	}
	return s.rows.Search(ctx, name, q, false)
}

// Ping checks the store
func (s *LineupService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *LineupService) requireColumns(cols ...column.Column) error {
	for _, c := range cols {
		info := c.Info()
		if info.Column == "" {
			continue
		}
		if err := s.catalog.RequireType(info.Column, info.Type); err != nil {
			return err
		}
	}
	return nil
}

func rankingColumns(r *column.Ranking) []column.Column {
	cols := append([]column.Column{}, r.Filters...)
	cols = append(cols, r.Groups...)
	for _, c := range r.Sort {
		cols = append(cols, c.Column)
	}
	for _, c := range r.GroupSort {
		cols = append(cols, c.Column)
	}
	return cols
}

// reduceSample keeps size evenly spaced nearest-rank percentiles
func reduceSample(values []float64, size int) ([]float64, error) {
	if len(values) <= size {
		out := append([]float64{}, values...)
		sort.Float64s(out)
		return out, nil
	}
	out := make([]float64, size)
	for i := range out {
		p, err := mstats.PercentileNearestRank(values, float64(i+1)*100/float64(size))
		if err != nil {
			return nil, fmt.Errorf("failed to reduce mapping sample: %w", err)
		}
		out[i] = p
	}
	return out, nil
}

func regexQuery(q string) (string, bool) {
	end := strings.LastIndex(q, "/")
	if !strings.HasPrefix(q, "/") || end <= 0 {
		return "", false
	}
	pattern, flags := q[1:end], q[end+1:]
	if strings.Trim(flags, "gimsuy") != "" {
		return "", false
	}
	if strings.Contains(flags, "i") {
		pattern = "(?i)" + pattern
	}
	return pattern, true
}
