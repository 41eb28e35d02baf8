package query

import (
	"fmt"
	"strconv"
	"strings"

	"lineupremote/domain/column"
	"lineupremote/internal/sqlfrag"
)

const (
	// DefaultGroupName labels the single group of an ungrouped ranking
	DefaultGroupName = "Default group"
	// MissingGroupName replaces null values inside a group label
	MissingGroupName = "Missing values"

	groupSeparator = " ∩ "
)

// dateGroupFormats are to_char patterns per grouper granularity. Patterns
// must not contain ':' because named parameters are parsed from the SQL text.
var dateGroupFormats = map[string]string{
	"year":   "YYYY",
	"month":  "YYYY-MM",
	"week":   `IYYY-"W"IW`,
	"day":    "YYYY-MM-DD",
	"hour":   `YYYY-MM-DD HH24"h"`,
	"minute": `YYYY-MM-DD HH24"h"MI`,
	"second": `YYYY-MM-DD HH24"h"MI"m"SS"s"`,
}

var circularDateFormats = map[string]string{
	"year":   "YYYY",
	"month":  "FMMonth",
	"week":   "IW",
	"day":    "FMDay",
	"hour":   "HH24",
	"minute": "MI",
	"second": "SS",
}

var groupSortAggregates = map[string]string{
	"min":    "min(%s)",
	"max":    "max(%s)",
	"mean":   "avg(%s)",
	"sum":    "sum(%s)",
	"q1":     "percentile_cont(0.25) WITHIN GROUP (ORDER BY %s)",
	"median": "percentile_cont(0.5) WITHIN GROUP (ORDER BY %s)",
	"q3":     "percentile_cont(0.75) WITHIN GROUP (ORDER BY %s)",
}

// RankingCompiler turns a ranking descriptor into WHERE, ORDER BY and
// grouping fragments
type RankingCompiler struct {
	ranking *column.Ranking
}

// NewRankingCompiler creates a compiler for one ranking
func NewRankingCompiler(r *column.Ranking) *RankingCompiler {
	if r == nil {
		r = &column.Ranking{}
	}
	return &RankingCompiler{ranking: r}
}

// Grouped reports whether the ranking has group criteria
func (c *RankingCompiler) Grouped() bool {
	return len(c.ranking.Groups) > 0
}

// Where conjoins the filters and, when group is set, restricts rows to that
// group. The zero Expr means no WHERE clause at all.
func (c *RankingCompiler) Where(group *string) sqlfrag.Expr {
	filters := CompileFilters(c.ranking.Filters)
	if group == nil {
		return filters
	}
	inGroup := c.GroupName().Raw(" = ").Arg("group", *group)
	return sqlfrag.And(filters, inGroup)
}

// ToWhere renders Where with its own parameters
func (c *RankingCompiler) ToWhere(group *string) (string, map[string]any) {
	return c.Where(group).Build()
}

// ToSort renders the ORDER BY list; empty when no sort criteria exist
func (c *RankingCompiler) ToSort() string {
	return sortList(c.ranking.Sort)
}

// GroupName is the label expression every row maps to exactly once
func (c *RankingCompiler) GroupName() sqlfrag.Expr {
	if !c.Grouped() {
		return sqlfrag.Raw("'" + DefaultGroupName + "'")
	}

	labels := make([]sqlfrag.Expr, 0, len(c.ranking.Groups))
	for _, g := range c.ranking.Groups {
		labels = append(labels, sqlfrag.Raw("coalesce(").Append(groupLabel(g)).Raw(", '"+MissingGroupName+"')"))
	}
	if len(labels) == 1 {
		return labels[0]
	}
	return sqlfrag.Raw("concat_ws('" + groupSeparator + "', ").Append(sqlfrag.Join(labels, ", ")).Raw(")")
}

// ToGroupName renders GroupName with its own parameters
func (c *RankingCompiler) ToGroupName() (string, map[string]any) {
	return c.GroupName().Build()
}

// GroupBy is the GROUP BY expression for grouped listings
func (c *RankingCompiler) GroupBy() sqlfrag.Expr {
	return c.GroupName()
}

// GroupSort orders groups by their group sort criteria, falling back to the
// group label
func (c *RankingCompiler) GroupSort(label string) string {
	if len(c.ranking.GroupSort) == 0 {
		return label
	}
	parts := make([]string, 0, len(c.ranking.GroupSort)+1)
	for _, s := range c.ranking.GroupSort {
		part := groupAggregate(s.Column)
		if !s.Asc {
			part += " DESC"
		}
		parts = append(parts, part)
	}
	return strings.Join(append(parts, label), ", ")
}

func sortList(criteria []column.SortCriterion) string {
	parts := make([]string, 0, len(criteria))
	for _, s := range criteria {
		part := s.Column.Info().Column
		if !s.Asc {
			part += " DESC"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func groupLabel(c column.Column) sqlfrag.Expr {
	name := c.Info().Column
	switch v := c.(type) {
	case *column.DateColumn:
		if v.Grouper != nil {
			formats := dateGroupFormats
			if v.Grouper.Circular {
				formats = circularDateFormats
			}
			return sqlfrag.Raw(fmt.Sprintf("to_char(%s, '%s')", name, formats[v.Grouper.Granularity]))
		}
	case *column.NumberColumn:
		if len(v.StratifyThresholds) > 0 {
			return stratifyLabel(name, v.StratifyThresholds)
		}
	}
	return sqlfrag.Raw("CAST(" + name + " AS text)")
}

// stratifyLabel buckets a number column by ascending thresholds
func stratifyLabel(name string, thresholds []float64) sqlfrag.Expr {
	e := sqlfrag.Raw("CASE WHEN " + name + " IS NULL THEN NULL")
	for i, t := range thresholds {
		key := name + "_t" + strconv.Itoa(i)
		e = e.Raw(" WHEN " + name + " <= ").Append(sqlfrag.Cast(key, t, "double precision")).
			Raw(" THEN ").Append(sqlfrag.Cast(key+"_label", "<= "+formatThreshold(t), "text"))
	}
	last := thresholds[len(thresholds)-1]
	return e.Raw(" ELSE ").
		Append(sqlfrag.Cast(name+"_t"+strconv.Itoa(len(thresholds))+"_label", "> "+formatThreshold(last), "text")).
		Raw(" END")
}

func formatThreshold(t float64) string {
	return strconv.FormatFloat(t, 'g', -1, 64)
}

func groupAggregate(c column.Column) string {
	name := c.Info().Column
	if n, ok := c.(*column.NumberColumn); ok {
		if tmpl, ok := groupSortAggregates[n.GroupSortMethod]; ok {
			return fmt.Sprintf(tmpl, name)
		}
		return fmt.Sprintf(groupSortAggregates[column.DefaultGroupSortMethod], name)
	}
	return "min(" + name + ")"
}
