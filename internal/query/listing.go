package query

import (
	"strings"

	"lineupremote/internal/sqlfrag"
)

// Result column aliases of the listing query
const (
	ListingGroupAlias = "grp"
	ListingIDsAlias   = "ids"
	ListingIDAlias    = "id"
)

// Listing builds the sort query for a ranking. Ungrouped rankings return one
// id per row in sort order; grouped rankings return one row per group label
// with the ordered id array of its members.
func (c *RankingCompiler) Listing(table, idColumn string) (string, map[string]any) {
	b := sqlfrag.NewBinder()
	where := c.Where(nil).Render(b)
	order := c.ToSort()

	var sb strings.Builder
	if !c.Grouped() {
		sb.WriteString("SELECT " + idColumn + " AS " + ListingIDAlias + " FROM " + table)
		writeWhere(&sb, where)
		if order != "" {
			sb.WriteString(" ORDER BY " + order)
		}
		return sb.String(), b.Params()
	}

	agg := "array_agg(" + idColumn
	if order != "" {
		agg += " ORDER BY " + order
	}
	agg += ")"

	sb.WriteString("SELECT " + c.GroupName().Render(b) + " AS " + ListingGroupAlias)
	sb.WriteString(", " + agg + " AS " + ListingIDsAlias + " FROM " + table)
	writeWhere(&sb, where)
	sb.WriteString(" GROUP BY " + c.GroupBy().Render(b))
	sb.WriteString(" ORDER BY " + c.GroupSort(ListingGroupAlias))
	return sb.String(), b.Params()
}

func writeWhere(sb *strings.Builder, where string) {
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
}
