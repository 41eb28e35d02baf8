// Package query compiles typed column and ranking descriptors into SQL
// fragments. Values always travel as bound parameters.
package query

import (
	"strings"

	"lineupremote/domain/column"
	"lineupremote/internal/sqlfrag"
)

// CompileFilter returns the predicate contributed by c's filter. The boolean
// is false when the column contributes nothing, which is different from a
// predicate that is always true.
func CompileFilter(c column.Column) (sqlfrag.Expr, bool) {
	var e sqlfrag.Expr
	switch v := c.(type) {
	case *column.NumberColumn:
		e = numberPredicate(v.Column, v.Filter, func(f float64) any { return f })
	case *column.DateColumn:
		e = numberPredicate(v.Column, v.Filter, func(f float64) any { return column.MillisToTime(f) })
	case *column.CategoricalColumn:
		e = categoricalPredicate(v.Column, v.Filter)
	case *column.StringColumn:
		e = stringPredicate(v.Column, v.Filter)
	}
	return e, !e.IsZero()
}

// CompileFilters conjoins the predicates of every filtered column
func CompileFilters(cols []column.Column) sqlfrag.Expr {
	preds := make([]sqlfrag.Expr, 0, len(cols))
	for _, c := range cols {
		if e, ok := CompileFilter(c); ok {
			preds = append(preds, e)
		}
	}
	return sqlfrag.And(preds...)
}

func numberPredicate(col string, f *column.NumberFilter, value func(float64) any) sqlfrag.Expr {
	if f.IsEmpty() {
		return sqlfrag.Expr{}
	}

	var bounds sqlfrag.Expr
	switch {
	case f.Min != nil && f.Max != nil:
		bounds = sqlfrag.Raw(col+" between ").Arg(col+"_min", value(*f.Min)).
			Raw(" and ").Arg(col+"_max", value(*f.Max))
	case f.Min != nil:
		bounds = sqlfrag.Raw(col+" >= ").Arg(col+"_min", value(*f.Min))
	case f.Max != nil:
		bounds = sqlfrag.Raw(col+" <= ").Arg(col+"_max", value(*f.Max))
	}

	if !f.FilterMissing {
		return bounds
	}
	if bounds.IsZero() {
		bounds = sqlfrag.Raw("true")
	}
	return sqlfrag.Raw("(" + col + " is not null AND (").Append(bounds).Raw("))")
}

func categoricalPredicate(col string, f *column.CategoricalFilter) sqlfrag.Expr {
	if f == nil {
		return sqlfrag.Expr{}
	}
	if len(f.Values) == 0 {
		if f.FilterMissing {
			return sqlfrag.Raw(col + " is not null")
		}
		return sqlfrag.Expr{}
	}

	member := sqlfrag.Raw(col+" = ANY(").Arg(col, f.Values).Raw(")")
	if !f.FilterMissing {
		return member
	}
	return sqlfrag.Raw("(" + col + " is not null AND ").Append(member).Raw(")")
}

func stringPredicate(col string, f *column.StringFilter) sqlfrag.Expr {
	if f == nil {
		return sqlfrag.Expr{}
	}

	switch f.Mode {
	case column.StringFilterMissing:
		return sqlfrag.Raw("(" + col + " is not null AND " + col + " <> '')")
	case column.StringFilterRegex:
		match := sqlfrag.Raw(col+" ~ ").Arg(col+"_regex", f.Value)
		if f.FilterMissing {
			return sqlfrag.Raw("(" + col + " is not null AND ").Append(match).Raw(")")
		}
		return match
	default:
		match := sqlfrag.Raw("lower("+col+") = ").Arg(col, strings.ToLower(f.Value))
		if f.FilterMissing {
			return sqlfrag.Raw("(" + col + " is not null AND ").Append(match).Raw(")")
		}
		return match
	}
}
