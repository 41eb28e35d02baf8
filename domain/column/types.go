// Package column holds the typed representation of client column and ranking
// descriptors. Every type here is built fresh per request and never mutated
// after parsing.
package column

import (
	"lineupremote/internal/sqlfrag"
)

// ColumnType is derived once from a descriptor's desc field
type ColumnType string

const (
	TypeNumber      ColumnType = "number"
	TypeString      ColumnType = "string"
	TypeCategorical ColumnType = "categorical"
	TypeDate        ColumnType = "date"
	TypeStack       ColumnType = "stack"
	TypeNested      ColumnType = "nested"
	TypeOther       ColumnType = "other"
)

// IsComposite reports whether the type carries children instead of a column
func (t ColumnType) IsComposite() bool {
	return t == TypeStack || t == TypeNested
}

// Header holds the fields every column variant shares
type Header struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Column      string     `json:"column,omitempty"`
	Type        ColumnType `json:"type"`
}

// Info returns the shared header
func (h Header) Info() Header {
	return h
}

// Column is the sum of all descriptor variants. Callers dispatch with a type
// switch over the concrete types below.
type Column interface {
	Info() Header
	isColumn()
}

// NumberColumn is a numeric data column with its mapping function
type NumberColumn struct {
	Header
	Mapping            MappingFunction
	Filter             *NumberFilter
	GroupSortMethod    string
	StratifyThresholds []float64

	// Mapped normalizes the raw column into [0,1]; built once while parsing.
	Mapped sqlfrag.Expr
}

// StringColumn is a free-text data column
type StringColumn struct {
	Header
	Filter *StringFilter
}

// CategoricalColumn is a column over a fixed category vocabulary
type CategoricalColumn struct {
	Header
	Filter *CategoricalFilter
}

// DateColumn is a timestamp column. Its filter bounds are epoch milliseconds.
type DateColumn struct {
	Header
	Filter  *NumberFilter
	Grouper *DateGrouper
}

// CompositeColumn is a stack or nested column combining other columns
type CompositeColumn struct {
	Header
	Children []Column
}

// GenericColumn is any descriptor whose kind has no dedicated variant
type GenericColumn struct {
	Header
	Kind string
}

func (NumberColumn) isColumn()      {}
func (StringColumn) isColumn()      {}
func (CategoricalColumn) isColumn() {}
func (DateColumn) isColumn()        {}
func (CompositeColumn) isColumn()   {}
func (GenericColumn) isColumn()     {}

// NumberFilter keeps rows within [Min, Max]; nil bounds are open
type NumberFilter struct {
	Min           *float64
	Max           *float64
	FilterMissing bool
}

// IsEmpty reports whether the filter restricts nothing
func (f *NumberFilter) IsEmpty() bool {
	return f == nil || (f.Min == nil && f.Max == nil && !f.FilterMissing)
}

// CategoricalFilter keeps rows whose category is in Values
type CategoricalFilter struct {
	Values        []string
	FilterMissing bool
}

// StringFilterMode selects which of the mutually exclusive string predicates applies
type StringFilterMode int

const (
	StringFilterExact StringFilterMode = iota
	StringFilterMissing
	StringFilterRegex
)

const (
	// FilterMissingSentinel is the filter value clients send to drop missing strings
	FilterMissingSentinel = "__FILTER_MISSING"
	// RegexPrefix marks a serialized regular expression filter
	RegexPrefix = "REGEX:"
)

// StringFilter is an exact, missing or regular-expression string predicate
type StringFilter struct {
	Mode          StringFilterMode
	Value         string
	FilterMissing bool
}

// MappingFunction maps a raw domain interval onto a normalized range interval
type MappingFunction struct {
	Type   string
	Domain [2]float64
	Range  [2]float64
}

// DateGrouper controls how a date group criterion labels rows
type DateGrouper struct {
	Granularity string
	Circular    bool
}

// SortCriterion orders rows (or groups) by one column
type SortCriterion struct {
	Column Column
	Asc    bool
}

// Ranking is the server-side view of one client ranking
type Ranking struct {
	Filters   []Column
	Sort      []SortCriterion
	Groups    []Column
	GroupSort []SortCriterion
}

// ComputeKind names the statistic requested for a column
type ComputeKind string

const (
	ComputeNumber      ComputeKind = "number"
	ComputeBoxplot     ComputeKind = "boxplot"
	ComputeCategorical ComputeKind = "categorical"
	ComputeDate        ComputeKind = "date"
)

// ComputeColumn pairs a column with the statistic to compute for it
type ComputeColumn struct {
	Column Column
	Kind   ComputeKind
}
