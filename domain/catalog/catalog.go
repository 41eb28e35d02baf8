// Package catalog describes the served table: which columns exist, their
// types, declared number domains and fixed category vocabularies.
package catalog

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"lineupremote/domain/column"
	"lineupremote/domain/core"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ColumnDesc is one column as advertised to the client
type ColumnDesc struct {
	Label      string    `json:"label" yaml:"label"`
	Type       string    `json:"type" yaml:"type"`
	Column     string    `json:"column" yaml:"column"`
	Domain     []float64 `json:"domain,omitempty" yaml:"domain,omitempty"`
	Categories []string  `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Catalog is the table description
type Catalog struct {
	Table    string       `json:"table" yaml:"table"`
	IDColumn string       `json:"idColumn" yaml:"id_column"`
	Columns  []ColumnDesc `json:"columns" yaml:"columns"`
}

// Default mirrors the demo table the client ships with
func Default() *Catalog {
	return &Catalog{
		Table:    "rows",
		IDColumn: "id",
		Columns: []ColumnDesc{
			{Label: "D", Type: "string", Column: "d"},
			{Label: "A", Type: "number", Column: "a", Domain: []float64{0, 1}},
			{Label: "Cat", Type: "categorical", Column: "cat", Categories: []string{"c1", "c2", "c3"}},
			{Label: "Cat Label", Type: "categorical", Column: "cat2", Categories: []string{"a1", "a2"}},
			{Label: "Date", Type: "date", Column: "dt"},
		},
	}
}

// Load reads a YAML catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if c.Table == "" {
		c.Table = "rows"
	}
	if c.IDColumn == "" {
		c.IDColumn = "id"
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every identifier can be spliced into SQL safely
func (c *Catalog) Validate() error {
	if !identifierPattern.MatchString(c.Table) {
		return fmt.Errorf("invalid table name %q", c.Table)
	}
	if !identifierPattern.MatchString(c.IDColumn) {
		return fmt.Errorf("invalid id column %q", c.IDColumn)
	}
	seen := make(map[string]bool, len(c.Columns))
	for i, col := range c.Columns {
		if !identifierPattern.MatchString(col.Column) {
			return fmt.Errorf("columns[%d]: invalid column name %q", i, col.Column)
		}
		if seen[col.Column] {
			return fmt.Errorf("columns[%d]: duplicate column %q", i, col.Column)
		}
		seen[col.Column] = true
		switch col.Type {
		case "number":
			if len(col.Domain) != 0 && len(col.Domain) != 2 {
				return fmt.Errorf("columns[%d]: domain must have two elements", i)
			}
			if len(col.Domain) == 2 && col.Domain[0] >= col.Domain[1] {
				return fmt.Errorf("columns[%d]: domain must be ordered", i)
			}
		case "categorical":
			if len(col.Categories) == 0 {
				return fmt.Errorf("columns[%d]: categorical column needs categories", i)
			}
		case "string", "date":
		default:
			return fmt.Errorf("columns[%d]: unknown type %q", i, col.Type)
		}
	}
	return nil
}

// Lookup returns the description of a column
func (c *Catalog) Lookup(column string) (ColumnDesc, bool) {
	for _, col := range c.Columns {
		if col.Column == column {
			return col, true
		}
	}
	return ColumnDesc{}, false
}

// Categories returns the declared vocabulary of a categorical column
func (c *Catalog) Categories(column string) ([]string, error) {
	col, ok := c.Lookup(column)
	if !ok || col.Type != "categorical" {
		return nil, fmt.Errorf("%w %q", core.ErrUnknownColumn, column)
	}
	return col.Categories, nil
}

// Require fails with a malformed-descriptor error for columns the table does not have
func (c *Catalog) Require(column string) error {
	if _, ok := c.Lookup(column); !ok {
		return fmt.Errorf("%w %q", core.ErrUnknownColumn, column)
	}
	return nil
}

// RequireType also rejects descriptors whose value type disagrees with the
// declared column type. Composite and unknown kinds only need the column.
func (c *Catalog) RequireType(name string, typ column.ColumnType) error {
	col, ok := c.Lookup(name)
	if !ok {
		return fmt.Errorf("%w %q", core.ErrUnknownColumn, name)
	}
	switch typ {
	case column.TypeNumber, column.TypeString, column.TypeCategorical, column.TypeDate:
		if col.Type != string(typ) {
			return core.NewMalformedError("desc", fmt.Sprintf("declares %s@%s but %s is a %s column", typ, name, name, col.Type))
		}
	}
	return nil
}
