package ports

import "context"

// RowRepository reads and writes rows of the served table
type RowRepository interface {
	Count(ctx context.Context) (int64, error)
	Rows(ctx context.Context, ids []int64) ([]Row, error)
	Row(ctx context.Context, id int64) (Row, error)

	// Search returns ids of rows whose column matches query: a case-insensitive
	// substring, or a regular expression when regex is set
	Search(ctx context.Context, column, query string, regex bool) ([]int64, error)
	// Sample returns up to limit random non-null values of a number column
	Sample(ctx context.Context, column string, limit int) ([]float64, error)

	Insert(ctx context.Context, rows []map[string]any) (int64, error)
}
