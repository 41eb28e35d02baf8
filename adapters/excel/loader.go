package excel

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"lineupremote/domain/catalog"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/06 15:04",
	"1/2/06",
}

// Loader converts spreadsheet rows into typed rows of the catalog table
type Loader struct {
	catalog *catalog.Catalog
	config  LoaderConfig
}

// NewLoader creates a loader for the given table description
func NewLoader(cat *catalog.Catalog, config LoaderConfig) *Loader {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultLoaderConfig().ChunkSize
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Loader{catalog: cat, config: config}
}

// LoadFile reads an xlsx or csv file and converts it
func (l *Loader) LoadFile(ctx context.Context, path string) ([]map[string]any, error) {
	data, err := NewDataReader(path, l.config.Sheet).ReadData()
	if err != nil {
		return nil, err
	}
	return l.Convert(ctx, data)
}

// Convert types every raw row. Rows are converted in chunks in parallel;
// the result keeps sheet order. Without an id header the sheet position is the id.
func (l *Loader) Convert(ctx context.Context, data *SheetData) ([]map[string]any, error) {
	for _, col := range l.catalog.Columns {
		if !slices.Contains(data.Headers, col.Column) {
			log.Warn().Str("column", col.Column).Msg("column missing from sheet, values will be null")
		}
	}
	hasID := slices.Contains(data.Headers, l.catalog.IDColumn)

	out := make([]map[string]any, len(data.Rows))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.Workers)
	for start := 0; start < len(data.Rows); start += l.config.ChunkSize {
		end := min(start+l.config.ChunkSize, len(data.Rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				row, err := l.convertRow(data.Rows[i], int64(i), hasID)
				if err != nil {
					return fmt.Errorf("row %d: %w", i+2, err)
				}
				out[i] = row
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) convertRow(raw RawRowData, index int64, hasID bool) (map[string]any, error) {
	row := make(map[string]any, len(l.catalog.Columns)+1)
	idColumn := l.catalog.IDColumn
	row[idColumn] = index
	if hasID {
		id, err := strconv.ParseInt(raw[idColumn], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", raw[idColumn])
		}
		row[idColumn] = id
	}
	for _, col := range l.catalog.Columns {
		v, err := convertCell(col, raw[col.Column])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Column, err)
		}
		row[col.Column] = v
	}
	return row, nil
}

func convertCell(col catalog.ColumnDesc, cell string) (any, error) {
	if cell == "" {
		return nil, nil
	}
	switch col.Type {
	case "number":
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", cell)
		}
		return f, nil
	case "categorical":
		if !slices.Contains(col.Categories, cell) {
			return nil, fmt.Errorf("unknown category %q", cell)
		}
		return cell, nil
	case "date":
		return parseDate(cell)
	default:
		return cell, nil
	}
}

// parseDate accepts common text layouts and raw Excel serial dates
func parseDate(cell string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.UTC(), nil
		}
	}
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", cell)
}
