package excel

// RawRowData represents a row of raw spreadsheet data as string key-value pairs
type RawRowData map[string]string

// SheetData represents the complete spreadsheet dataset
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// LoaderConfig holds configuration for turning a workbook into table rows
type LoaderConfig struct {
	Sheet     string `json:"sheet"`
	ChunkSize int    `json:"chunk_size"`
	Workers   int    `json:"workers"`
}

// DefaultLoaderConfig returns sensible defaults for row conversion
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Sheet:     "Sheet1",
		ChunkSize: 1000,
		Workers:   4,
	}
}
