package stats

import (
	"time"
)

// ============================================================================
// SHAPED STATISTICS (what the client renders)
// ============================================================================

// Stat is one shaped statistic. A nil Stat marks an unsupported aggregate.
type Stat interface {
	StatType() string
}

// Granularity of date histogram buckets
type Granularity string

const (
	GranularityYear  Granularity = "year"
	GranularityMonth Granularity = "month"
	GranularityDay   Granularity = "day"
)

// NumberBin is one fixed-width histogram bucket [X0, X1)
type NumberBin struct {
	X0    float64 `json:"x0"`
	X1    float64 `json:"x1"`
	Count int64   `json:"count"`
}

// Statistics summarizes a number column over one domain.
// INVARIANTS:
// - len(Hist) equals the request bin count
// - Hist[len-1].X1 equals the domain maximum exactly
// - Missing rows are never counted in any bucket
type Statistics struct {
	Min     *float64    `json:"min"`
	Max     *float64    `json:"max"`
	Mean    *float64    `json:"mean"`
	Count   int64       `json:"count"`
	Missing int64       `json:"missing"`
	MaxBin  int64       `json:"maxBin"`
	Hist    []NumberBin `json:"hist"`
}

// NumberStat carries raw and normalized summaries side by side
type NumberStat struct {
	Type       string     `json:"type"`
	Raw        Statistics `json:"raw"`
	Normalized Statistics `json:"normalized"`
}

func (NumberStat) StatType() string { return "number" }

// Boxplot is a five-number summary plus whiskers and outliers
type Boxplot struct {
	Min         *float64  `json:"min"`
	Q1          *float64  `json:"q1"`
	Median      *float64  `json:"median"`
	Q3          *float64  `json:"q3"`
	Max         *float64  `json:"max"`
	WhiskerLow  *float64  `json:"whiskerLow"`
	WhiskerHigh *float64  `json:"whiskerHigh"`
	Mean        *float64  `json:"mean"`
	Outlier     []float64 `json:"outlier"`
	Missing     int64     `json:"missing"`
	Count       int64     `json:"count"`
}

// BoxplotStat carries raw and normalized boxplots side by side
type BoxplotStat struct {
	Type       string  `json:"type"`
	Raw        Boxplot `json:"raw"`
	Normalized Boxplot `json:"normalized"`
}

func (BoxplotStat) StatType() string { return "boxplot" }

// CategoricalBin counts one declared category
type CategoricalBin struct {
	Cat   string `json:"cat"`
	Count int64  `json:"count"`
}

// CategoricalStat lists every declared category in declared order
type CategoricalStat struct {
	Type    string           `json:"type"`
	Count   int64            `json:"count"`
	Missing int64            `json:"missing"`
	MaxBin  int64            `json:"maxBin"`
	Hist    []CategoricalBin `json:"hist"`
}

func (CategoricalStat) StatType() string { return "categorical" }

// DateBin is one calendar-aligned bucket [X0, X1)
type DateBin struct {
	X0    time.Time `json:"x0"`
	X1    time.Time `json:"x1"`
	Count int64     `json:"count"`
}

// DateStat is a date histogram with the granularity its buckets use
type DateStat struct {
	Type        string      `json:"type"`
	Min         *time.Time  `json:"min"`
	Max         *time.Time  `json:"max"`
	Count       int64       `json:"count"`
	Missing     int64       `json:"missing"`
	MaxBin      int64       `json:"maxBin"`
	Granularity Granularity `json:"granularity"`
	Hist        []DateBin   `json:"hist"`
}

func (DateStat) StatType() string { return "date" }
