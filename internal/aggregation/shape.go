package aggregation

import (
	"encoding/json"
	"fmt"
	"time"

	"lineupremote/domain/stats"
)

// Documents returned by the store-side aggregates

type rawNumber struct {
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Mean    *float64 `json:"mean"`
	Count   int64    `json:"count"`
	Missing int64    `json:"missing"`
	Hist    []int64  `json:"hist"`
}

type rawBoxplot struct {
	Min         *float64  `json:"min"`
	Q1          *float64  `json:"q1"`
	Median      *float64  `json:"median"`
	Q3          *float64  `json:"q3"`
	Max         *float64  `json:"max"`
	WhiskerLow  *float64  `json:"whiskerLow"`
	WhiskerHigh *float64  `json:"whiskerHigh"`
	Mean        *float64  `json:"mean"`
	Outlier     []float64 `json:"outlier"`
	Count       int64     `json:"count"`
	Missing     int64     `json:"missing"`
}

type rawCategorical struct {
	Count   int64 `json:"count"`
	Missing int64 `json:"missing"`
	Hist    []struct {
		Cat   string `json:"cat"`
		Count int64  `json:"count"`
	} `json:"hist"`
}

type rawDate struct {
	Count   int64   `json:"count"`
	Missing int64   `json:"missing"`
	Hist    []int64 `json:"hist"`
}

func decode(v any, target any) error {
	doc, err := toJSON(v)
	if err != nil {
		return err
	}
	if len(doc) == 0 {
		return nil
	}
	if err := json.Unmarshal(doc, target); err != nil {
		return fmt.Errorf("failed to decode aggregate result: %w", err)
	}
	return nil
}

// bucketCounts checks the store returned one count per expected bucket. An
// aggregate over no values may return no histogram at all.
func bucketCounts(hist []int64, buckets int, valued int64) ([]int64, error) {
	if len(hist) == buckets {
		return hist, nil
	}
	if len(hist) == 0 && valued == 0 {
		return make([]int64, buckets), nil
	}
	return nil, fmt.Errorf("aggregate returned %d buckets, expected %d", len(hist), buckets)
}

func shapeStatistics(v any, domainMin, domainMax float64, bins int) (stats.Statistics, error) {
	var raw rawNumber
	if err := decode(v, &raw); err != nil {
		return stats.Statistics{}, err
	}
	counts, err := bucketCounts(raw.Hist, bins, raw.Count-raw.Missing)
	if err != nil {
		return stats.Statistics{}, err
	}

	edges := NumberEdges(domainMin, domainMax, bins)
	hist := make([]stats.NumberBin, bins)
	var maxBin int64
	for i, c := range counts {
		hist[i] = stats.NumberBin{X0: edges[i], X1: edges[i+1], Count: c}
		if c > maxBin {
			maxBin = c
		}
	}
	return stats.Statistics{
		Min:     raw.Min,
		Max:     raw.Max,
		Mean:    raw.Mean,
		Count:   raw.Count,
		Missing: raw.Missing,
		MaxBin:  maxBin,
		Hist:    hist,
	}, nil
}

func shapeBoxplot(v any) (stats.Boxplot, error) {
	var raw rawBoxplot
	if err := decode(v, &raw); err != nil {
		return stats.Boxplot{}, err
	}
	outliers := raw.Outlier
	if outliers == nil {
		outliers = []float64{}
	}
	return stats.Boxplot{
		Min:         raw.Min,
		Q1:          raw.Q1,
		Median:      raw.Median,
		Q3:          raw.Q3,
		Max:         raw.Max,
		WhiskerLow:  raw.WhiskerLow,
		WhiskerHigh: raw.WhiskerHigh,
		Mean:        raw.Mean,
		Outlier:     outliers,
		Missing:     raw.Missing,
		Count:       raw.Count,
	}, nil
}

// shapeCategorical reports every declared category in declared order,
// including the ones absent from the data
func shapeCategorical(v any, categories []string) (stats.CategoricalStat, error) {
	var raw rawCategorical
	if err := decode(v, &raw); err != nil {
		return stats.CategoricalStat{}, err
	}
	observed := make(map[string]int64, len(raw.Hist))
	for _, b := range raw.Hist {
		observed[b.Cat] += b.Count
	}

	out := stats.CategoricalStat{
		Type:    "categorical",
		Count:   raw.Count,
		Missing: raw.Missing,
		Hist:    make([]stats.CategoricalBin, len(categories)),
	}
	for i, cat := range categories {
		c := observed[cat]
		out.Hist[i] = stats.CategoricalBin{Cat: cat, Count: c}
		if c > out.MaxBin {
			out.MaxBin = c
		}
	}
	return out, nil
}

func shapeDate(v any, bounds dateBounds) (stats.DateStat, error) {
	var raw rawDate
	if err := decode(v, &raw); err != nil {
		return stats.DateStat{}, err
	}
	buckets := len(bounds.edges) - 1
	counts, err := bucketCounts(raw.Hist, buckets, raw.Count-raw.Missing)
	if err != nil {
		return stats.DateStat{}, err
	}

	out := stats.DateStat{
		Type:        "date",
		Min:         bounds.min,
		Max:         bounds.max,
		Count:       raw.Count,
		Missing:     raw.Missing,
		Granularity: bounds.granularity,
		Hist:        make([]stats.DateBin, buckets),
	}
	for i, c := range counts {
		out.Hist[i] = stats.DateBin{X0: bounds.edges[i], X1: bounds.edges[i+1], Count: c}
		if c > out.MaxBin {
			out.MaxBin = c
		}
	}
	return out, nil
}

// emptyDate describes a date column without a single non-null value
func emptyDate(rows int64) stats.DateStat {
	return stats.DateStat{
		Type:        "date",
		Count:       rows,
		Missing:     rows,
		Granularity: stats.GranularityDay,
		Hist:        []stats.DateBin{},
	}
}

type dateBounds struct {
	min, max    *time.Time
	granularity stats.Granularity
	edges       []time.Time
}

func newDateBounds(min, max *time.Time) dateBounds {
	if min == nil || max == nil {
		return dateBounds{}
	}
	g := DateGranularity(*min, *max)
	return dateBounds{min: min, max: max, granularity: g, edges: DateEdges(*min, *max, g)}
}

func (b dateBounds) empty() bool {
	return b.min == nil
}
