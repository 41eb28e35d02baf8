package testkit

import (
	"math/rand"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"lineupremote/domain/catalog"
	"lineupremote/domain/column"
)

// RowGeneratorConfig configures the demo row generator
type RowGeneratorConfig struct {
	Rows        int       `json:"rows"`
	MissingRate float64   `json:"missing_rate"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Seed        int64     `json:"seed"`
}

// DefaultRowConfig returns sensible defaults for demo data generation
func DefaultRowConfig() RowGeneratorConfig {
	return RowGeneratorConfig{
		Rows:        1000,
		MissingRate: 0.05,
		StartDate:   time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		Seed:        42,
	}
}

var syllables = []string{"ka", "lo", "mi", "ne", "ru", "sa", "ti", "vo", "ze", "pa"}

// RowGenerator produces deterministic rows for every column of a catalog.
// Numbers follow a skewed Beta(2, 5) over the declared domain, categories a
// Zipf-like weighting in declared order.
type RowGenerator struct {
	config  RowGeneratorConfig
	catalog *catalog.Catalog
	rng     *rand.Rand
	numbers distuv.Beta
}

// NewRowGenerator creates a new row generator
func NewRowGenerator(cat *catalog.Catalog, config RowGeneratorConfig) *RowGenerator {
	return &RowGenerator{
		config:  config,
		catalog: cat,
		rng:     rand.New(rand.NewSource(config.Seed)),
		numbers: distuv.Beta{Alpha: 2, Beta: 5},
	}
}

// Generate returns config.Rows rows keyed by column name. Ids run from 0 so
// they double as data indices.
func (g *RowGenerator) Generate() []map[string]any {
	rows := make([]map[string]any, 0, g.config.Rows)
	for i := 0; i < g.config.Rows; i++ {
		row := map[string]any{g.catalog.IDColumn: int64(i)}
		for _, c := range g.catalog.Columns {
			if g.rng.Float64() < g.config.MissingRate {
				row[c.Column] = nil
				continue
			}
			row[c.Column] = g.value(c)
		}
		rows = append(rows, row)
	}
	return rows
}

func (g *RowGenerator) value(c catalog.ColumnDesc) any {
	switch c.Type {
	case "number":
		m := column.MappingFunction{Type: column.MappingLinear, Domain: [2]float64{0, 1}, Range: [2]float64{0, 1}}
		if len(c.Domain) == 2 {
			m.Domain = [2]float64{c.Domain[0], c.Domain[1]}
		}
		return m.Invert(g.numbers.Quantile(g.rng.Float64()))
	case "categorical":
		return g.category(c.Categories)
	case "date":
		return g.randomTimeInRange(g.config.StartDate, g.config.EndDate)
	default:
		return g.word()
	}
}

// category picks index i with weight 1/(i+1)
func (g *RowGenerator) category(categories []string) string {
	var total float64
	for i := range categories {
		total += 1 / float64(i+1)
	}
	u := g.rng.Float64() * total
	for i, cat := range categories {
		u -= 1 / float64(i+1)
		if u < 0 {
			return cat
		}
	}
	return categories[len(categories)-1]
}

func (g *RowGenerator) word() string {
	var sb strings.Builder
	n := 2 + g.rng.Intn(3)
	for i := 0; i < n; i++ {
		sb.WriteString(syllables[g.rng.Intn(len(syllables))])
	}
	return sb.String()
}

// randomTimeInRange generates a random time between start and end
func (g *RowGenerator) randomTimeInRange(start, end time.Time) time.Time {
	if !end.After(start) {
		return start
	}
	delta := end.Sub(start)
	return start.Add(time.Duration(g.rng.Int63n(int64(delta)))).Truncate(time.Second)
}
