package aggregation

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// BinCount is Sturges' rule: ceil(log2(n)) + 1, with a single bin for no rows
func BinCount(n int64) int {
	if n <= 0 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// NumberEdges splits [min, max] into bins equal widths. The last edge is set
// to max exactly so rounding never leaves a gap at the top of the domain.
func NumberEdges(min, max float64, bins int) []float64 {
	if bins < 1 {
		bins = 1
	}
	edges := floats.Span(make([]float64, bins+1), min, max)
	edges[0] = min
	edges[bins] = max
	return edges
}
