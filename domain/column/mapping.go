package column

import (
	"fmt"
	"math"
	"strconv"

	"lineupremote/internal/sqlfrag"
)

// Mapping function types understood by the server
const (
	MappingLinear = "linear"
	MappingSqrt   = "sqrt"
	MappingLog    = "log"
	MappingPow1_1 = "pow1.1"
	MappingPow2   = "pow2"
	MappingPow3   = "pow3"
)

var powExponents = map[string]float64{
	MappingPow1_1: 1.1,
	MappingPow2:   2,
	MappingPow3:   3,
}

// DefaultGroupSortMethod orders number groups by their median
const DefaultGroupSortMethod = "median"

var grouperGranularities = map[string]bool{
	"year": true, "month": true, "week": true, "day": true, "hour": true, "minute": true, "second": true,
}

// IsGrouperGranularity reports whether g is a supported date grouping unit
func IsGrouperGranularity(g string) bool {
	return grouperGranularities[g]
}

func (m MappingFunction) scale(v float64) float64 {
	switch m.Type {
	case MappingSqrt:
		return math.Sqrt(v)
	case MappingLog:
		return math.Log(v)
	}
	if k, ok := powExponents[m.Type]; ok {
		return math.Pow(v, k)
	}
	return v
}

func (m MappingFunction) unscale(v float64) float64 {
	switch m.Type {
	case MappingSqrt:
		return v * v
	case MappingLog:
		return math.Exp(v)
	}
	if k, ok := powExponents[m.Type]; ok {
		return math.Pow(v, 1/k)
	}
	return v
}

// Invert maps a normalized value back into the raw domain
func (m MappingFunction) Invert(v float64) float64 {
	t := (v - m.Range[0]) / (m.Range[1] - m.Range[0])
	d0, d1 := m.scale(m.Domain[0]), m.scale(m.Domain[1])
	return m.unscale(d0 + t*(d1-d0))
}

func (m MappingFunction) validate() error {
	if _, ok := powExponents[m.Type]; !ok && m.Type != MappingLinear && m.Type != MappingSqrt && m.Type != MappingLog {
		return fmt.Errorf("type %q is not supported", m.Type)
	}
	if m.Domain[0] >= m.Domain[1] {
		return fmt.Errorf("domain must be a non-empty ordered interval")
	}
	if m.Range[0] == m.Range[1] {
		return fmt.Errorf("range must not be empty")
	}
	if m.Type == MappingSqrt && m.Domain[0] < 0 {
		return fmt.Errorf("sqrt domain must be non-negative")
	}
	if m.Type == MappingLog && m.Domain[0] <= 0 {
		return fmt.Errorf("log domain must be positive")
	}
	return nil
}

// mappedExpr builds the SQL expression normalizing column into [0,1]. Domain
// and range bounds are bound as parameters; nulls stay null.
func mappedExpr(column string, m MappingFunction) (sqlfrag.Expr, error) {
	if err := m.validate(); err != nil {
		return sqlfrag.Expr{}, err
	}
	d0 := numArg(column+"_map_d0", m.Domain[0])
	d1 := numArg(column+"_map_d1", m.Domain[1])
	r0 := numArg(column+"_map_r0", m.Range[0])
	r1 := numArg(column+"_map_r1", m.Range[1])

	value := sqlfrag.Raw("greatest(" + column + ", ").Append(d0).Raw(")")
	t := scaleExpr(m.Type, value).Raw(" - ").Append(scaleExpr(m.Type, d0)).Wrap().
		Raw(" / ").
		Append(scaleExpr(m.Type, d1).Raw(" - ").Append(scaleExpr(m.Type, d0)).Wrap())
	ranged := r0.Raw(" + ").Append(t.Wrap()).Raw(" * ").Append(r1.Raw(" - ").Append(r0).Wrap())

	return sqlfrag.Raw("CASE WHEN " + column + " IS NULL THEN NULL ELSE greatest(0, least(1, ").
		Append(ranged).
		Raw(")) END"), nil
}

func scaleExpr(mappingType string, e sqlfrag.Expr) sqlfrag.Expr {
	switch mappingType {
	case MappingSqrt:
		return sqlfrag.Raw("sqrt(").Append(e).Raw(")")
	case MappingLog:
		return sqlfrag.Raw("ln(").Append(e).Raw(")")
	}
	if k, ok := powExponents[mappingType]; ok {
		return sqlfrag.Raw("power(").Append(e).Raw(", " + strconv.FormatFloat(k, 'f', -1, 64) + ")")
	}
	return e
}

func numArg(name string, v float64) sqlfrag.Expr {
	return sqlfrag.Cast(name, v, "double precision")
}
