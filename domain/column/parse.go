package column

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"lineupremote/domain/core"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseColumnDump parses one column descriptor
func ParseColumnDump(data []byte) (Column, error) {
	r, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	return parseColumn(r, "$")
}

// ParseRankingDump parses a ranking descriptor. Every list is optional.
func ParseRankingDump(data []byte) (*Ranking, error) {
	r, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	return parseRanking(r, "$")
}

// ParseComputeColumnDump parses a {type, dump} compute request
func ParseComputeColumnDump(data []byte) (ComputeColumn, error) {
	r, err := parseDocument(data)
	if err != nil {
		return ComputeColumn{}, err
	}
	return parseComputeColumn(r, "$")
}

// ParseComputeColumns parses a JSON array of compute requests
func ParseComputeColumns(data []byte) ([]ComputeColumn, error) {
	r, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	if !r.IsArray() {
		return nil, core.NewMalformedError("$", "must be an array")
	}
	items := r.Array()
	out := make([]ComputeColumn, 0, len(items))
	for i, item := range items {
		cc, err := parseComputeColumn(item, fmt.Sprintf("$[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, nil
}

func parseDocument(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, core.NewMalformedError("$", "is not valid JSON")
	}
	return gjson.ParseBytes(data), nil
}

func parseColumn(r gjson.Result, path string) (Column, error) {
	if !r.IsObject() {
		return nil, core.NewMalformedError(path, "must be an object")
	}
	id, err := requiredString(r, "id", path)
	if err != nil {
		return nil, err
	}

	desc := r.Get("desc")
	switch {
	case !desc.Exists() || desc.Type == gjson.Null:
		return nil, core.NewMalformedError(path+".desc", "is required")
	case desc.Type == gjson.String:
		return parseLeaf(r, id, desc.Str, path)
	case desc.IsObject():
		return parseObjectDesc(r, id, desc, path)
	default:
		return nil, core.NewMalformedError(path+".desc", "must be a string or an object")
	}
}

func parseLeaf(r gjson.Result, id, desc, path string) (Column, error) {
	kind, name, ok := strings.Cut(desc, "@")
	if !ok || kind == "" {
		return nil, core.NewMalformedError(path+".desc", "must have the form <kind>@<column>")
	}
	if !identifierPattern.MatchString(name) {
		return nil, core.NewMalformedError(path+".desc", fmt.Sprintf("column %q is not a valid identifier", name))
	}

	header := Header{ID: id, Description: desc, Column: name}
	switch ColumnType(kind) {
	case TypeNumber:
		header.Type = TypeNumber
		return parseNumberColumn(r, header, path)
	case TypeString:
		header.Type = TypeString
		filter, err := parseStringFilter(r.Get("filter"), path+".filter")
		if err != nil {
			return nil, err
		}
		return &StringColumn{Header: header, Filter: filter}, nil
	case TypeCategorical:
		header.Type = TypeCategorical
		filter, err := parseCategoricalFilter(r.Get("filter"), path+".filter")
		if err != nil {
			return nil, err
		}
		return &CategoricalColumn{Header: header, Filter: filter}, nil
	case TypeDate:
		header.Type = TypeDate
		filter, err := parseNumberFilter(r.Get("filter"), path+".filter")
		if err != nil {
			return nil, err
		}
		grouper, err := parseDateGrouper(r.Get("grouper"), path+".grouper")
		if err != nil {
			return nil, err
		}
		return &DateColumn{Header: header, Filter: filter, Grouper: grouper}, nil
	default:
		header.Type = TypeOther
		return &GenericColumn{Header: header, Kind: kind}, nil
	}
}

func parseObjectDesc(r gjson.Result, id string, desc gjson.Result, path string) (Column, error) {
	kind := desc.Get("type").String()
	header := Header{ID: id, Description: desc.Get("label").String()}

	if t := ColumnType(kind); t.IsComposite() {
		header.Type = t
		children := r.Get("children")
		if children.Exists() && children.Type != gjson.Null && !children.IsArray() {
			return nil, core.NewMalformedError(path+".children", "must be an array")
		}
		parsed := make([]Column, 0)
		for i, child := range children.Array() {
			c, err := parseColumn(child, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, c)
		}
		return &CompositeColumn{Header: header, Children: parsed}, nil
	}

	header.Type = TypeOther
	return &GenericColumn{Header: header, Kind: kind}, nil
}

func parseNumberColumn(r gjson.Result, header Header, path string) (Column, error) {
	mapping, err := parseMapping(r.Get("map"), path+".map")
	if err != nil {
		return nil, err
	}
	filter, err := parseNumberFilter(r.Get("filter"), path+".filter")
	if err != nil {
		return nil, err
	}

	method := DefaultGroupSortMethod
	if m := r.Get("groupSortMethod"); m.Exists() && m.Type != gjson.Null {
		if m.Type != gjson.String {
			return nil, core.NewMalformedError(path+".groupSortMethod", "must be a string")
		}
		method = m.Str
	}

	var thresholds []float64
	if th := r.Get("stratifyThresholds"); th.Exists() && th.Type != gjson.Null {
		if !th.IsArray() {
			return nil, core.NewMalformedError(path+".stratifyThresholds", "must be an array")
		}
		for i, v := range th.Array() {
			if v.Type != gjson.Number {
				return nil, core.NewMalformedError(fmt.Sprintf("%s.stratifyThresholds[%d]", path, i), "must be a number")
			}
			thresholds = append(thresholds, v.Num)
		}
	}

	mapped, err := mappedExpr(header.Column, mapping)
	if err != nil {
		return nil, core.NewMalformedError(path+".map", err.Error())
	}

	return &NumberColumn{
		Header:             header,
		Mapping:            mapping,
		Filter:             filter,
		GroupSortMethod:    method,
		StratifyThresholds: thresholds,
		Mapped:             mapped,
	}, nil
}

func parseMapping(r gjson.Result, path string) (MappingFunction, error) {
	var m MappingFunction
	if !r.IsObject() {
		return m, core.NewMalformedError(path, "is required and must be an object")
	}
	m.Type = MappingLinear
	if t := r.Get("type"); t.Exists() && t.Type != gjson.Null {
		m.Type = t.String()
	}
	domain, err := interval(r.Get("domain"), path+".domain")
	if err != nil {
		return m, err
	}
	if domain[0] > domain[1] {
		return m, core.NewMalformedError(path+".domain", "must be ordered")
	}
	m.Domain = domain

	m.Range = [2]float64{0, 1}
	if rng := r.Get("range"); rng.Exists() && rng.Type != gjson.Null {
		if m.Range, err = interval(rng, path+".range"); err != nil {
			return m, err
		}
	}
	return m, nil
}

func interval(r gjson.Result, path string) ([2]float64, error) {
	var out [2]float64
	items := r.Array()
	if !r.IsArray() || len(items) != 2 {
		return out, core.NewMalformedError(path, "must be a two-element array")
	}
	for i, v := range items {
		if v.Type != gjson.Number {
			return out, core.NewMalformedError(fmt.Sprintf("%s[%d]", path, i), "must be a number")
		}
		out[i] = v.Num
	}
	return out, nil
}

func parseNumberFilter(r gjson.Result, path string) (*NumberFilter, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	if !r.IsObject() {
		return nil, core.NewMalformedError(path, "must be an object")
	}
	min, err := optionalNumber(r.Get("min"), path+".min")
	if err != nil {
		return nil, err
	}
	max, err := optionalNumber(r.Get("max"), path+".max")
	if err != nil {
		return nil, err
	}
	missing, err := optionalBool(r.Get("filterMissing"), path+".filterMissing")
	if err != nil {
		return nil, err
	}
	return &NumberFilter{Min: min, Max: max, FilterMissing: missing}, nil
}

func parseCategoricalFilter(r gjson.Result, path string) (*CategoricalFilter, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	if !r.IsObject() {
		return nil, core.NewMalformedError(path, "must be an object")
	}
	f := &CategoricalFilter{}
	values := r.Get("filter")
	switch {
	case !values.Exists() || values.Type == gjson.Null:
	case values.Type == gjson.String:
		f.Values = []string{values.Str}
	case values.IsArray():
		for i, v := range values.Array() {
			if v.Type != gjson.String {
				return nil, core.NewMalformedError(fmt.Sprintf("%s.filter[%d]", path, i), "must be a string")
			}
			f.Values = append(f.Values, v.Str)
		}
	default:
		return nil, core.NewMalformedError(path+".filter", "must be an array of strings")
	}
	missing, err := optionalBool(r.Get("filterMissing"), path+".filterMissing")
	if err != nil {
		return nil, err
	}
	f.FilterMissing = missing
	return f, nil
}

// parseStringFilter accepts both the bare string form and {filter, filterMissing}
func parseStringFilter(r gjson.Result, path string) (*StringFilter, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	var raw string
	var missing bool
	switch {
	case r.Type == gjson.String:
		if r.Str == "" {
			return nil, nil
		}
		raw = r.Str
	case r.IsObject():
		v := r.Get("filter")
		if v.Exists() && v.Type != gjson.Null && v.Type != gjson.String {
			return nil, core.NewMalformedError(path+".filter", "must be a string")
		}
		raw = v.Str
		var err error
		if missing, err = optionalBool(r.Get("filterMissing"), path+".filterMissing"); err != nil {
			return nil, err
		}
		if raw == "" && !missing {
			return nil, nil
		}
	default:
		return nil, core.NewMalformedError(path, "must be a string or an object")
	}

	f := &StringFilter{FilterMissing: missing}
	switch {
	case raw == FilterMissingSentinel:
		f.Mode = StringFilterMissing
	case strings.HasPrefix(raw, RegexPrefix):
		f.Mode = StringFilterRegex
		f.Value = strings.TrimPrefix(raw, RegexPrefix)
		if _, err := regexp.Compile(f.Value); err != nil {
			return nil, core.NewMalformedError(path, "holds an invalid regular expression")
		}
	case raw == "":
		f.Mode = StringFilterMissing
	default:
		f.Mode = StringFilterExact
		f.Value = raw
	}
	return f, nil
}

func parseDateGrouper(r gjson.Result, path string) (*DateGrouper, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	if !r.IsObject() {
		return nil, core.NewMalformedError(path, "must be an object")
	}
	g, err := requiredString(r, "granularity", path)
	if err != nil {
		return nil, err
	}
	if !IsGrouperGranularity(g) {
		return nil, core.NewMalformedError(path+".granularity", fmt.Sprintf("unknown granularity %q", g))
	}
	circular, err := optionalBool(r.Get("circular"), path+".circular")
	if err != nil {
		return nil, err
	}
	return &DateGrouper{Granularity: g, Circular: circular}, nil
}

func parseRanking(r gjson.Result, path string) (*Ranking, error) {
	if !r.IsObject() {
		return nil, core.NewMalformedError(path, "must be an object")
	}
	ranking := &Ranking{}
	var err error
	if ranking.Filters, err = parseColumnList(r.Get("filter"), path+".filter"); err != nil {
		return nil, err
	}
	if ranking.Sort, err = parseSortList(r.Get("sortCriteria"), path+".sortCriteria"); err != nil {
		return nil, err
	}
	if ranking.Groups, err = parseColumnList(r.Get("groupCriteria"), path+".groupCriteria"); err != nil {
		return nil, err
	}
	for i, g := range ranking.Groups {
		if g.Info().Column == "" {
			return nil, core.NewMalformedError(fmt.Sprintf("%s.groupCriteria[%d]", path, i), "does not name a data column")
		}
	}
	if ranking.GroupSort, err = parseSortList(r.Get("groupSortCriteria"), path+".groupSortCriteria"); err != nil {
		return nil, err
	}
	return ranking, nil
}

func parseColumnList(r gjson.Result, path string) ([]Column, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	if !r.IsArray() {
		return nil, core.NewMalformedError(path, "must be an array")
	}
	var out []Column
	for i, item := range r.Array() {
		c, err := parseColumn(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseSortList(r gjson.Result, path string) ([]SortCriterion, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	if !r.IsArray() {
		return nil, core.NewMalformedError(path, "must be an array")
	}
	var out []SortCriterion
	for i, item := range r.Array() {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if !item.IsObject() {
			return nil, core.NewMalformedError(itemPath, "must be an object")
		}
		col, err := parseColumn(item.Get("col"), itemPath+".col")
		if err != nil {
			return nil, err
		}
		if col.Info().Column == "" {
			return nil, core.NewMalformedError(itemPath+".col", "does not name a data column")
		}
		asc, err := optionalBool(item.Get("asc"), itemPath+".asc")
		if err != nil {
			return nil, err
		}
		out = append(out, SortCriterion{Column: col, Asc: asc})
	}
	return out, nil
}

func parseComputeColumn(r gjson.Result, path string) (ComputeColumn, error) {
	if !r.IsObject() {
		return ComputeColumn{}, core.NewMalformedError(path, "must be an object")
	}
	kind, err := requiredString(r, "type", path)
	if err != nil {
		return ComputeColumn{}, err
	}
	col, err := parseColumn(r.Get("dump"), path+".dump")
	if err != nil {
		return ComputeColumn{}, err
	}
	return ComputeColumn{Column: col, Kind: ComputeKind(kind)}, nil
}

func requiredString(r gjson.Result, key, path string) (string, error) {
	v := r.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return "", core.NewMalformedError(path+"."+key, "is required")
	}
	if v.Type != gjson.String {
		return "", core.NewMalformedError(path+"."+key, "must be a string")
	}
	return v.Str, nil
}

func optionalNumber(v gjson.Result, path string) (*float64, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if v.Type != gjson.Number {
		return nil, core.NewMalformedError(path, "must be a number")
	}
	n := v.Num
	return &n, nil
}

func optionalBool(v gjson.Result, path string) (bool, error) {
	switch v.Type {
	case gjson.True:
		return true, nil
	case gjson.False, gjson.Null:
		return false, nil
	}
	return false, core.NewMalformedError(path, "must be a boolean")
}
