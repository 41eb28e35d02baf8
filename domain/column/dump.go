package column

import "time"

// Dump renders c in the descriptor format ParseColumnDump accepts
func Dump(c Column) map[string]any {
	h := c.Info()
	out := map[string]any{"id": h.ID}

	switch v := c.(type) {
	case *NumberColumn:
		out["desc"] = string(TypeNumber) + "@" + h.Column
		out["map"] = map[string]any{
			"type":   v.Mapping.Type,
			"domain": []float64{v.Mapping.Domain[0], v.Mapping.Domain[1]},
			"range":  []float64{v.Mapping.Range[0], v.Mapping.Range[1]},
		}
		out["groupSortMethod"] = v.GroupSortMethod
		if len(v.StratifyThresholds) > 0 {
			out["stratifyThresholds"] = v.StratifyThresholds
		}
		if v.Filter != nil {
			out["filter"] = dumpNumberFilter(v.Filter)
		}
	case *StringColumn:
		out["desc"] = string(TypeString) + "@" + h.Column
		if v.Filter != nil {
			out["filter"] = dumpStringFilter(v.Filter)
		}
	case *CategoricalColumn:
		out["desc"] = string(TypeCategorical) + "@" + h.Column
		if v.Filter != nil {
			out["filter"] = map[string]any{"filter": v.Filter.Values, "filterMissing": v.Filter.FilterMissing}
		}
	case *DateColumn:
		out["desc"] = string(TypeDate) + "@" + h.Column
		if v.Filter != nil {
			out["filter"] = dumpNumberFilter(v.Filter)
		}
		if v.Grouper != nil {
			out["grouper"] = map[string]any{"granularity": v.Grouper.Granularity, "circular": v.Grouper.Circular}
		}
	case *CompositeColumn:
		out["desc"] = map[string]any{"type": string(h.Type), "label": h.Description}
		children := make([]any, 0, len(v.Children))
		for _, child := range v.Children {
			children = append(children, Dump(child))
		}
		out["children"] = children
	case *GenericColumn:
		if h.Column != "" {
			out["desc"] = v.Kind + "@" + h.Column
		} else {
			out["desc"] = map[string]any{"type": v.Kind, "label": h.Description}
		}
	}
	return out
}

func dumpNumberFilter(f *NumberFilter) map[string]any {
	return map[string]any{"min": f.Min, "max": f.Max, "filterMissing": f.FilterMissing}
}

func dumpStringFilter(f *StringFilter) map[string]any {
	var raw string
	switch f.Mode {
	case StringFilterMissing:
		raw = FilterMissingSentinel
	case StringFilterRegex:
		raw = RegexPrefix + f.Value
	default:
		raw = f.Value
	}
	return map[string]any{"filter": raw, "filterMissing": f.FilterMissing}
}

// MillisToTime converts a client epoch-millisecond bound to a UTC time
func MillisToTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}
