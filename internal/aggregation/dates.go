package aggregation

import (
	"time"

	"lineupremote/domain/stats"
)

const day = 24 * time.Hour

// DateGranularity picks year buckets for spans over 365 days, month buckets
// for spans over 30 days and day buckets otherwise
func DateGranularity(min, max time.Time) stats.Granularity {
	span := max.Sub(min)
	switch {
	case span > 365*day:
		return stats.GranularityYear
	case span > 30*day:
		return stats.GranularityMonth
	default:
		return stats.GranularityDay
	}
}

// truncateDate aligns t to the start of its calendar unit in UTC
func truncateDate(t time.Time, g stats.Granularity) time.Time {
	t = t.UTC()
	switch g {
	case stats.GranularityYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case stats.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func advanceDate(t time.Time, g stats.Granularity) time.Time {
	switch g {
	case stats.GranularityYear:
		return t.AddDate(1, 0, 0)
	case stats.GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// DateEdges returns calendar-aligned bucket edges starting at the unit holding
// min. Buckets are half-open, so edges advance until one lies past max.
func DateEdges(min, max time.Time, g stats.Granularity) []time.Time {
	edge := truncateDate(min, g)
	edges := []time.Time{edge}
	last := max.UTC()
	for !edge.After(last) {
		edge = advanceDate(edge, g)
		edges = append(edges, edge)
	}
	return edges
}
