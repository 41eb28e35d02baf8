package aggregation

import (
	"testing"
	"time"

	"lineupremote/domain/stats"

	"github.com/stretchr/testify/assert"
)

func TestBinCount(t *testing.T) {
	tests := []struct {
		rows int64
		want int
	}{
		{rows: 0, want: 1},
		{rows: 1, want: 1},
		{rows: 2, want: 2},
		{rows: 100, want: 8},
		{rows: 1024, want: 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BinCount(tt.rows), "rows=%d", tt.rows)
	}
}

func TestNumberEdges_EndsAtDomainMax(t *testing.T) {
	edges := NumberEdges(0, 0.3, 7)
	assert.Len(t, edges, 8)
	assert.Equal(t, 0.0, edges[0])
	assert.Equal(t, 0.3, edges[7])
	for i := 1; i < len(edges); i++ {
		assert.Greater(t, edges[i], edges[i-1])
	}
}

func TestDateGranularity(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, stats.GranularityYear, DateGranularity(start, start.AddDate(0, 0, 400)))
	assert.Equal(t, stats.GranularityMonth, DateGranularity(start, start.AddDate(0, 0, 40)))
	assert.Equal(t, stats.GranularityDay, DateGranularity(start, start.AddDate(0, 0, 10)))
}

func TestDateEdges_HalfOpenCoverage(t *testing.T) {
	min := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)
	max := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)

	edges := DateEdges(min, max, stats.GranularityMonth)
	assert.Equal(t, []time.Time{
		time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
	}, edges)
}

func TestDateEdges_SingleInstant(t *testing.T) {
	at := time.Date(2021, 7, 4, 13, 0, 0, 0, time.UTC)
	edges := DateEdges(at, at, stats.GranularityDay)
	assert.Len(t, edges, 2)
	assert.True(t, edges[1].After(at))
}

func TestBucketCounts(t *testing.T) {
	counts, err := bucketCounts(nil, 3, 0)
	assert.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 0}, counts)

	_, err = bucketCounts([]int64{1}, 3, 1)
	assert.Error(t, err)
}
