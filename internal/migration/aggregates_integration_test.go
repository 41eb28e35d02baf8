//go:build integration

package migration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineupremote/domain/catalog"
)

// Run with: LINEUP_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/migration
func setupAggregates(t *testing.T) (*sqlx.DB, string) {
	t.Helper()
	url := os.Getenv("LINEUP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LINEUP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	require.NoError(t, err)

	cat := catalog.Default()
	cat.Table = "lineup_aggregate_it"
	_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+cat.Table)
	require.NoError(t, err)
	require.NoError(t, NewRunner(cat).Run(ctx, db))
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+cat.Table)
		_ = db.Close()
	})

	day := func(y int, m time.Month, d, h, min int) *time.Time {
		v := time.Date(y, m, d, h, min, 0, 0, time.UTC)
		return &v
	}
	rows := []struct {
		a   *float64
		cat *string
		dt  *time.Time
	}{
		{ptr(0.0), ptr("c1"), day(2024, 1, 31, 23, 59)},
		{ptr(0.25), ptr("c1"), day(2024, 2, 1, 0, 0)},
		{ptr(0.5), ptr("c3"), day(2024, 3, 1, 0, 0)},
		{ptr(1.0), ptr("zz"), nil},
		{nil, nil, day(2024, 1, 1, 0, 0)},
		{ptr(0.999), ptr("c2"), day(2024, 2, 15, 12, 0)},
	}
	for i, r := range rows {
		_, err := db.ExecContext(ctx, "INSERT INTO "+cat.Table+" (id, a, cat, dt) VALUES ($1, $2, $3, $4)",
			int64(i), r.a, r.cat, r.dt)
		require.NoError(t, err)
	}
	return db, cat.Table
}

func ptr[T any](v T) *T {
	return &v
}

func aggregate(t *testing.T, db *sqlx.DB, query string, args ...any) map[string]any {
	t.Helper()
	var raw []byte
	require.NoError(t, db.QueryRowxContext(context.Background(), query, args...).Scan(&raw))
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func histSum(t *testing.T, doc map[string]any) float64 {
	t.Helper()
	var sum float64
	for _, v := range doc["hist"].([]any) {
		switch x := v.(type) {
		case float64:
			sum += x
		case map[string]any:
			sum += x["count"].(float64)
		}
	}
	return sum
}

func TestAggregates_Stats(t *testing.T) {
	db, table := setupAggregates(t)

	doc := aggregate(t, db, "SELECT stats(a, 4, 0, 1) FROM "+table)
	assert.Equal(t, float64(6), doc["count"])
	assert.Equal(t, float64(1), doc["missing"])
	assert.Equal(t, []any{float64(1), float64(1), float64(1), float64(2)}, doc["hist"])
	assert.Equal(t, doc["count"], histSum(t, doc)+doc["missing"].(float64))
	assert.Equal(t, float64(0), doc["min"])
	assert.Equal(t, float64(1), doc["max"])
}

func TestAggregates_Boxplot(t *testing.T) {
	db, table := setupAggregates(t)

	doc := aggregate(t, db, "SELECT boxplot(a) FROM "+table)
	assert.Equal(t, float64(6), doc["count"])
	assert.Equal(t, float64(1), doc["missing"])
	assert.InDelta(t, 0.5, doc["median"], 1e-9)
	assert.LessOrEqual(t, doc["q1"].(float64), doc["median"].(float64))
	assert.LessOrEqual(t, doc["median"].(float64), doc["q3"].(float64))
}

func TestAggregates_CathistCountsDeclaredVocabulary(t *testing.T) {
	db, table := setupAggregates(t)

	doc := aggregate(t, db, "SELECT cathist(cat, $1) FROM "+table, pq.Array([]string{"c1", "c2", "c3"}))
	assert.Equal(t, float64(6), doc["count"])
	assert.Equal(t, float64(1), doc["missing"])
	assert.Equal(t, []any{
		map[string]any{"cat": "c1", "count": float64(2)},
		map[string]any{"cat": "c2", "count": float64(1)},
		map[string]any{"cat": "c3", "count": float64(1)},
	}, doc["hist"])
	// "zz" is outside the vocabulary and only shows up in count
	assert.Equal(t, float64(4), histSum(t, doc))
}

func TestAggregates_DatestatsHalfOpenBuckets(t *testing.T) {
	db, table := setupAggregates(t)

	edges := pq.Array([]string{"2024-01-01T00:00:00Z", "2024-02-01T00:00:00Z", "2024-03-01T00:00:00Z"})
	doc := aggregate(t, db, "SELECT datestats(dt, CAST($1 AS timestamptz[])) FROM "+table, edges)
	assert.Equal(t, float64(6), doc["count"])
	assert.Equal(t, float64(1), doc["missing"])
	// 2024-02-01 opens the second bucket; the final edge lands in the last one
	assert.Equal(t, []any{float64(2), float64(3)}, doc["hist"])
	assert.Equal(t, doc["count"], histSum(t, doc)+doc["missing"].(float64))
}
