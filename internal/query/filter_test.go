package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineupremote/domain/column"
)

func mustColumn(t *testing.T, dump string) column.Column {
	t.Helper()
	c, err := column.ParseColumnDump([]byte(dump))
	require.NoError(t, err)
	return c
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name   string
		dump   string
		sql    string
		params map[string]any
	}{
		{
			name:   "number range",
			dump:   `{"id": "n", "desc": "number@a", "map": {"domain": [0, 1]}, "filter": {"min": 0, "max": 1}}`,
			sql:    "a between :a_min and :a_max",
			params: map[string]any{"a_min": 0.0, "a_max": 1.0},
		},
		{
			name:   "number lower bound",
			dump:   `{"id": "n", "desc": "number@a", "map": {"domain": [0, 1]}, "filter": {"min": 0.5}}`,
			sql:    "a >= :a_min",
			params: map[string]any{"a_min": 0.5},
		},
		{
			name:   "number missing only",
			dump:   `{"id": "n", "desc": "number@a", "map": {"domain": [0, 1]}, "filter": {"filterMissing": true}}`,
			sql:    "(a is not null AND (true))",
			params: map[string]any{},
		},
		{
			name:   "number upper bound and missing",
			dump:   `{"id": "n", "desc": "number@a", "map": {"domain": [0, 1]}, "filter": {"max": 0.5, "filterMissing": true}}`,
			sql:    "(a is not null AND (a <= :a_max))",
			params: map[string]any{"a_max": 0.5},
		},
		{
			name:   "categorical with missing",
			dump:   `{"id": "c", "desc": "categorical@cat", "filter": {"filter": ["c1"], "filterMissing": true}}`,
			sql:    "(cat is not null AND cat = ANY(:cat))",
			params: map[string]any{"cat": []string{"c1"}},
		},
		{
			name:   "categorical missing only",
			dump:   `{"id": "c", "desc": "categorical@cat", "filter": {"filterMissing": true}}`,
			sql:    "cat is not null",
			params: map[string]any{},
		},
		{
			name:   "string exact is case insensitive",
			dump:   `{"id": "s", "desc": "string@d", "filter": "AbC"}`,
			sql:    "lower(d) = :d",
			params: map[string]any{"d": "abc"},
		},
		{
			name:   "string regex",
			dump:   `{"id": "s", "desc": "string@d", "filter": "REGEX:^a"}`,
			sql:    "d ~ :d_regex",
			params: map[string]any{"d_regex": "^a"},
		},
		{
			name:   "string missing",
			dump:   `{"id": "s", "desc": "string@d", "filter": "__FILTER_MISSING"}`,
			sql:    "(d is not null AND d <> '')",
			params: map[string]any{},
		},
		{
			name:   "date bounds are timestamps",
			dump:   `{"id": "t", "desc": "date@dt", "filter": {"min": 1704067200000}}`,
			sql:    "dt >= :dt_min",
			params: map[string]any{"dt_min": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := CompileFilter(mustColumn(t, tt.dump))
			require.True(t, ok)
			sql, params := e.Build()
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompileFilter_NoFilter(t *testing.T) {
	dumps := []string{
		`{"id": "n", "desc": "number@a", "map": {"domain": [0, 1]}}`,
		`{"id": "n", "desc": "number@a", "map": {"domain": [0, 1]}, "filter": {"min": null, "max": null}}`,
		`{"id": "c", "desc": "categorical@cat", "filter": {"filter": []}}`,
		`{"id": "s", "desc": "string@d", "filter": ""}`,
		`{"id": "r", "desc": {"type": "rank"}}`,
		`{"id": "st", "desc": {"type": "stack"}, "children": []}`,
	}
	for _, dump := range dumps {
		e, ok := CompileFilter(mustColumn(t, dump))
		assert.False(t, ok, dump)
		assert.True(t, e.IsZero(), dump)
	}
}

func TestCompileFilters_Conjoins(t *testing.T) {
	e := CompileFilters([]column.Column{
		mustColumn(t, `{"id": "n", "desc": "number@a", "map": {"domain": [0, 1]}, "filter": {"min": 0.2}}`),
		mustColumn(t, `{"id": "r", "desc": {"type": "rank"}}`),
		mustColumn(t, `{"id": "s", "desc": "string@d", "filter": "x"}`),
	})
	sql, params := e.Build()
	assert.Equal(t, "a >= :a_min AND lower(d) = :d", sql)
	assert.Equal(t, map[string]any{"a_min": 0.2, "d": "x"}, params)

	assert.True(t, CompileFilters(nil).IsZero())
}
