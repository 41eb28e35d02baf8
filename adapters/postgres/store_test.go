package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"lineupremote/domain/catalog"
	"lineupremote/domain/core"
	"lineupremote/ports"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres"), time.Second), mock
}

func TestCompile_NamedToPositional(t *testing.T) {
	query, args, err := compile("a between :a_min and :a_max AND cat = ANY(:cat)", map[string]any{
		"a_min": 0.0,
		"a_max": 1.0,
		"cat":   []string{"c1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a between $1 and $2 AND cat = ANY($3)", query)
	require.Len(t, args, 3)
	assert.Equal(t, 0.0, args[0])
	assert.Equal(t, 1.0, args[1])
	assert.IsType(t, (*pq.StringArray)(nil), args[2])
}

func TestCompile_WithoutParamsKeepsQuery(t *testing.T) {
	query, args, err := compile("SELECT count(*) FROM rows", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT count(*) FROM rows", query)
	assert.Empty(t, args)
}

func TestCompile_MissingParam(t *testing.T) {
	_, _, err := compile("a = :missing", map[string]any{"other": 1})
	assert.Error(t, err)
}

func TestStore_QueryNormalizesText(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT stats(a) AS s0 FROM rows WHERE a >= $1").
		WithArgs(0.5).
		WillReturnRows(sqlmock.NewRows([]string{"s0"}).AddRow([]byte(`{"count":1}`)))

	rows, err := store.Query(context.Background(), "SELECT stats(a) AS s0 FROM rows WHERE a >= :a_min", map[string]any{"a_min": 0.5})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `{"count":1}`, rows[0]["s0"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_QueryFailureIsStoreError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))

	_, err := store.Query(context.Background(), "SELECT 1", nil)
	assert.True(t, core.IsStoreError(err))
}

func TestStore_SnapshotCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count(*) AS n FROM rows").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(3)))
	mock.ExpectCommit()

	err := store.Snapshot(context.Background(), func(q ports.Querier) error {
		rows, err := q.Query(context.Background(), "SELECT count(*) AS n FROM rows", nil)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(3), rows[0]["n"])
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SnapshotRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.Snapshot(context.Background(), func(q ports.Querier) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRowRepository_Count(t *testing.T) {
	store, mock := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	mock.ExpectQuery("SELECT count(*) FROM rows").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestRowRepository_RowNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	mock.ExpectQuery("SELECT * FROM rows WHERE id = $1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "d"}))

	_, err := repo.Row(context.Background(), 7)
	assert.ErrorIs(t, err, core.ErrRowNotFound)
	assert.True(t, core.IsNotFoundError(err))
}

func TestRowRepository_RowsKeepsIdOrder(t *testing.T) {
	store, mock := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	mock.ExpectQuery("SELECT * FROM rows WHERE id = ANY(CAST($1 AS bigint[])) ORDER BY array_position(CAST($2 AS bigint[]), id)").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "d"}).AddRow(int64(3), "c").AddRow(int64(1), "a"))

	rows, err := repo.Rows(context.Background(), []int64{3, 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0]["id"])
	assert.Equal(t, "a", rows[1]["d"])
}

func TestRowRepository_RowsWithoutIdsReturnsAll(t *testing.T) {
	store, mock := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	mock.ExpectQuery("SELECT * FROM rows ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := repo.Rows(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestRowRepository_Search(t *testing.T) {
	store, mock := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	mock.ExpectQuery("SELECT id AS id FROM rows WHERE strpos(lower(CAST(d AS text)), lower($1)) > 0 ORDER BY id").
		WithArgs("Ab").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)).AddRow(int64(5)))

	ids, err := repo.Search(context.Background(), "d", "Ab", false)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, ids)
}

func TestRowRepository_SearchRegex(t *testing.T) {
	store, mock := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	mock.ExpectQuery("SELECT id AS id FROM rows WHERE CAST(d AS text) ~ $1 ORDER BY id").
		WithArgs("^a.*").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ids, err := repo.Search(context.Background(), "d", "^a.*", true)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRowRepository_SearchUnknownColumn(t *testing.T) {
	store, _ := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	_, err := repo.Search(context.Background(), "nope", "x", false)
	assert.True(t, core.IsMalformedError(err))
}

func TestRowRepository_Sample(t *testing.T) {
	store, mock := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	mock.ExpectQuery("SELECT a AS v FROM rows WHERE a IS NOT NULL ORDER BY random() LIMIT $1").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(0.25).AddRow(0.5).AddRow("0.75"))

	values, err := repo.Sample(context.Background(), "a", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5, 0.75}, values)
}

func TestRowRepository_SampleRejectsNonNumber(t *testing.T) {
	store, _ := newMockStore(t)
	repo := NewRowRepository(store, catalog.Default())

	_, err := repo.Sample(context.Background(), "cat", 3)
	assert.True(t, core.IsMalformedError(err))
}
