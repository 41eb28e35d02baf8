package migration

import (
	"context"
	"errors"
	"testing"

	"lineupremote/domain/catalog"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTableSQL(t *testing.T) {
	stmt := CreateTableSQL(catalog.Default())
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS rows (\n"+
		"\tid BIGINT PRIMARY KEY,\n"+
		"\td TEXT,\n"+
		"\ta DOUBLE PRECISION,\n"+
		"\tcat TEXT,\n"+
		"\tcat2 TEXT,\n"+
		"\tdt TIMESTAMP WITH TIME ZONE\n"+
		")", stmt)
}

func TestRun(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	cat := catalog.Default()
	mock.ExpectExec(CreateTableSQL(cat)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_rows_cat ON rows (cat)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_rows_cat2 ON rows (cat2)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_rows_dt ON rows (dt)").WillReturnResult(sqlmock.NewResult(0, 0))
	for _, stmt := range aggregateStatements {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	runner := NewRunner(cat)
	require.NoError(t, runner.Run(context.Background(), sqlx.NewDb(db, "postgres")))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Regexp(t, `^1\.0\.0\+[0-9a-f]{12}$`, runner.Version())
}

func TestVersion_FollowsCatalog(t *testing.T) {
	cat := catalog.Default()
	v := NewRunner(cat).Version()
	assert.Equal(t, v, NewRunner(catalog.Default()).Version())

	changed := catalog.Default()
	changed.Columns = changed.Columns[:2]
	assert.NotEqual(t, v, NewRunner(changed).Version())
}

func TestRun_StopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	cat := catalog.Default()
	mock.ExpectExec(CreateTableSQL(cat)).WillReturnError(errors.New("permission denied"))

	err = NewRunner(cat).Run(context.Background(), sqlx.NewDb(db, "postgres"))
	assert.ErrorContains(t, err, "failed to create rows table")
	assert.NoError(t, mock.ExpectationsWereMet())
}
