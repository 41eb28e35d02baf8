package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineupremote/internal/config"
)

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestLoadCatalog_DefaultRenamed(t *testing.T) {
	cat, err := LoadCatalog(config.TableConfig{Name: "people", IDColumn: "pk"})
	require.NoError(t, err)
	assert.Equal(t, "people", cat.Table)
	assert.Equal(t, "pk", cat.IDColumn)
	assert.Len(t, cat.Columns, 5)
}

func TestLoadCatalog_RejectsBadTableName(t *testing.T) {
	_, err := LoadCatalog(config.TableConfig{Name: "rows; drop table x", IDColumn: "id"})
	assert.ErrorContains(t, err, "invalid table name")
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `table: scores
columns:
  - label: Score
    type: number
    column: score
    domain: [0, 100]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cat, err := LoadCatalog(config.TableConfig{Name: "ignored", CatalogFile: path})
	require.NoError(t, err)
	assert.Equal(t, "scores", cat.Table)
	assert.Equal(t, "id", cat.IDColumn)
	require.Len(t, cat.Columns, 1)
	assert.Equal(t, []float64{0, 100}, cat.Columns[0].Domain)
}

func TestInitWithDatabase_NilDB(t *testing.T) {
	c, err := New(&config.Config{Table: config.TableConfig{Name: "rows", IDColumn: "id"}})
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
	assert.NoError(t, c.Shutdown(context.Background()))
}
