package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/catalogfile"
	"sqlcatalog/internal/config"
	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/metastore"
)

const warehouseYAML = `
name: warehouse
tables: [orders]
catalogs:
  - name: sales
    tables: [orders]
`

const lakeYAML = `
name: lake
tables: [orders, invoices]
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupSources writes a YAML definition, a metastore holding the lake
// definition and a DuckDB file with one table, and returns a config naming
// all three.
func setupSources(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	file := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(file, []byte(warehouseYAML), 0o600))

	metaPath := filepath.Join(dir, "meta.sqlite")
	store, err := metastore.Open(metaPath, discardLogger())
	require.NoError(t, err)
	def, err := catalogfile.Parse([]byte(lakeYAML))
	require.NoError(t, err)
	_, err = store.Import(ctx, def)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	return &config.Config{
		CatalogFile: file,
		MetaDBPath:  metaPath,
		DuckDBPath:  filepath.Join(dir, "analytics.duckdb"),
	}
}

func TestNew_SearchesSourcesInOrder(t *testing.T) {
	ctx := context.Background()
	cfg := setupSources(t)

	a, err := New(ctx, Deps{Cfg: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	_, err = a.DuckDB.Exec(`CREATE TABLE events (id INTEGER)`)
	require.NoError(t, err)

	cat := a.Current()
	assert.Equal(t, "[warehouse, metastore, duckdb]", cat.FullName())

	tests := []struct {
		path []string
		want string
	}{
		{path: []string{"orders"}, want: "warehouse.orders"},
		{path: []string{"sales", "orders"}, want: "warehouse.sales.orders"},
		{path: []string{"lake", "orders"}, want: "lake.orders"},
		{path: []string{"lake", "invoices"}, want: "lake.invoices"},
		{path: []string{"events"}, want: "analytics.main.events"},
	}
	for _, tt := range tests {
		tbl, err := catalog.FindTable(ctx, cat, tt.path, catalog.FindOptions{})
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, tbl.FullName(), tt.path)
	}

	_, err = catalog.FindTable(ctx, cat, []string{"nope"}, catalog.FindOptions{})
	assert.EqualError(t, err, "Table not found: nope not found in Catalog warehouse")
}

func TestNew_MetaRoot(t *testing.T) {
	ctx := context.Background()
	cfg := setupSources(t)
	cfg.CatalogFile = ""
	cfg.DuckDBPath = ""
	cfg.MetaRoot = "LAKE"

	a, err := New(ctx, Deps{Cfg: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	cat := a.Current()
	assert.Equal(t, "lake", cat.FullName(), "a single source is served without a search path")

	tbl, err := catalog.FindTable(ctx, cat, []string{"invoices"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "lake.invoices", tbl.FullName())
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Deps{Cfg: &config.Config{}, Logger: discardLogger()})
	assert.EqualError(t, err, "no catalog source configured")

	cfg := setupSources(t)
	cfg.MetaRoot = "archive"
	_, err = New(ctx, Deps{Cfg: cfg, Logger: discardLogger()})
	assert.True(t, domain.IsNotFound(err))
	assert.EqualError(t, err, "Catalog not found: archive not found in Catalog metastore")

	cfg = setupSources(t)
	cfg.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = New(ctx, Deps{Cfg: cfg, Logger: discardLogger()})
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	cfg := setupSources(t)
	a, err := New(context.Background(), Deps{Cfg: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NoError(t, a.Start(""))
	assert.Error(t, a.Start("not a schedule"))
	assert.NoError(t, a.Start("@every 1h"))
}

func TestS3Config(t *testing.T) {
	key, secret, endpoint, region := "k", "s", "minio:9000", "eu"
	cfg := &config.Config{S3KeyID: &key, S3Secret: &secret, S3Endpoint: &endpoint, S3Region: &region}
	assert.Equal(t, catalogfile.S3Config{Endpoint: "minio:9000", Region: "eu", KeyID: "k", Secret: "s"}, S3Config(cfg))
	assert.Equal(t, catalogfile.S3Config{}, S3Config(&config.Config{}))
}
