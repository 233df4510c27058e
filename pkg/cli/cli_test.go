package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcatalog/internal/api"
	"sqlcatalog/internal/domain"
)

const warehouseYAML = `
name: warehouse
tables:
  - name: orders
    description: every order
catalogs:
  - name: sales
    tables: [orders]
    types: [pkg.Msg]
`

// runCLI executes a fresh root command with isolated environment and
// returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"CATALOG_FILE", "META_DB_PATH", "META_DB_ROOT", "DUCKDB_PATH", "CATALOGCTL_OUTPUT", "ENV"} {
		t.Setenv(k, "")
	}
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeDefinition(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(warehouseYAML), 0o600))
	return path
}

func TestResolveCmd(t *testing.T) {
	file := writeDefinition(t)

	t.Run("json_single", func(t *testing.T) {
		out, err := runCLI(t, "-o", "json", "--catalog-file", file, "resolve", "orders")
		require.NoError(t, err)
		var got api.ObjectResponse
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, api.ObjectResponse{Kind: "Table", Name: "orders", FullName: "warehouse.orders", Description: "every order"}, got)
	})

	t.Run("json_many", func(t *testing.T) {
		out, err := runCLI(t, "-o", "json", "--catalog-file", file, "resolve", "orders", "SALES.Orders")
		require.NoError(t, err)
		var got []api.ObjectResponse
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "warehouse.sales.orders", got[1].FullName)
	})

	t.Run("table", func(t *testing.T) {
		out, err := runCLI(t, "-o", "table", "--catalog-file", file, "resolve", "--kind", "type", "sales.pkg.Msg")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, []string{"PATH", "KIND", "FULL_NAME", "DESCRIPTION"}, strings.Fields(lines[0]))
		assert.Equal(t, []string{"sales.pkg.Msg", "Type", "warehouse.sales.`pkg.Msg`"}, strings.Fields(lines[1]))
	})

	t.Run("env_source", func(t *testing.T) {
		for _, k := range []string{"META_DB_PATH", "META_DB_ROOT", "DUCKDB_PATH", "CATALOGCTL_OUTPUT"} {
			t.Setenv(k, "")
		}
		t.Setenv("CATALOG_FILE", file)
		var stdout bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&stdout)
		cmd.SetArgs([]string{"-o", "json", "resolve", "--kind", "catalog", "sales"})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, stdout.String(), `"full_name": "warehouse.sales"`)
	})
}

func TestResolveCmd_Errors(t *testing.T) {
	file := writeDefinition(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
		code    string
	}{
		{
			name:    "not_found",
			args:    []string{"--catalog-file", file, "resolve", "sales.nope"},
			wantErr: "resolve Table sales.nope: Table not found: nope not found in Catalog warehouse.sales",
			code:    "NOT_FOUND",
		},
		{
			name:    "bad_kind",
			args:    []string{"--catalog-file", file, "resolve", "--kind", "widget", "orders"},
			wantErr: `unknown object kind "widget"`,
		},
		{
			name:    "bad_path",
			args:    []string{"--catalog-file", file, "resolve", "sales..orders"},
			wantErr: "unexpected",
			code:    "INVALID_ARGUMENT",
		},
		{
			name:    "too_long",
			args:    []string{"--catalog-file", file, "--max-segments", "2", "resolve", "a.b.c"},
			wantErr: "path has 3 segments, at most 2 allowed",
			code:    "INVALID_ARGUMENT",
		},
		{
			name:    "no_source",
			args:    []string{"resolve", "orders"},
			wantErr: "no catalog source configured",
			code:    "INTERNAL",
		},
		{
			name:    "bad_output",
			args:    []string{"-o", "yaml", "kinds"},
			wantErr: `unsupported output format "yaml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(err))
			}
		})
	}
}

func TestImportAndRootsCmd(t *testing.T) {
	file := writeDefinition(t)
	metaDB := filepath.Join(t.TempDir(), "meta.sqlite")

	out, err := runCLI(t, "-o", "json", "--meta-db", metaDB, "import", file)
	require.NoError(t, err)
	assert.JSONEq(t, `{"root":"warehouse","replaced":false,"catalogs":1,"objects":3}`, out)

	out, err = runCLI(t, "-o", "table", "--meta-db", metaDB, "import", file)
	require.NoError(t, err)
	assert.Equal(t, []string{"warehouse", "true", "1", "3"}, strings.Fields(strings.Split(strings.TrimSpace(out), "\n")[1]))

	out, err = runCLI(t, "-o", "json", "--meta-db", metaDB, "roots")
	require.NoError(t, err)
	assert.JSONEq(t, `{"roots":["warehouse"]}`, out)

	out, err = runCLI(t, "-o", "json", "--meta-db", metaDB, "--meta-root", "warehouse", "resolve", "sales.orders")
	require.NoError(t, err)
	assert.Contains(t, out, `"full_name": "warehouse.sales.orders"`)

	_, err = runCLI(t, "import", file)
	assert.ErrorIs(t, err, errNoMetastore)
	_, err = runCLI(t, "roots")
	assert.ErrorIs(t, err, errNoMetastore)
}

func TestQuoteAndParseCmd(t *testing.T) {
	out, err := runCLI(t, "-o", "table", "quote", "sales", "order items", "select")
	require.NoError(t, err)
	assert.Equal(t, "sales.`order items`.`select`\n", out)

	out, err = runCLI(t, "-o", "json", "parse", "sales.`order items`.`select`")
	require.NoError(t, err)
	assert.JSONEq(t, `{"segments":["sales","order items","select"]}`, out)

	_, err = runCLI(t, "parse", "sales.")
	assert.Error(t, err)
}

func TestKindsCmd(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "kinds")
	require.NoError(t, err)

	var got []struct {
		Kind          string `json:"kind"`
		CaseSensitive bool   `json:"case_sensitive"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, len(domain.Kinds()))
	for _, k := range got {
		assert.Equal(t, k.Kind == "Type", k.CaseSensitive, k.Kind)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "-o", "table", "version")
	require.NoError(t, err)
	assert.Equal(t, "catalogctl version dev (commit: none)\n", out)
}

func TestKindValue(t *testing.T) {
	var k kindValue
	require.NoError(t, k.Set("TVF"))
	assert.Equal(t, "TableValuedFunction", k.String())
	assert.Equal(t, "kind", k.Type())
	assert.Error(t, k.Set("widget"))
}
