package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "sqlcatalog"

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	hint         string
}

// outer packages nothing below them may import.
var outer = []string{
	modulePath + "/internal/api",
	modulePath + "/internal/app",
	modulePath + "/internal/config",
	modulePath + "/internal/middleware",
	modulePath + "/cmd",
	modulePath + "/pkg/cli",
}

// backends implement catalogs on top of concrete storage.
var backends = []string{
	modulePath + "/internal/simplecatalog",
	modulePath + "/internal/catalogfile",
	modulePath + "/internal/metastore",
	modulePath + "/internal/duckcatalog",
	modulePath + "/internal/dedupe",
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

var architectureRules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/domain",
		forbidden: concat(outer, backends, []string{
			modulePath + "/internal/catalog",
			modulePath + "/internal/sqlident",
			modulePath + "/internal/testutil",
		}),
		hint: "domain may only import domain",
	},
	{
		sourcePrefix: modulePath + "/internal/sqlident",
		forbidden:    concat(outer, backends, []string{modulePath + "/internal/catalog"}),
		hint:         "sqlident may only import domain",
	},
	{
		sourcePrefix: modulePath + "/internal/catalog",
		forbidden:    concat(outer, backends),
		hint:         "the resolver knows catalogs only through its interfaces",
	},
	{
		sourcePrefix: modulePath + "/internal/simplecatalog",
		forbidden:    concat(outer, []string{modulePath + "/internal/catalogfile", modulePath + "/internal/metastore"}),
		hint:         "catalog backends depend on catalog, domain and sqlident",
	},
	{
		sourcePrefix: modulePath + "/internal/catalogfile",
		forbidden:    concat(outer, []string{modulePath + "/internal/metastore", modulePath + "/internal/duckcatalog"}),
		hint:         "catalogfile builds simplecatalog trees only",
	},
	{
		sourcePrefix: modulePath + "/internal/metastore",
		forbidden:    concat(outer, []string{modulePath + "/internal/duckcatalog", modulePath + "/internal/dedupe"}),
		hint:         "catalog backends do not depend on each other, except on catalogfile definitions",
	},
	{
		sourcePrefix: modulePath + "/internal/duckcatalog",
		forbidden:    concat(outer, []string{modulePath + "/internal/metastore", modulePath + "/internal/catalogfile", modulePath + "/internal/dedupe"}),
		hint:         "catalog backends do not depend on each other",
	},
	{
		sourcePrefix: modulePath + "/internal/dedupe",
		forbidden:    concat(outer, backends[:4]),
		hint:         "dedupe decorates any catalog",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden:    concat(backends, []string{modulePath + "/internal/api", modulePath + "/internal/app", modulePath + "/cmd", modulePath + "/pkg/cli"}),
		hint:         "middleware is plain net/http",
	},
	{
		sourcePrefix: modulePath + "/internal/api",
		forbidden:    concat(backends, []string{modulePath + "/internal/app", modulePath + "/internal/config", modulePath + "/cmd", modulePath + "/pkg/cli"}),
		hint:         "api serves any api.Source",
	},
}

func collectGoFiles(root string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func repoRootDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func relToRepoRoot(path string) string {
	rel, err := filepath.Rel(repoRootDir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func packageImportPath(file string) string {
	return modulePath + "/" + filepath.ToSlash(filepath.Dir(relToRepoRoot(file)))
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range architectureRules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func violatesRule(importPath string, forbidden []string) bool {
	for _, prefix := range forbidden {
		if hasPathPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}

func parseImports(t *testing.T, file string) []string {
	t.Helper()
	parsed, err := parser.ParseFile(token.NewFileSet(), file, nil, parser.ImportsOnly)
	require.NoErrorf(t, err, "parse imports for %s", file)
	out := make([]string, 0, len(parsed.Imports))
	for _, imp := range parsed.Imports {
		out = append(out, strings.Trim(imp.Path.Value, "\""))
	}
	return out
}
