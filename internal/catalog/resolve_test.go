package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/testutil"
)

// newTree builds:
//
//	root
//	├── orders (table)
//	├── sales
//	│   ├── orders (table)
//	│   └── eu
//	│       └── orders (table)
//	└── every other kind named "thing" at sales.eu
func newTree() (*testutil.MockCatalog, map[string]domain.Object) {
	root := testutil.NewMockCatalog("root")
	sales := root.AddChild("sales")
	eu := sales.AddChild("eu")

	objs := map[string]domain.Object{
		"root.orders":    domain.NewObject(domain.KindTable, "orders").WithFullName("root.orders"),
		"sales.orders":   domain.NewObject(domain.KindTable, "orders").WithFullName("root.sales.orders"),
		"sales.eu.orders": domain.NewObject(domain.KindTable, "orders").WithFullName("root.sales.eu.orders"),
	}
	root.Add(objs["root.orders"])
	sales.Add(objs["sales.orders"])
	eu.Add(objs["sales.eu.orders"])

	for _, k := range domain.Kinds() {
		if k == domain.KindTable || k == domain.KindCatalog {
			continue
		}
		obj := domain.NewObject(k, "thing").WithFullName("root.sales.eu.thing")
		objs[k.String()] = obj
		eu.Add(obj)
	}
	return root, objs
}

func TestFindTable_SingleSegment(t *testing.T) {
	root, objs := newTree()

	got, err := catalog.FindTable(context.Background(), root, []string{"orders"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, objs["root.orders"], got)
}

func TestFindTable_NestedPaths(t *testing.T) {
	root, objs := newTree()
	ctx := context.Background()

	got, err := catalog.FindTable(ctx, root, []string{"sales", "orders"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, objs["sales.orders"], got)

	got, err = catalog.FindTable(ctx, root, []string{"sales", "eu", "orders"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, objs["sales.eu.orders"], got)
}

func TestFind_EveryKindThroughNestedCatalogs(t *testing.T) {
	root, objs := newTree()
	ctx := context.Background()
	path := []string{"sales", "eu", "thing"}

	for _, k := range domain.Kinds() {
		if k == domain.KindTable || k == domain.KindCatalog {
			continue
		}
		t.Run(k.String(), func(t *testing.T) {
			got, err := catalog.Find(ctx, root, k, path, catalog.FindOptions{})
			require.NoError(t, err)
			assert.Same(t, objs[k.String()], got)
		})
	}

	t.Run("typed_entry_points", func(t *testing.T) {
		fn, err := catalog.FindFunction(ctx, root, path, catalog.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.KindFunction, fn.Kind())

		tvf, err := catalog.FindTableValuedFunction(ctx, root, path, catalog.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.KindTableValuedFunction, tvf.Kind())

		proc, err := catalog.FindProcedure(ctx, root, path, catalog.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.KindProcedure, proc.Kind())

		model, err := catalog.FindModel(ctx, root, path, catalog.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.KindModel, model.Kind())

		conn, err := catalog.FindConnection(ctx, root, path, catalog.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.KindConnection, conn.Kind())

		c, err := catalog.FindConstant(ctx, root, path, catalog.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.KindConstant, c.Kind())

		g, err := catalog.FindPropertyGraph(ctx, root, path, catalog.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.KindPropertyGraph, g.Kind())
	})
}

func TestFindCatalog(t *testing.T) {
	root, _ := newTree()
	ctx := context.Background()

	got, err := catalog.FindCatalog(ctx, root, []string{"sales", "eu"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "root.sales.eu", got.FullName())

	_, err = catalog.FindCatalog(ctx, root, []string{"sales", "us"}, catalog.FindOptions{})
	require.Error(t, err)
	assert.Equal(t, "Catalog not found: us not found in Catalog root.sales", err.Error())
}

func TestFind_TraversalIsAssociative(t *testing.T) {
	root, _ := newTree()
	ctx := context.Background()
	sales := root.Children["sales"]

	for _, path := range [][]string{{"eu", "orders"}, {"orders"}, {"eu", "missing"}, {"nope", "orders"}} {
		full := append([]string{"sales"}, path...)
		fromRoot, errRoot := catalog.FindTable(ctx, root, full, catalog.FindOptions{})
		fromSales, errSales := catalog.FindTable(ctx, sales, path, catalog.FindOptions{})
		assert.Equal(t, fromSales, fromRoot, strings.Join(full, "."))
		assert.Equal(t, errSales, errRoot, strings.Join(full, "."))
	}
}

func TestFind_NotFoundMessages(t *testing.T) {
	root, _ := newTree()
	ctx := context.Background()

	tests := []struct {
		name string
		kind domain.Kind
		path []string
		want string
	}{
		{
			name: "missing_leaf",
			kind: domain.KindTable,
			path: []string{"sales", "customers"},
			want: "Table not found: customers not found in Catalog root.sales",
		},
		{
			name: "missing_intermediate",
			kind: domain.KindTable,
			path: []string{"sales", "us", "orders"},
			want: "Table not found: Catalog us not found in Catalog root.sales",
		},
		{
			name: "quoted_leaf",
			kind: domain.KindFunction,
			path: []string{"my func"},
			want: "Function not found: `my func` not found in Catalog root",
		},
		{
			name: "quoted_keyword_catalog",
			kind: domain.KindProcedure,
			path: []string{"select", "p"},
			want: "Procedure not found: Catalog `select` not found in Catalog root",
		},
		{
			name: "connection",
			kind: domain.KindConnection,
			path: []string{"nope", "c"},
			want: "Connection not found: Catalog nope not found in Catalog root",
		},
		{
			name: "property_graph",
			kind: domain.KindPropertyGraph,
			path: []string{"g"},
			want: "PropertyGraph not found: g not found in Catalog root",
		},
		{
			name: "tvf",
			kind: domain.KindTableValuedFunction,
			path: []string{"sales", "eu", "nope"},
			want: "TableValuedFunction not found: nope not found in Catalog root.sales.eu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.Find(ctx, root, tt.kind, tt.path, catalog.FindOptions{})
			require.Error(t, err)
			assert.Nil(t, got)

			var nf *domain.NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, tt.want, nf.Message)
		})
	}
}

func TestFind_EmptyAndNilPathsAreContractViolations(t *testing.T) {
	root, _ := newTree()
	ctx := context.Background()

	for _, k := range domain.Kinds() {
		for name, path := range map[string][]string{"nil": nil, "empty": {}} {
			t.Run(k.String()+"/"+name, func(t *testing.T) {
				_, err := catalog.Find(ctx, root, k, path, catalog.FindOptions{})
				require.Error(t, err)
				assert.True(t, domain.IsContractViolation(err))
				assert.False(t, domain.IsNotFound(err))
				assert.Contains(t, err.Error(), name+" "+k.String()+" name path")
			})
		}
	}
	assert.Empty(t, root.Calls(), "no lookup may happen before the path is validated")
}

func TestFind_NilCatalogAndUnknownKind(t *testing.T) {
	ctx := context.Background()

	_, err := catalog.FindTable(ctx, nil, []string{"t"}, catalog.FindOptions{})
	assert.True(t, domain.IsContractViolation(err))

	_, err = catalog.Find(ctx, testutil.BareCatalog("root"), domain.Kind(99), []string{"t"}, catalog.FindOptions{})
	assert.True(t, domain.IsContractViolation(err))
}

func TestFind_CatalogWithoutCapabilities(t *testing.T) {
	ctx := context.Background()
	bare := testutil.BareCatalog("bare")

	_, err := catalog.FindTable(ctx, bare, []string{"t"}, catalog.FindOptions{})
	require.Error(t, err)
	assert.Equal(t, "Table not found: t not found in Catalog bare", err.Error())

	_, err = catalog.FindModel(ctx, bare, []string{"a", "m"}, catalog.FindOptions{})
	require.Error(t, err)
	assert.Equal(t, "Model not found: Catalog a not found in Catalog bare", err.Error())
}

func TestFind_UnderlyingErrorsPassThrough(t *testing.T) {
	root, _ := newTree()
	ctx := context.Background()
	boom := errors.New("metadata service unavailable")

	t.Run("leaf_getter", func(t *testing.T) {
		root.Children["sales"].GetErr = boom
		defer func() { root.Children["sales"].GetErr = nil }()

		_, err := catalog.FindTable(ctx, root, []string{"sales", "orders"}, catalog.FindOptions{})
		assert.Same(t, boom, err)
		assert.False(t, domain.IsNotFound(err))
	})

	t.Run("nested_catalog_getter", func(t *testing.T) {
		root.GetErr = boom
		defer func() { root.GetErr = nil }()

		_, err := catalog.FindType(ctx, root, []string{"sales", "T"}, catalog.FindOptions{})
		assert.Same(t, boom, err)
	})

	t.Run("finder", func(t *testing.T) {
		root.FindFn = func(domain.Kind, []string) (any, error) { return nil, boom }
		defer func() { root.FindFn = nil }()

		_, err := catalog.FindTable(ctx, root, []string{"orders"}, catalog.FindOptions{})
		assert.Same(t, boom, err)
	})
}

func TestFind_FinderOverrideWins(t *testing.T) {
	root, objs := newTree()
	ctx := context.Background()
	override := domain.NewObject(domain.KindTable, "orders").WithFullName("remote.orders")

	root.FindFn = func(k domain.Kind, path []string) (any, error) {
		if k == domain.KindTable && strings.Join(path, ".") == "sales.orders" {
			return override, nil
		}
		return nil, nil
	}

	got, err := catalog.FindTable(ctx, root, []string{"sales", "orders"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, override, got, "override must win over the nested walk")
	assert.NotContains(t, root.Calls(), "GetCatalog(sales)")

	// Declined paths fall back to the walk.
	got, err = catalog.FindTable(ctx, root, []string{"sales", "eu", "orders"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, objs["sales.eu.orders"], got)
}

func TestFind_FinderOnNestedCatalogIsConsulted(t *testing.T) {
	root, _ := newTree()
	ctx := context.Background()
	eu := root.Children["sales"].Children["eu"]
	remote := domain.NewObject(domain.KindModel, "churn")

	var seen []string
	eu.FindFn = func(k domain.Kind, path []string) (any, error) {
		seen = append(seen, strings.Join(path, "."))
		if k == domain.KindModel && len(path) == 1 && path[0] == "churn" {
			return remote, nil
		}
		return nil, nil
	}

	got, err := catalog.FindModel(ctx, root, []string{"sales", "eu", "churn"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, remote, got)
	assert.Equal(t, []string{"churn"}, seen, "finder sees the path suffix relative to its catalog")
}

func TestFind_Idempotent(t *testing.T) {
	root, _ := newTree()
	ctx := context.Background()
	path := []string{"sales", "eu", "orders"}

	first, err1 := catalog.FindTable(ctx, root, path, catalog.FindOptions{})
	second, err2 := catalog.FindTable(ctx, root, path, catalog.FindOptions{})
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Same(t, first, second)

	_, err1 = catalog.FindTable(ctx, root, []string{"x", "y"}, catalog.FindOptions{})
	_, err2 = catalog.FindTable(ctx, root, []string{"x", "y"}, catalog.FindOptions{})
	assert.Equal(t, err1, err2)
}

func TestFind_LongPathsDoNotRecurse(t *testing.T) {
	root := testutil.NewMockCatalog("c")
	cur := root
	const depth = 10000
	path := make([]string, 0, depth+1)
	for i := 0; i < depth; i++ {
		name := fmt.Sprintf("n%d", i)
		cur = cur.AddChild(name)
		cur.Name = name // keep full names short
		path = append(path, name)
	}
	leaf := domain.NewObject(domain.KindConstant, "pi")
	cur.Add(leaf)
	path = append(path, "pi")

	got, err := catalog.FindConstant(context.Background(), root, path, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, leaf, got)
}

func TestFind_ConcurrentCallers(t *testing.T) {
	root, objs := newTree()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := catalog.FindTable(ctx, root, []string{"sales", "eu", "orders"}, catalog.FindOptions{})
			if err != nil {
				errs <- err
				return
			}
			if got != objs["sales.eu.orders"] {
				errs <- errors.New("wrong table")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestGetAndOverride(t *testing.T) {
	root, objs := newTree()
	ctx := context.Background()

	got, err := catalog.Get(ctx, root, domain.KindTable, "orders", catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, objs["root.orders"], got)

	got, err = catalog.Get(ctx, root, domain.KindTable, "missing", catalog.FindOptions{})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = catalog.Override(ctx, root, domain.KindTable, []string{"orders"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Nil(t, got, "no FindFn means the override declines")

	got, err = catalog.Get(ctx, testutil.BareCatalog("bare"), domain.KindType, "T", catalog.FindOptions{})
	require.NoError(t, err)
	assert.Nil(t, got)
}
