package simplecatalog

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
)

func TestCatalog_AddAndGet(t *testing.T) {
	ctx := context.Background()
	root := New("root")

	orders := domain.NewObject(domain.KindTable, "Orders").WithColumns(domain.Column{Name: "id", Type: "INT64"})
	require.NoError(t, root.AddTable(orders))
	msg := domain.NewObject(domain.KindType, "pkg.Msg")
	require.NoError(t, root.AddType(msg))
	require.NoError(t, root.AddFunction(domain.NewObject(domain.KindFunction, "fx")))
	require.NoError(t, root.AddTableValuedFunction(domain.NewObject(domain.KindTableValuedFunction, "tvf")))
	require.NoError(t, root.AddProcedure(domain.NewObject(domain.KindProcedure, "proc")))
	require.NoError(t, root.AddModel(domain.NewObject(domain.KindModel, "churn")))
	require.NoError(t, root.AddConnection(domain.NewObject(domain.KindConnection, "us")))
	require.NoError(t, root.AddConstant(domain.NewObject(domain.KindConstant, "pi")))
	require.NoError(t, root.AddPropertyGraph(domain.NewObject(domain.KindPropertyGraph, "g")))

	t.Run("case_insensitive_table", func(t *testing.T) {
		got, err := root.GetTable(ctx, "ORDERS", catalog.FindOptions{})
		require.NoError(t, err)
		assert.Same(t, orders, got)
		assert.Equal(t, []domain.Column{{Name: "id", Type: "INT64"}}, got.Columns())
	})

	t.Run("case_sensitive_type", func(t *testing.T) {
		got, err := root.GetType(ctx, "pkg.Msg", catalog.FindOptions{})
		require.NoError(t, err)
		assert.Same(t, msg, got)

		got, err = root.GetType(ctx, "pkg.msg", catalog.FindOptions{})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("missing_is_untyped_nil", func(t *testing.T) {
		got, err := root.GetTable(ctx, "nope", catalog.FindOptions{})
		require.NoError(t, err)
		assert.True(t, got == nil)

		sub, err := root.GetCatalog(ctx, "nope", catalog.FindOptions{})
		require.NoError(t, err)
		assert.True(t, sub == nil)
	})

	t.Run("every_kind_resolves", func(t *testing.T) {
		for k, name := range map[domain.Kind]string{
			domain.KindFunction:            "FX",
			domain.KindTableValuedFunction: "tvf",
			domain.KindProcedure:           "Proc",
			domain.KindModel:               "churn",
			domain.KindConnection:          "US",
			domain.KindConstant:            "PI",
			domain.KindPropertyGraph:       "G",
		} {
			got, err := catalog.Find(ctx, root, k, []string{name}, catalog.FindOptions{})
			require.NoError(t, err, k.String())
			assert.Equal(t, k, got.(domain.Object).Kind())
		}
	})
}

func TestCatalog_Add_Rejects(t *testing.T) {
	root := New("root")
	require.NoError(t, root.Add(domain.NewObject(domain.KindTable, "t")))

	tests := []struct {
		name    string
		obj     domain.Object
		wantErr string
	}{
		{name: "nil", obj: nil, wantErr: "object is nil"},
		{name: "empty_name", obj: domain.NewObject(domain.KindTable, ""), wantErr: "Table name is required"},
		{name: "catalog_kind", obj: domain.NewObject(domain.KindCatalog, "c"), wantErr: "cannot add object of kind Catalog"},
		{name: "unknown_kind", obj: domain.NewObject(domain.Kind(77), "x"), wantErr: "cannot add object of kind Kind(77)"},
		{name: "duplicate_folds_case", obj: domain.NewObject(domain.KindTable, "T"), wantErr: "Table T already exists in Catalog root"},
		{name: "table_without_columns", obj: bareObject{kind: domain.KindTable, name: "v"}, wantErr: "Table v has no column list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := root.Add(tt.obj)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}

	var conflict *domain.ConflictError
	require.ErrorAs(t, root.Add(domain.NewObject(domain.KindTable, "t")), &conflict)

	// Types differing only in case are distinct.
	require.NoError(t, root.Add(domain.NewObject(domain.KindType, "Msg")))
	require.NoError(t, root.Add(domain.NewObject(domain.KindType, "msg")))
}

func TestCatalog_NestedCatalogs(t *testing.T) {
	ctx := context.Background()
	root := New("root")

	sales, err := root.NewChild("Sales")
	require.NoError(t, err)
	assert.Equal(t, "root.Sales", sales.FullName())

	odd, err := sales.NewChild("my schema")
	require.NoError(t, err)
	assert.Equal(t, "root.Sales.`my schema`", odd.FullName())

	_, err = root.NewChild("SALES")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	orders := domain.NewObject(domain.KindTable, "orders")
	require.NoError(t, odd.Add(orders))

	got, err := catalog.FindTable(ctx, root, []string{"sales", "MY SCHEMA", "orders"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Same(t, orders, got)

	_, err = catalog.FindTable(ctx, root, []string{"sales", "other", "orders"}, catalog.FindOptions{})
	require.Error(t, err)
	assert.Equal(t, "Table not found: Catalog other not found in Catalog root.Sales", err.Error())

	require.Error(t, root.AddCatalog("", New("x")))
	require.Error(t, root.AddCatalog("x", nil))
	assert.Equal(t, []string{"Sales"}, root.Names(domain.KindCatalog))
}

func TestCatalog_ProtoFallback(t *testing.T) {
	root := New("root")
	require.NoError(t, root.AddType(domain.NewObject(domain.KindType, "google.protobuf.Timestamp")))

	got, err := catalog.FindType(context.Background(), root, []string{"google", "protobuf", "Timestamp"}, catalog.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "google.protobuf.Timestamp", got.Name())
}

func TestCatalog_Names(t *testing.T) {
	root := New("root")
	for _, n := range []string{"b", "A", "c"} {
		require.NoError(t, root.Add(domain.NewObject(domain.KindConstant, n)))
	}
	assert.Equal(t, []string{"A", "b", "c"}, root.Names(domain.KindConstant))
	assert.Empty(t, root.Names(domain.KindTable))
}

func TestCatalog_ConcurrentAddAndLookup(t *testing.T) {
	ctx := context.Background()
	root := New("root")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, root.Add(domain.NewObject(domain.KindTable, fmt.Sprintf("t%d", i))))
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := root.GetTable(ctx, fmt.Sprintf("t%d", i), catalog.FindOptions{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, root.Names(domain.KindTable), 32)
}

type bareObject struct {
	kind domain.Kind
	name string
}

func (o bareObject) Kind() domain.Kind   { return o.kind }
func (o bareObject) Name() string        { return o.name }
func (o bareObject) FullName() string    { return o.name }
func (o bareObject) Description() string { return "" }
