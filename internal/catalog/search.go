package catalog

import (
	"context"
	"strings"

	"sqlcatalog/internal/domain"
)

// SearchPath is an ordered list of catalogs tried in turn, like a SQL search
// path. It is itself a Catalog: its Finders resolve the path against each
// member and return the first hit. A NotFound from one member moves on to the
// next; any other error stops the search. When every member misses, the first
// member's NotFound is returned.
type SearchPath []Catalog

var (
	_ Catalog       = SearchPath(nil)
	_ TableFinder   = SearchPath(nil)
	_ TypeFinder    = SearchPath(nil)
	_ CatalogFinder = SearchPath(nil)
)

// FullName lists the members' full names.
func (sp SearchPath) FullName() string {
	names := make([]string, len(sp))
	for i, c := range sp {
		names[i] = c.FullName()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func searchFind[T any](ctx context.Context, sp SearchPath, k kind[T], path []string, opts FindOptions) (T, error) {
	var zero T
	var firstMiss error
	for _, cat := range sp {
		obj, err := resolve(ctx, k, cat, path, opts)
		if err == nil {
			return obj, nil
		}
		if !domain.IsNotFound(err) {
			return zero, err
		}
		if firstMiss == nil {
			firstMiss = err
		}
	}
	return zero, firstMiss
}

func (sp SearchPath) FindTable(ctx context.Context, path []string, opts FindOptions) (domain.Table, error) {
	return searchFind(ctx, sp, tableKind, path, opts)
}

func (sp SearchPath) FindType(ctx context.Context, path []string, opts FindOptions) (domain.Type, error) {
	return searchFind(ctx, sp, typeKind, path, opts)
}

func (sp SearchPath) FindFunction(ctx context.Context, path []string, opts FindOptions) (domain.Function, error) {
	return searchFind(ctx, sp, functionKind, path, opts)
}

func (sp SearchPath) FindTableValuedFunction(ctx context.Context, path []string, opts FindOptions) (domain.TableValuedFunction, error) {
	return searchFind(ctx, sp, tvfKind, path, opts)
}

func (sp SearchPath) FindProcedure(ctx context.Context, path []string, opts FindOptions) (domain.Procedure, error) {
	return searchFind(ctx, sp, procedureKind, path, opts)
}

func (sp SearchPath) FindModel(ctx context.Context, path []string, opts FindOptions) (domain.Model, error) {
	return searchFind(ctx, sp, modelKind, path, opts)
}

func (sp SearchPath) FindConnection(ctx context.Context, path []string, opts FindOptions) (domain.Connection, error) {
	return searchFind(ctx, sp, connectionKind, path, opts)
}

func (sp SearchPath) FindConstant(ctx context.Context, path []string, opts FindOptions) (domain.Constant, error) {
	return searchFind(ctx, sp, constantKind, path, opts)
}

func (sp SearchPath) FindPropertyGraph(ctx context.Context, path []string, opts FindOptions) (domain.PropertyGraph, error) {
	return searchFind(ctx, sp, propertyGraphKind, path, opts)
}

func (sp SearchPath) FindCatalog(ctx context.Context, path []string, opts FindOptions) (Catalog, error) {
	return searchFind(ctx, sp, catalogKind, path, opts)
}
