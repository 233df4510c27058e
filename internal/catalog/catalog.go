// Package catalog resolves dotted identifier paths against a tree of nested
// catalogs.
//
// A concrete catalog implements Catalog plus any of the optional Getter and
// Finder interfaces below. A Getter looks a single name up in that catalog
// only; a Finder takes a whole path and may short-circuit the nested walk
// (for example, with one batched query against a metadata store). Lookups
// report absence as (nil, nil) and reserve non-nil errors for real failures,
// which the resolver passes through unchanged.
//
// The package-level Find functions are the only entry points callers should
// use. They hold no state and never cache, so they are safe to call
// concurrently whenever the catalogs themselves are safe for concurrent reads.
package catalog

import (
	"context"

	"sqlcatalog/internal/domain"
)

// FindOptions is threaded unchanged through every lookup. The resolver never
// reads it. Cancellation and deadlines travel on the context.
type FindOptions struct {
	// Attributes carries caller-defined values to catalog implementations.
	Attributes map[string]string
}

// Catalog is a namespace node. FullName identifies it in diagnostics only.
type Catalog interface {
	FullName() string
}

// CatalogGetter returns the nested catalog called name, or nil.
type CatalogGetter interface {
	GetCatalog(ctx context.Context, name string, opts FindOptions) (Catalog, error)
}

// CatalogFinder resolves a nested catalog from a whole path, or returns nil to
// fall back to the default walk.
type CatalogFinder interface {
	FindCatalog(ctx context.Context, path []string, opts FindOptions) (Catalog, error)
}

// TableGetter returns the table called name in this catalog, or nil.
type TableGetter interface {
	GetTable(ctx context.Context, name string, opts FindOptions) (domain.Table, error)
}

// TableFinder resolves a table from a whole path, or returns nil to fall back
// to the default walk.
type TableFinder interface {
	FindTable(ctx context.Context, path []string, opts FindOptions) (domain.Table, error)
}

// TypeGetter returns the type called name in this catalog, or nil. Name may be
// a dotted proto name such as "pkg.Msg".
type TypeGetter interface {
	GetType(ctx context.Context, name string, opts FindOptions) (domain.Type, error)
}

// TypeFinder resolves a type from a whole path, or returns nil.
type TypeFinder interface {
	FindType(ctx context.Context, path []string, opts FindOptions) (domain.Type, error)
}

type FunctionGetter interface {
	GetFunction(ctx context.Context, name string, opts FindOptions) (domain.Function, error)
}

type FunctionFinder interface {
	FindFunction(ctx context.Context, path []string, opts FindOptions) (domain.Function, error)
}

type TableValuedFunctionGetter interface {
	GetTableValuedFunction(ctx context.Context, name string, opts FindOptions) (domain.TableValuedFunction, error)
}

type TableValuedFunctionFinder interface {
	FindTableValuedFunction(ctx context.Context, path []string, opts FindOptions) (domain.TableValuedFunction, error)
}

type ProcedureGetter interface {
	GetProcedure(ctx context.Context, name string, opts FindOptions) (domain.Procedure, error)
}

type ProcedureFinder interface {
	FindProcedure(ctx context.Context, path []string, opts FindOptions) (domain.Procedure, error)
}

type ModelGetter interface {
	GetModel(ctx context.Context, name string, opts FindOptions) (domain.Model, error)
}

type ModelFinder interface {
	FindModel(ctx context.Context, path []string, opts FindOptions) (domain.Model, error)
}

type ConnectionGetter interface {
	GetConnection(ctx context.Context, name string, opts FindOptions) (domain.Connection, error)
}

type ConnectionFinder interface {
	FindConnection(ctx context.Context, path []string, opts FindOptions) (domain.Connection, error)
}

type ConstantGetter interface {
	GetConstant(ctx context.Context, name string, opts FindOptions) (domain.Constant, error)
}

type ConstantFinder interface {
	FindConstant(ctx context.Context, path []string, opts FindOptions) (domain.Constant, error)
}

type PropertyGraphGetter interface {
	GetPropertyGraph(ctx context.Context, name string, opts FindOptions) (domain.PropertyGraph, error)
}

type PropertyGraphFinder interface {
	FindPropertyGraph(ctx context.Context, path []string, opts FindOptions) (domain.PropertyGraph, error)
}
