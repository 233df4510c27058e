package catalog

import (
	"context"

	"sqlcatalog/internal/domain"
)

type lookupFunc[T any] func(ctx context.Context, cat Catalog, name string, opts FindOptions) (T, error)

type findFunc[T any] func(ctx context.Context, cat Catalog, path []string, opts FindOptions) (T, error)

// kind describes how objects of one kind are looked up on a catalog.
// missingCatalog, when set, replaces the catalog-not-found error for
// multi-segment paths.
type kind[T any] struct {
	id             domain.Kind
	get            lookupFunc[T]
	find           findFunc[T]
	missingCatalog func(ctx context.Context, cat Catalog, path []string, opts FindOptions) (T, error)
}

// getter adapts a Getter method expression into a lookupFunc. Catalogs that do
// not implement G have nothing of that kind.
func getter[T, G any](call func(G, context.Context, string, FindOptions) (T, error)) lookupFunc[T] {
	return func(ctx context.Context, cat Catalog, name string, opts FindOptions) (T, error) {
		if g, ok := cat.(G); ok {
			return call(g, ctx, name, opts)
		}
		var zero T
		return zero, nil
	}
}

// finder adapts a Finder method expression into a findFunc. Catalogs that do
// not implement F use the default walk.
func finder[T, F any](call func(F, context.Context, []string, FindOptions) (T, error)) findFunc[T] {
	return func(ctx context.Context, cat Catalog, path []string, opts FindOptions) (T, error) {
		if f, ok := cat.(F); ok {
			return call(f, ctx, path, opts)
		}
		var zero T
		return zero, nil
	}
}

var (
	getCatalog = getter(CatalogGetter.GetCatalog)
	getType    = getter(TypeGetter.GetType)
)

var (
	tableKind = kind[domain.Table]{
		id:   domain.KindTable,
		get:  getter(TableGetter.GetTable),
		find: finder(TableFinder.FindTable),
	}
	typeKind = kind[domain.Type]{
		id:             domain.KindType,
		get:            getType,
		find:           finder(TypeFinder.FindType),
		missingCatalog: protoNameFallback,
	}
	functionKind = kind[domain.Function]{
		id:   domain.KindFunction,
		get:  getter(FunctionGetter.GetFunction),
		find: finder(FunctionFinder.FindFunction),
	}
	tvfKind = kind[domain.TableValuedFunction]{
		id:   domain.KindTableValuedFunction,
		get:  getter(TableValuedFunctionGetter.GetTableValuedFunction),
		find: finder(TableValuedFunctionFinder.FindTableValuedFunction),
	}
	procedureKind = kind[domain.Procedure]{
		id:   domain.KindProcedure,
		get:  getter(ProcedureGetter.GetProcedure),
		find: finder(ProcedureFinder.FindProcedure),
	}
	modelKind = kind[domain.Model]{
		id:   domain.KindModel,
		get:  getter(ModelGetter.GetModel),
		find: finder(ModelFinder.FindModel),
	}
	connectionKind = kind[domain.Connection]{
		id:   domain.KindConnection,
		get:  getter(ConnectionGetter.GetConnection),
		find: finder(ConnectionFinder.FindConnection),
	}
	constantKind = kind[domain.Constant]{
		id:   domain.KindConstant,
		get:  getter(ConstantGetter.GetConstant),
		find: finder(ConstantFinder.FindConstant),
	}
	propertyGraphKind = kind[domain.PropertyGraph]{
		id:   domain.KindPropertyGraph,
		get:  getter(PropertyGraphGetter.GetPropertyGraph),
		find: finder(PropertyGraphFinder.FindPropertyGraph),
	}
	catalogKind = kind[Catalog]{
		id:   domain.KindCatalog,
		get:  getCatalog,
		find: finder(CatalogFinder.FindCatalog),
	}
)

// dispatcher is the type-erased view of a kind, used where the kind is only
// known at run time (HTTP, CLI, decorators).
type dispatcher interface {
	getAny(ctx context.Context, cat Catalog, name string, opts FindOptions) (any, error)
	findAny(ctx context.Context, cat Catalog, path []string, opts FindOptions) (any, error)
	resolveAny(ctx context.Context, cat Catalog, path []string, opts FindOptions) (any, error)
}

func (k kind[T]) getAny(ctx context.Context, cat Catalog, name string, opts FindOptions) (any, error) {
	return erase(k.get(ctx, cat, name, opts))
}

func (k kind[T]) findAny(ctx context.Context, cat Catalog, path []string, opts FindOptions) (any, error) {
	return erase(k.find(ctx, cat, path, opts))
}

func (k kind[T]) resolveAny(ctx context.Context, cat Catalog, path []string, opts FindOptions) (any, error) {
	return erase(resolve(ctx, k, cat, path, opts))
}

// erase converts a typed result to any, keeping absence as an untyped nil.
func erase[T any](v T, err error) (any, error) {
	if err != nil || isAbsent(v) {
		return nil, err
	}
	return v, nil
}

func isAbsent[T any](v T) bool {
	return any(v) == nil
}

var dispatchers = map[domain.Kind]dispatcher{
	domain.KindTable:               tableKind,
	domain.KindType:                typeKind,
	domain.KindFunction:            functionKind,
	domain.KindTableValuedFunction: tvfKind,
	domain.KindProcedure:           procedureKind,
	domain.KindModel:               modelKind,
	domain.KindConnection:          connectionKind,
	domain.KindConstant:            constantKind,
	domain.KindPropertyGraph:       propertyGraphKind,
	domain.KindCatalog:             catalogKind,
}

func dispatch(k domain.Kind) (dispatcher, error) {
	d, ok := dispatchers[k]
	if !ok {
		return nil, domain.ErrContractViolation("unsupported object kind %s", k)
	}
	return d, nil
}
