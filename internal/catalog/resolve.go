package catalog

import (
	"context"

	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// resolve walks path from cat for objects of kind k.
//
// At every catalog visited, a Finder for k (if the catalog has one) is given
// the remaining path first; a non-nil result ends the walk. Otherwise the head
// segment names a nested catalog, or, for the last segment, the object itself.
func resolve[T any](ctx context.Context, k kind[T], cat Catalog, path []string, opts FindOptions) (T, error) {
	var zero T
	if path == nil {
		return zero, domain.ErrContractViolation("invalid nil %s name path", k.id)
	}
	if len(path) == 0 {
		return zero, domain.ErrContractViolation("invalid empty %s name path", k.id)
	}
	if cat == nil {
		return zero, domain.ErrContractViolation("invalid nil Catalog for %s lookup", k.id)
	}

	for {
		found, err := k.find(ctx, cat, path, opts)
		if err != nil {
			return zero, err
		}
		if !isAbsent(found) {
			return found, nil
		}

		name := path[0]
		if len(path) == 1 {
			obj, err := k.get(ctx, cat, name, opts)
			if err != nil {
				return zero, err
			}
			if isAbsent(obj) {
				return zero, domain.ErrNotFound("%s not found: %s not found in Catalog %s",
					k.id, sqlident.ToIdentifierLiteral(name), cat.FullName())
			}
			return obj, nil
		}

		next, err := getCatalog(ctx, cat, name, opts)
		if err != nil {
			return zero, err
		}
		if next == nil {
			if k.missingCatalog != nil {
				return k.missingCatalog(ctx, cat, path, opts)
			}
			return zero, catalogNotFound(k.id, name, cat)
		}
		cat, path = next, path[1:]
	}
}

func catalogNotFound(k domain.Kind, name string, cat Catalog) *domain.NotFoundError {
	return domain.ErrNotFound("%s not found: Catalog %s not found in Catalog %s",
		k, sqlident.ToIdentifierLiteral(name), cat.FullName())
}

// FindTable resolves path to a table, starting at cat.
func FindTable(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.Table, error) {
	return resolve(ctx, tableKind, cat, path, opts)
}

// FindType resolves path to a type, starting at cat. When an intermediate
// segment is not a nested catalog, the remaining path is retried as a single
// dotted type name (see ConvertPathToProtoName).
func FindType(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.Type, error) {
	return resolve(ctx, typeKind, cat, path, opts)
}

// FindFunction resolves path to a function, starting at cat.
func FindFunction(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.Function, error) {
	return resolve(ctx, functionKind, cat, path, opts)
}

// FindTableValuedFunction resolves path to a table-valued function.
func FindTableValuedFunction(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.TableValuedFunction, error) {
	return resolve(ctx, tvfKind, cat, path, opts)
}

// FindProcedure resolves path to a procedure.
func FindProcedure(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.Procedure, error) {
	return resolve(ctx, procedureKind, cat, path, opts)
}

// FindModel resolves path to a model.
func FindModel(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.Model, error) {
	return resolve(ctx, modelKind, cat, path, opts)
}

// FindConnection resolves path to a connection.
func FindConnection(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.Connection, error) {
	return resolve(ctx, connectionKind, cat, path, opts)
}

// FindConstant resolves path to a constant.
func FindConstant(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.Constant, error) {
	return resolve(ctx, constantKind, cat, path, opts)
}

// FindPropertyGraph resolves path to a property graph.
func FindPropertyGraph(ctx context.Context, cat Catalog, path []string, opts FindOptions) (domain.PropertyGraph, error) {
	return resolve(ctx, propertyGraphKind, cat, path, opts)
}

// FindCatalog resolves path to a nested catalog.
func FindCatalog(ctx context.Context, cat Catalog, path []string, opts FindOptions) (Catalog, error) {
	return resolve(ctx, catalogKind, cat, path, opts)
}

// Find resolves path to an object of kind k. The result is a domain.Object,
// or a Catalog when k is domain.KindCatalog.
func Find(ctx context.Context, cat Catalog, k domain.Kind, path []string, opts FindOptions) (any, error) {
	d, err := dispatch(k)
	if err != nil {
		return nil, err
	}
	return d.resolveAny(ctx, cat, path, opts)
}

// Get performs the single-segment lookup of kind k on cat alone, without
// visiting nested catalogs. It returns nil when cat has no such object.
func Get(ctx context.Context, cat Catalog, k domain.Kind, name string, opts FindOptions) (any, error) {
	d, err := dispatch(k)
	if err != nil {
		return nil, err
	}
	return d.getAny(ctx, cat, name, opts)
}

// Override calls cat's own Finder for kind k, if it has one. It returns nil
// when cat has no Finder for k or the Finder declined the path.
func Override(ctx context.Context, cat Catalog, k domain.Kind, path []string, opts FindOptions) (any, error) {
	d, err := dispatch(k)
	if err != nil {
		return nil, err
	}
	return d.findAny(ctx, cat, path, opts)
}
