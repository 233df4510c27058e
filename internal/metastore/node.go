package metastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
)

// Node is one stored catalog. The zero id is the virtual top catalog whose
// nested catalogs are the stored roots.
type Node struct {
	store    *Store
	id       string
	fullName string
}

var (
	_ catalog.CatalogGetter             = (*Node)(nil)
	_ catalog.TableGetter               = (*Node)(nil)
	_ catalog.TableFinder               = (*Node)(nil)
	_ catalog.TypeGetter                = (*Node)(nil)
	_ catalog.TypeFinder                = (*Node)(nil)
	_ catalog.FunctionGetter            = (*Node)(nil)
	_ catalog.TableValuedFunctionGetter = (*Node)(nil)
	_ catalog.ProcedureGetter           = (*Node)(nil)
	_ catalog.ModelGetter               = (*Node)(nil)
	_ catalog.ConnectionGetter          = (*Node)(nil)
	_ catalog.ConstantGetter            = (*Node)(nil)
	_ catalog.PropertyGraphGetter       = (*Node)(nil)
)

// FullName implements catalog.Catalog.
func (n *Node) FullName() string { return n.fullName }

// ID returns the row id of the catalog ("" for the top catalog).
func (n *Node) ID() string { return n.id }

// GetCatalog implements catalog.CatalogGetter.
func (n *Node) GetCatalog(ctx context.Context, name string, _ catalog.FindOptions) (catalog.Catalog, error) {
	var child Node
	err := n.store.read.QueryRowContext(ctx,
		`SELECT id, full_name FROM catalogs WHERE COALESCE(parent_id, '') = ? AND name_key = ?`,
		n.id, domain.KindCatalog.Key(name),
	).Scan(&child.id, &child.fullName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog %q in %s: %w", name, n.fullName, err)
	}
	child.store = n.store
	return &child, nil
}

const objectColumns = `o.name, o.full_name, o.description, o.columns`

func scanObject(k domain.Kind, row *sql.Row) (*domain.SimpleObject, error) {
	var name, fullName, description, columnsJSON string
	if err := row.Scan(&name, &fullName, &description, &columnsJSON); err != nil {
		return nil, err
	}
	var columns []domain.Column
	if err := json.Unmarshal([]byte(columnsJSON), &columns); err != nil {
		return nil, fmt.Errorf("decode columns of %s: %w", fullName, err)
	}
	return domain.NewObject(k, name).
		WithFullName(fullName).
		WithDescription(description).
		WithColumns(columns...), nil
}

// getObject looks up an object declared directly in n.
func (n *Node) getObject(ctx context.Context, k domain.Kind, name string) (*domain.SimpleObject, error) {
	if n.id == "" {
		return nil, nil
	}
	row := n.store.read.QueryRowContext(ctx,
		`SELECT `+objectColumns+` FROM objects o WHERE o.catalog_id = ? AND o.kind = ? AND o.name_key = ?`,
		n.id, k.String(), k.Key(name),
	)
	obj, err := scanObject(k, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %q in %s: %w", k, name, n.fullName, err)
	}
	return obj, nil
}

// findObjectSQL walks the catalog segments of a path from a start catalog and
// selects the leaf object, all in one statement.
//
//	?1 JSON array of catalog name keys, ?2 start catalog id, ?3 number of
//	catalog segments, ?4 kind, ?5 leaf name key
const findObjectSQL = `
WITH RECURSIVE
    segs(idx, name_key) AS (
        SELECT CAST(key AS INTEGER), value FROM json_each(?1)
    ),
    walk(depth, catalog_id) AS (
        SELECT 0, ?2
        UNION ALL
        SELECT w.depth + 1, c.id
        FROM walk w
        JOIN segs s ON s.idx = w.depth
        JOIN catalogs c ON COALESCE(c.parent_id, '') = w.catalog_id AND c.name_key = s.name_key
    )
SELECT ` + objectColumns + `
FROM walk w
JOIN objects o ON o.catalog_id = w.catalog_id
WHERE w.depth = ?3 AND o.kind = ?4 AND o.name_key = ?5`

// findObject resolves the whole path in a single query. A miss returns nil so
// the caller's generic walk produces the precise error.
func (n *Node) findObject(ctx context.Context, k domain.Kind, path []string) (*domain.SimpleObject, error) {
	keys := make([]string, len(path)-1)
	for i, seg := range path[:len(path)-1] {
		keys[i] = domain.KindCatalog.Key(seg)
	}
	keysJSON, err := json.Marshal(keys)
	if err != nil {
		return nil, err
	}

	row := n.store.read.QueryRowContext(ctx, findObjectSQL,
		string(keysJSON), n.id, len(keys), k.String(), k.Key(path[len(path)-1]))
	obj, err := scanObject(k, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %v in %s: %w", k, path, n.fullName, err)
	}
	return obj, nil
}

// get converts the concrete result to the kind's interface, keeping a miss as
// an untyped nil.
func get[T any](ctx context.Context, n *Node, k domain.Kind, name string) (T, error) {
	var zero T
	obj, err := n.getObject(ctx, k, name)
	if err != nil || obj == nil {
		return zero, err
	}
	return any(obj).(T), nil
}

func (n *Node) GetTable(ctx context.Context, name string, _ catalog.FindOptions) (domain.Table, error) {
	return get[domain.Table](ctx, n, domain.KindTable, name)
}

// FindTable implements catalog.TableFinder with a single-query walk.
func (n *Node) FindTable(ctx context.Context, path []string, _ catalog.FindOptions) (domain.Table, error) {
	obj, err := n.findObject(ctx, domain.KindTable, path)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj, nil
}

func (n *Node) GetType(ctx context.Context, name string, _ catalog.FindOptions) (domain.Type, error) {
	return get[domain.Type](ctx, n, domain.KindType, name)
}

// FindType implements catalog.TypeFinder with a single-query walk. Dotted
// type names are left to the generic fallback.
func (n *Node) FindType(ctx context.Context, path []string, _ catalog.FindOptions) (domain.Type, error) {
	obj, err := n.findObject(ctx, domain.KindType, path)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj, nil
}

func (n *Node) GetFunction(ctx context.Context, name string, _ catalog.FindOptions) (domain.Function, error) {
	return get[domain.Function](ctx, n, domain.KindFunction, name)
}

func (n *Node) GetTableValuedFunction(ctx context.Context, name string, _ catalog.FindOptions) (domain.TableValuedFunction, error) {
	return get[domain.TableValuedFunction](ctx, n, domain.KindTableValuedFunction, name)
}

func (n *Node) GetProcedure(ctx context.Context, name string, _ catalog.FindOptions) (domain.Procedure, error) {
	return get[domain.Procedure](ctx, n, domain.KindProcedure, name)
}

func (n *Node) GetModel(ctx context.Context, name string, _ catalog.FindOptions) (domain.Model, error) {
	return get[domain.Model](ctx, n, domain.KindModel, name)
}

func (n *Node) GetConnection(ctx context.Context, name string, _ catalog.FindOptions) (domain.Connection, error) {
	return get[domain.Connection](ctx, n, domain.KindConnection, name)
}

func (n *Node) GetConstant(ctx context.Context, name string, _ catalog.FindOptions) (domain.Constant, error) {
	return get[domain.Constant](ctx, n, domain.KindConstant, name)
}

func (n *Node) GetPropertyGraph(ctx context.Context, name string, _ catalog.FindOptions) (domain.PropertyGraph, error) {
	return get[domain.PropertyGraph](ctx, n, domain.KindPropertyGraph, name)
}
