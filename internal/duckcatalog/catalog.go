// Package duckcatalog exposes a DuckDB instance as a catalog.Catalog:
// databases, then schemas, then the tables, views, types, functions and
// macros inside them, as reported by DuckDB's metadata functions.
package duckcatalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// DefaultName is the full name of the root catalog when none is given.
const DefaultName = "duckdb"

// builtin is where DuckDB reports its built-in types and functions.
const builtin = "system"

type level int

const (
	levelRoot level = iota
	levelDatabase
	levelSchema
)

// Node is the root, a database, or a schema of a DuckDB instance. Names are
// matched case-insensitively, like DuckDB does.
type Node struct {
	db       *sql.DB
	level    level
	database string
	schema   string
	fullName string
}

var (
	_ catalog.CatalogGetter             = (*Node)(nil)
	_ catalog.TableGetter               = (*Node)(nil)
	_ catalog.TableFinder               = (*Node)(nil)
	_ catalog.TypeGetter                = (*Node)(nil)
	_ catalog.FunctionGetter            = (*Node)(nil)
	_ catalog.TableValuedFunctionGetter = (*Node)(nil)
)

// Open opens a DuckDB database file ("" for an in-memory database).
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return db, nil
}

// New returns the root catalog of db. Its nested catalogs are the attached
// databases.
func New(db *sql.DB, name string) *Node {
	if name == "" {
		name = DefaultName
	}
	return &Node{db: db, level: levelRoot, fullName: name}
}

// FullName implements catalog.Catalog.
func (n *Node) FullName() string { return n.fullName }

func (n *Node) child(name string) *Node {
	c := &Node{
		db:       n.db,
		level:    n.level + 1,
		database: n.database,
		schema:   n.schema,
		fullName: n.fullName + "." + sqlident.ToIdentifierLiteral(name),
	}
	if c.level == levelDatabase {
		c.database = name
	} else {
		c.schema = name
	}
	return c
}

// GetCatalog implements catalog.CatalogGetter.
func (n *Node) GetCatalog(ctx context.Context, name string, _ catalog.FindOptions) (catalog.Catalog, error) {
	var query string
	var args []any
	switch n.level {
	case levelRoot:
		query = `SELECT database_name FROM duckdb_databases() WHERE lower(database_name) = lower(?)`
		args = []any{name}
	case levelDatabase:
		query = `SELECT schema_name FROM duckdb_schemas() WHERE database_name = ? AND lower(schema_name) = lower(?)`
		args = []any{n.database, name}
	default:
		return nil, nil
	}

	var actual string
	err := n.db.QueryRowContext(ctx, query, args...).Scan(&actual)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog %q in %s: %w", name, n.fullName, err)
	}
	return n.child(actual), nil
}

// objectScope returns the database and schema searched for types and
// functions declared directly in n.
func (n *Node) objectScope() (database, schema string) {
	switch n.level {
	case levelRoot:
		return builtin, "main"
	case levelDatabase:
		return n.database, "main"
	default:
		return n.database, n.schema
	}
}

func (n *Node) GetType(ctx context.Context, name string, _ catalog.FindOptions) (domain.Type, error) {
	database, schema := n.objectScope()
	var typeName, logical string
	err := n.db.QueryRowContext(ctx, `
		SELECT type_name, logical_type
		FROM duckdb_types()
		WHERE database_name = ? AND schema_name = ? AND lower(type_name) = lower(?)
		LIMIT 1`,
		database, schema, name,
	).Scan(&typeName, &logical)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get type %q in %s: %w", name, n.fullName, err)
	}
	return domain.NewObject(domain.KindType, typeName).
		WithFullName(qualify(database, schema, typeName)).
		WithDescription(logical), nil
}

// Function types reported by duckdb_functions().
var (
	scalarFunctionTypes = []string{"scalar", "aggregate", "macro"}
	tableFunctionTypes  = []string{"table", "table_macro"}
)

func (n *Node) lookupFunction(ctx context.Context, k domain.Kind, name string, types []string) (*domain.SimpleObject, error) {
	database, schema := n.objectScope()
	args := []any{database, schema, name}
	for _, t := range types {
		args = append(args, t)
	}
	var fnName, fnType, description string
	err := n.db.QueryRowContext(ctx, `
		SELECT function_name, function_type, COALESCE(description, '')
		FROM duckdb_functions()
		WHERE database_name = ? AND schema_name = ? AND lower(function_name) = lower(?)
		  AND function_type IN (`+placeholders(len(types))+`)
		ORDER BY function_type
		LIMIT 1`,
		args...,
	).Scan(&fnName, &fnType, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %q in %s: %w", k, name, n.fullName, err)
	}
	if description == "" {
		description = fnType
	}
	return domain.NewObject(k, fnName).
		WithFullName(qualify(database, schema, fnName)).
		WithDescription(description), nil
}

func (n *Node) GetFunction(ctx context.Context, name string, _ catalog.FindOptions) (domain.Function, error) {
	obj, err := n.lookupFunction(ctx, domain.KindFunction, name, scalarFunctionTypes)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj, nil
}

func (n *Node) GetTableValuedFunction(ctx context.Context, name string, _ catalog.FindOptions) (domain.TableValuedFunction, error) {
	obj, err := n.lookupFunction(ctx, domain.KindTableValuedFunction, name, tableFunctionTypes)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// qualify renders database.schema.name, quoting as needed.
func qualify(parts ...string) string {
	return sqlident.FormatPath(parts)
}
