package metastore

import (
	"context"
	"database/sql"
	"log/slog"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// TopName is the full name of the catalog whose nested catalogs are the
// stored roots.
const TopName = "metastore"

// Store owns the SQLite pools. Lookups go to the read pool, imports to the
// single-connection write pool.
type Store struct {
	write  *sql.DB
	read   *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the metastore at path and migrates it.
func Open(path string, logger *slog.Logger) (*Store, error) {
	writeDB, readDB, err := OpenSQLitePair(path, 0)
	if err != nil {
		return nil, err
	}
	if err := Migrate(writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, err
	}
	return New(writeDB, readDB, logger), nil
}

// New wraps already migrated pools.
func New(writeDB, readDB *sql.DB, logger *slog.Logger) *Store {
	return &Store{write: writeDB, read: readDB, logger: logger}
}

// Close closes both pools.
func (s *Store) Close() error {
	rerr := s.read.Close()
	if err := s.write.Close(); err != nil {
		return err
	}
	return rerr
}

// Top returns the catalog whose nested catalogs are the stored roots, so
// paths can name the root as their first segment.
func (s *Store) Top() *Node {
	return &Node{store: s, fullName: TopName}
}

// Root returns the stored root catalog called name.
func (s *Store) Root(ctx context.Context, name string) (*Node, error) {
	cat, err := s.Top().GetCatalog(ctx, name, catalog.FindOptions{})
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, domain.ErrNotFound("Catalog not found: %s not found in Catalog %s", sqlident.ToIdentifierLiteral(name), TopName)
	}
	return cat.(*Node), nil
}

// Roots lists the names of the stored root catalogs.
func (s *Store) Roots(ctx context.Context) ([]string, error) {
	rows, err := s.read.QueryContext(ctx, `SELECT name FROM catalogs WHERE parent_id IS NULL ORDER BY name_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
