package duckcatalog

import (
	"context"
	"fmt"
	"strings"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
)

// candidate is one (database, schema, table) reading of a table path. The
// database and schema are SQL expressions so the session defaults can be used.
type candidate struct {
	database string
	schema   string
	args     []any
}

const param = "?::VARCHAR"

// candidates lists the readings of path relative to n, most preferred first.
// Relative to the root, a two-part name is schema.table in the current
// database before database.table in its main schema.
func (n *Node) candidates(path []string) []candidate {
	table := path[len(path)-1]
	switch {
	case n.level == levelRoot && len(path) == 1:
		return []candidate{{"current_database()", "current_schema()", []any{table}}}
	case n.level == levelRoot && len(path) == 2:
		return []candidate{
			{"current_database()", param, []any{path[0], table}},
			{param, "'main'", []any{path[0], table}},
		}
	case n.level == levelRoot && len(path) == 3:
		return []candidate{{param, param, []any{path[0], path[1], table}}}
	case n.level == levelDatabase && len(path) == 1:
		return []candidate{{param, "'main'", []any{n.database, table}}}
	case n.level == levelDatabase && len(path) == 2:
		return []candidate{{param, param, []any{n.database, path[0], table}}}
	case n.level == levelSchema && len(path) == 1:
		return []candidate{{param, param, []any{n.database, n.schema, table}}}
	default:
		return nil
	}
}

// findTable resolves every candidate reading with one information_schema
// query and returns the most preferred match.
func (n *Node) findTable(ctx context.Context, path []string) (domain.Table, error) {
	cands := n.candidates(path)
	if len(cands) == 0 {
		return nil, nil
	}

	var values []string
	var args []any
	for i, c := range cands {
		values = append(values, fmt.Sprintf("(%d, %s, %s, %s)", i, c.database, c.schema, param))
		args = append(args, c.args...)
	}
	query := `
		WITH candidates(priority, db, sch, tbl) AS (VALUES ` + strings.Join(values, ", ") + `)
		SELECT t.table_catalog, t.table_schema, t.table_name, t.table_type
		FROM candidates c
		JOIN information_schema.tables t
		  ON lower(t.table_catalog) = lower(c.db)
		 AND lower(t.table_schema) = lower(c.sch)
		 AND lower(t.table_name) = lower(c.tbl)
		ORDER BY c.priority
		LIMIT 1`

	rows, err := n.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find table %v in %s: %w", path, n.fullName, err)
	}
	defer rows.Close() //nolint:errcheck

	if !rows.Next() {
		return nil, rows.Err()
	}
	var database, schema, name, tableType string
	if err := rows.Scan(&database, &schema, &name, &tableType); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	columns, err := n.columns(ctx, database, schema, name)
	if err != nil {
		return nil, err
	}
	return domain.NewObject(domain.KindTable, name).
		WithFullName(qualify(database, schema, name)).
		WithDescription(tableType).
		WithColumns(columns...), nil
}

func (n *Node) columns(ctx context.Context, database, schema, table string) ([]domain.Column, error) {
	rows, err := n.db.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_catalog = ? AND table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`,
		database, schema, table,
	)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", qualify(database, schema, table), err)
	}
	defer rows.Close() //nolint:errcheck

	var cols []domain.Column
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// GetTable implements catalog.TableGetter. At the root it looks in the
// session's current database and schema; in a database, in its main schema.
func (n *Node) GetTable(ctx context.Context, name string, _ catalog.FindOptions) (domain.Table, error) {
	return n.findTable(ctx, []string{name})
}

// FindTable implements catalog.TableFinder: up to three-part names are
// resolved in one query. Longer paths and misses fall back to the walk.
func (n *Node) FindTable(ctx context.Context, path []string, _ catalog.FindOptions) (domain.Table, error) {
	return n.findTable(ctx, path)
}
