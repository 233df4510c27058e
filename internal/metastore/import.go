package metastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sqlcatalog/internal/catalogfile"
	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// ImportResult summarizes an import.
type ImportResult struct {
	Root     string `json:"root"`
	Replaced bool   `json:"replaced"`
	Catalogs int    `json:"catalogs"`
	Objects  int    `json:"objects"`
}

// Import stores def as a root catalog, replacing any existing root with the
// same name. The import is atomic.
func (s *Store) Import(ctx context.Context, def *catalogfile.Definition) (*ImportResult, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`DELETE FROM catalogs WHERE parent_id IS NULL AND name_key = ?`,
		domain.KindCatalog.Key(def.Name))
	if err != nil {
		return nil, fmt.Errorf("delete previous root %q: %w", def.Name, err)
	}
	replaced, _ := res.RowsAffected()

	result := &ImportResult{Root: def.Name, Replaced: replaced > 0}
	if err := insertCatalog(ctx, tx, nil, def.Name, def, result); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	// the root row itself is not counted
	result.Catalogs--

	s.logger.Info("catalog imported",
		"root", result.Root,
		"replaced", result.Replaced,
		"catalogs", result.Catalogs,
		"objects", result.Objects,
		"duration", time.Since(start),
	)
	return result, nil
}

func insertCatalog(ctx context.Context, tx *sql.Tx, parentID *string, fullName string, def *catalogfile.Definition, result *ImportResult) error {
	id := uuid.NewString()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO catalogs (id, parent_id, name, name_key, full_name) VALUES (?, ?, ?, ?, ?)`,
		id, parentID, def.Name, domain.KindCatalog.Key(def.Name), fullName)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("Catalog %s already exists in Catalog %s", sqlident.ToIdentifierLiteral(def.Name), parentName(fullName, def.Name))
		}
		return fmt.Errorf("insert catalog %s: %w", fullName, err)
	}
	result.Catalogs++

	for _, k := range catalogfile.ObjectKinds() {
		for _, od := range def.Objects(k) {
			obj := catalogfile.NewObject(k, fullName, od)
			columns, err := json.Marshal(nonNil(obj.Columns()))
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO objects (id, catalog_id, kind, name, name_key, full_name, description, columns)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), id, k.String(), obj.Name(), k.Key(obj.Name()), obj.FullName(), obj.Description(), string(columns))
			if err != nil {
				if isUniqueViolation(err) {
					return domain.ErrConflict("%s %s already exists in Catalog %s", k, sqlident.ToIdentifierLiteral(od.Name), fullName)
				}
				return fmt.Errorf("insert %s %s: %w", k, obj.FullName(), err)
			}
			result.Objects++
		}
	}

	for i := range def.Catalogs {
		sub := &def.Catalogs[i]
		subName := fullName + "." + sqlident.ToIdentifierLiteral(sub.Name)
		if err := insertCatalog(ctx, tx, &id, subName, sub, result); err != nil {
			return err
		}
	}
	return nil
}

func parentName(fullName, name string) string {
	suffix := "." + sqlident.ToIdentifierLiteral(name)
	if len(fullName) > len(suffix) && fullName[len(fullName)-len(suffix):] == suffix {
		return fullName[:len(fullName)-len(suffix)]
	}
	return TopName
}

func nonNil(cols []domain.Column) []domain.Column {
	if cols == nil {
		return []domain.Column{}
	}
	return cols
}
