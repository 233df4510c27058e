package catalogfile

import (
	"fmt"

	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/simplecatalog"
	"sqlcatalog/internal/sqlident"
)

// Build materializes a definition as an in-memory catalog tree. Objects get
// full names of the form "<catalog full name>.<quoted name>".
func Build(def *Definition) (*simplecatalog.Catalog, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	root := simplecatalog.New(def.Name)
	if err := populate(root, def); err != nil {
		return nil, err
	}
	return root, nil
}

func populate(cat *simplecatalog.Catalog, def *Definition) error {
	for _, k := range ObjectKinds() {
		for _, od := range def.Objects(k) {
			if err := cat.Add(NewObject(k, cat.FullName(), od)); err != nil {
				return err
			}
		}
	}
	for i := range def.Catalogs {
		sub := &def.Catalogs[i]
		child, err := cat.NewChild(sub.Name)
		if err != nil {
			return err
		}
		if err := populate(child, sub); err != nil {
			return fmt.Errorf("catalog %s: %w", child.FullName(), err)
		}
	}
	return nil
}

// NewObject converts an object definition of kind k declared in the catalog
// named parent.
func NewObject(k domain.Kind, parent string, od ObjectDef) *domain.SimpleObject {
	return domain.NewObject(k, od.Name).
		WithFullName(parent + "." + sqlident.ToIdentifierLiteral(od.Name)).
		WithDescription(od.Description).
		WithColumns(od.Columns...)
}
