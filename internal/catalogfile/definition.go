// Package catalogfile loads catalog trees from YAML definitions, either from
// local files or from S3, and keeps a periodically reloaded copy in memory.
package catalogfile

import (
	"gopkg.in/yaml.v3"

	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// Definition is one catalog in a YAML catalog file:
//
//	name: warehouse
//	tables:
//	  - orders
//	  - name: customers
//	    columns: [{name: id, type: INT64}]
//	types: [pkg.Msg]
//	catalogs:
//	  - name: sales
//	    tables: [orders]
type Definition struct {
	Name           string       `yaml:"name"`
	Tables         []ObjectDef  `yaml:"tables,omitempty"`
	Types          []ObjectDef  `yaml:"types,omitempty"`
	Functions      []ObjectDef  `yaml:"functions,omitempty"`
	TVFs           []ObjectDef  `yaml:"tvfs,omitempty"`
	Procedures     []ObjectDef  `yaml:"procedures,omitempty"`
	Models         []ObjectDef  `yaml:"models,omitempty"`
	Connections    []ObjectDef  `yaml:"connections,omitempty"`
	Constants      []ObjectDef  `yaml:"constants,omitempty"`
	PropertyGraphs []ObjectDef  `yaml:"property_graphs,omitempty"`
	Catalogs       []Definition `yaml:"catalogs,omitempty"`
}

// ObjectDef is a named object. In YAML it is either a bare name or a mapping
// with a name, description and columns.
type ObjectDef struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Columns     []domain.Column `yaml:"columns,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (o *ObjectDef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		o.Name = value.Value
		return nil
	}
	type plain ObjectDef
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*o = ObjectDef(p)
	return nil
}

// Objects returns the definitions of kind k declared directly in d.
func (d *Definition) Objects(k domain.Kind) []ObjectDef {
	switch k {
	case domain.KindTable:
		return d.Tables
	case domain.KindType:
		return d.Types
	case domain.KindFunction:
		return d.Functions
	case domain.KindTableValuedFunction:
		return d.TVFs
	case domain.KindProcedure:
		return d.Procedures
	case domain.KindModel:
		return d.Models
	case domain.KindConnection:
		return d.Connections
	case domain.KindConstant:
		return d.Constants
	case domain.KindPropertyGraph:
		return d.PropertyGraphs
	default:
		return nil
	}
}

// ObjectKinds lists every kind a Definition can declare objects of.
func ObjectKinds() []domain.Kind {
	kinds := make([]domain.Kind, 0, len(domain.Kinds())-1)
	for _, k := range domain.Kinds() {
		if k != domain.KindCatalog {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Validate checks that every catalog and object has a name. Duplicates are
// reported when the tree is built.
func (d *Definition) Validate() error {
	return d.validate(nil)
}

func (d *Definition) validate(parent []string) error {
	if d.Name == "" {
		if len(parent) == 0 {
			return domain.ErrValidation("catalog name is required")
		}
		return domain.ErrValidation("catalog name is required in %s", sqlident.FormatPath(parent))
	}
	path := append(append([]string(nil), parent...), d.Name)
	for _, k := range ObjectKinds() {
		for i, obj := range d.Objects(k) {
			if obj.Name == "" {
				return domain.ErrValidation("%s #%d in %s has no name", k, i+1, sqlident.FormatPath(path))
			}
		}
	}
	for i := range d.Catalogs {
		if err := d.Catalogs[i].validate(path); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nested catalogs and objects in the tree rooted
// at d, not counting d itself.
func (d *Definition) Count() (catalogs, objects int) {
	for _, k := range ObjectKinds() {
		objects += len(d.Objects(k))
	}
	for i := range d.Catalogs {
		c, o := d.Catalogs[i].Count()
		catalogs += 1 + c
		objects += o
	}
	return catalogs, objects
}

// Parse decodes and validates a YAML definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, domain.ErrValidation("parse catalog definition: %v", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
