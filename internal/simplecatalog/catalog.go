// Package simplecatalog provides an in-memory catalog.Catalog. It is the
// backing store for catalogs built from YAML definitions and a convenient
// fixture for tests.
package simplecatalog

import (
	"context"
	"sort"
	"sync"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// Catalog holds named objects of every kind plus nested catalogs. Type names
// are matched exactly; every other name is matched case-insensitively.
// A Catalog is safe for concurrent use.
type Catalog struct {
	fullName string

	mu       sync.RWMutex
	catalogs map[string]namedCatalog
	objects  map[domain.Kind]map[string]domain.Object
}

type namedCatalog struct {
	name string
	cat  catalog.Catalog
}

var (
	_ catalog.CatalogGetter             = (*Catalog)(nil)
	_ catalog.TableGetter               = (*Catalog)(nil)
	_ catalog.TypeGetter                = (*Catalog)(nil)
	_ catalog.FunctionGetter            = (*Catalog)(nil)
	_ catalog.TableValuedFunctionGetter = (*Catalog)(nil)
	_ catalog.ProcedureGetter           = (*Catalog)(nil)
	_ catalog.ModelGetter               = (*Catalog)(nil)
	_ catalog.ConnectionGetter          = (*Catalog)(nil)
	_ catalog.ConstantGetter            = (*Catalog)(nil)
	_ catalog.PropertyGraphGetter       = (*Catalog)(nil)
)

// New creates an empty root catalog.
func New(name string) *Catalog {
	return &Catalog{
		fullName: name,
		catalogs: make(map[string]namedCatalog),
		objects:  make(map[domain.Kind]map[string]domain.Object),
	}
}

// FullName implements catalog.Catalog.
func (c *Catalog) FullName() string { return c.fullName }

// NewChild creates an empty nested catalog, registers it under name and
// returns it. Its full name is this catalog's full name plus the quoted name.
func (c *Catalog) NewChild(name string) (*Catalog, error) {
	child := New(c.fullName + "." + sqlident.ToIdentifierLiteral(name))
	if err := c.AddCatalog(name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// AddCatalog registers any catalog as a nested catalog of c.
func (c *Catalog) AddCatalog(name string, sub catalog.Catalog) error {
	if name == "" {
		return domain.ErrValidation("catalog name is required")
	}
	if sub == nil {
		return domain.ErrValidation("catalog %s is nil", sqlident.ToIdentifierLiteral(name))
	}
	key := domain.KindCatalog.Key(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.catalogs[key]; ok {
		return domain.ErrConflict("Catalog %s already exists in Catalog %s", sqlident.ToIdentifierLiteral(name), c.fullName)
	}
	c.catalogs[key] = namedCatalog{name: name, cat: sub}
	return nil
}

// Add registers obj under obj.Name(). Use AddCatalog for nested catalogs.
func (c *Catalog) Add(obj domain.Object) error {
	if obj == nil {
		return domain.ErrValidation("object is nil")
	}
	k := obj.Kind()
	if !k.Valid() || k == domain.KindCatalog {
		return domain.ErrValidation("cannot add object of kind %s", k)
	}
	if obj.Name() == "" {
		return domain.ErrValidation("%s name is required", k)
	}
	if err := checkShape(obj); err != nil {
		return err
	}
	key := k.Key(obj.Name())

	c.mu.Lock()
	defer c.mu.Unlock()
	byName := c.objects[k]
	if byName == nil {
		byName = make(map[string]domain.Object)
		c.objects[k] = byName
	}
	if _, ok := byName[key]; ok {
		return domain.ErrConflict("%s %s already exists in Catalog %s", k, sqlident.ToIdentifierLiteral(obj.Name()), c.fullName)
	}
	byName[key] = obj
	return nil
}

// checkShape makes sure the object satisfies the interface of its kind, so
// getters never drop a registered object.
func checkShape(obj domain.Object) error {
	var ok bool
	switch obj.Kind() {
	case domain.KindTable:
		_, ok = obj.(domain.Table)
	case domain.KindTableValuedFunction:
		_, ok = obj.(domain.TableValuedFunction)
	case domain.KindModel:
		_, ok = obj.(domain.Model)
	default:
		ok = true
	}
	if !ok {
		return domain.ErrValidation("%s %s has no column list", obj.Kind(), sqlident.ToIdentifierLiteral(obj.Name()))
	}
	return nil
}

func (c *Catalog) AddTable(t domain.Table) error                             { return c.Add(t) }
func (c *Catalog) AddType(t domain.Type) error                               { return c.Add(t) }
func (c *Catalog) AddFunction(f domain.Function) error                       { return c.Add(f) }
func (c *Catalog) AddTableValuedFunction(f domain.TableValuedFunction) error { return c.Add(f) }
func (c *Catalog) AddProcedure(p domain.Procedure) error                     { return c.Add(p) }
func (c *Catalog) AddModel(m domain.Model) error                             { return c.Add(m) }
func (c *Catalog) AddConnection(conn domain.Connection) error                { return c.Add(conn) }
func (c *Catalog) AddConstant(k domain.Constant) error                       { return c.Add(k) }
func (c *Catalog) AddPropertyGraph(g domain.PropertyGraph) error             { return c.Add(g) }

// Names lists the registered names of kind k in sorted order.
func (c *Catalog) Names(k domain.Kind) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var names []string
	if k == domain.KindCatalog {
		for _, nc := range c.catalogs {
			names = append(names, nc.name)
		}
	} else {
		for _, obj := range c.objects[k] {
			names = append(names, obj.Name())
		}
	}
	sort.Strings(names)
	return names
}

func get[T any](c *Catalog, k domain.Kind, name string) (T, error) {
	var zero T
	c.mu.RLock()
	obj, ok := c.objects[k][k.Key(name)]
	c.mu.RUnlock()
	if !ok {
		return zero, nil
	}
	t, _ := obj.(T)
	return t, nil
}

// GetCatalog implements catalog.CatalogGetter.
func (c *Catalog) GetCatalog(_ context.Context, name string, _ catalog.FindOptions) (catalog.Catalog, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nc, ok := c.catalogs[domain.KindCatalog.Key(name)]
	if !ok {
		return nil, nil
	}
	return nc.cat, nil
}

func (c *Catalog) GetTable(_ context.Context, name string, _ catalog.FindOptions) (domain.Table, error) {
	return get[domain.Table](c, domain.KindTable, name)
}

func (c *Catalog) GetType(_ context.Context, name string, _ catalog.FindOptions) (domain.Type, error) {
	return get[domain.Type](c, domain.KindType, name)
}

func (c *Catalog) GetFunction(_ context.Context, name string, _ catalog.FindOptions) (domain.Function, error) {
	return get[domain.Function](c, domain.KindFunction, name)
}

func (c *Catalog) GetTableValuedFunction(_ context.Context, name string, _ catalog.FindOptions) (domain.TableValuedFunction, error) {
	return get[domain.TableValuedFunction](c, domain.KindTableValuedFunction, name)
}

func (c *Catalog) GetProcedure(_ context.Context, name string, _ catalog.FindOptions) (domain.Procedure, error) {
	return get[domain.Procedure](c, domain.KindProcedure, name)
}

func (c *Catalog) GetModel(_ context.Context, name string, _ catalog.FindOptions) (domain.Model, error) {
	return get[domain.Model](c, domain.KindModel, name)
}

func (c *Catalog) GetConnection(_ context.Context, name string, _ catalog.FindOptions) (domain.Connection, error) {
	return get[domain.Connection](c, domain.KindConnection, name)
}

func (c *Catalog) GetConstant(_ context.Context, name string, _ catalog.FindOptions) (domain.Constant, error) {
	return get[domain.Constant](c, domain.KindConstant, name)
}

func (c *Catalog) GetPropertyGraph(_ context.Context, name string, _ catalog.FindOptions) (domain.PropertyGraph, error) {
	return get[domain.PropertyGraph](c, domain.KindPropertyGraph, name)
}
