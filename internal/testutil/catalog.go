// Package testutil provides shared mock implementations for tests across the
// codebase. This follows the Go convention of a shared test utility package
// (like net/http/httptest).
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
)

// MockCatalog implements catalog.Catalog and every Getter and Finder
// interface. Names match exactly. Getters consult Children and Objects;
// Finders consult FindFn and decline every path when it is nil.
type MockCatalog struct {
	Name     string
	Children map[string]*MockCatalog
	Objects  map[domain.Kind]map[string]domain.Object

	// GetErr, when set, is returned by every getter.
	GetErr error
	// FindFn, when set, is the path-aware override for every kind. Returning
	// (nil, nil) declines the path.
	FindFn func(kind domain.Kind, path []string) (any, error)

	mu    sync.Mutex
	calls []string
}

var (
	_ catalog.CatalogGetter       = (*MockCatalog)(nil)
	_ catalog.TableGetter         = (*MockCatalog)(nil)
	_ catalog.TableFinder         = (*MockCatalog)(nil)
	_ catalog.TypeGetter          = (*MockCatalog)(nil)
	_ catalog.PropertyGraphFinder = (*MockCatalog)(nil)
)

// NewMockCatalog creates an empty MockCatalog.
func NewMockCatalog(name string) *MockCatalog {
	return &MockCatalog{
		Name:     name,
		Children: map[string]*MockCatalog{},
		Objects:  map[domain.Kind]map[string]domain.Object{},
	}
}

// AddChild creates and registers a nested catalog whose full name is
// "<parent>.<name>".
func (m *MockCatalog) AddChild(name string) *MockCatalog {
	child := NewMockCatalog(m.Name + "." + name)
	m.Children[name] = child
	return child
}

// Add registers obj under obj.Name() and returns m.
func (m *MockCatalog) Add(obj domain.Object) *MockCatalog {
	if m.Objects[obj.Kind()] == nil {
		m.Objects[obj.Kind()] = map[string]domain.Object{}
	}
	m.Objects[obj.Kind()][obj.Name()] = obj
	return m
}

// Calls returns the recorded lookups, e.g. "GetCatalog(sales)" or
// "GetType(pkg.Msg)".
func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockCatalog) record(format string, args ...interface{}) {
	m.mu.Lock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

// FullName implements catalog.Catalog.
func (m *MockCatalog) FullName() string { return m.Name }

// GetCatalog implements catalog.CatalogGetter.
func (m *MockCatalog) GetCatalog(_ context.Context, name string, _ catalog.FindOptions) (catalog.Catalog, error) {
	m.record("GetCatalog(%s)", name)
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	child, ok := m.Children[name]
	if !ok {
		return nil, nil
	}
	return child, nil
}

// FindCatalog implements catalog.CatalogFinder.
func (m *MockCatalog) FindCatalog(_ context.Context, path []string, _ catalog.FindOptions) (catalog.Catalog, error) {
	return mockFind[catalog.Catalog](m, domain.KindCatalog, path)
}

func mockGet[T any](m *MockCatalog, k domain.Kind, name string) (T, error) {
	var zero T
	m.record("Get%s(%s)", k, name)
	if m.GetErr != nil {
		return zero, m.GetErr
	}
	obj, ok := m.Objects[k][name]
	if !ok {
		return zero, nil
	}
	t, _ := obj.(T)
	return t, nil
}

func mockFind[T any](m *MockCatalog, k domain.Kind, path []string) (T, error) {
	var zero T
	if m.FindFn == nil {
		return zero, nil
	}
	m.record("Find%s(%s)", k, strings.Join(path, "."))
	v, err := m.FindFn(k, path)
	if err != nil {
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

func (m *MockCatalog) GetTable(_ context.Context, name string, _ catalog.FindOptions) (domain.Table, error) {
	return mockGet[domain.Table](m, domain.KindTable, name)
}

func (m *MockCatalog) FindTable(_ context.Context, path []string, _ catalog.FindOptions) (domain.Table, error) {
	return mockFind[domain.Table](m, domain.KindTable, path)
}

func (m *MockCatalog) GetType(_ context.Context, name string, _ catalog.FindOptions) (domain.Type, error) {
	return mockGet[domain.Type](m, domain.KindType, name)
}

func (m *MockCatalog) FindType(_ context.Context, path []string, _ catalog.FindOptions) (domain.Type, error) {
	return mockFind[domain.Type](m, domain.KindType, path)
}

func (m *MockCatalog) GetFunction(_ context.Context, name string, _ catalog.FindOptions) (domain.Function, error) {
	return mockGet[domain.Function](m, domain.KindFunction, name)
}

func (m *MockCatalog) FindFunction(_ context.Context, path []string, _ catalog.FindOptions) (domain.Function, error) {
	return mockFind[domain.Function](m, domain.KindFunction, path)
}

func (m *MockCatalog) GetTableValuedFunction(_ context.Context, name string, _ catalog.FindOptions) (domain.TableValuedFunction, error) {
	return mockGet[domain.TableValuedFunction](m, domain.KindTableValuedFunction, name)
}

func (m *MockCatalog) FindTableValuedFunction(_ context.Context, path []string, _ catalog.FindOptions) (domain.TableValuedFunction, error) {
	return mockFind[domain.TableValuedFunction](m, domain.KindTableValuedFunction, path)
}

func (m *MockCatalog) GetProcedure(_ context.Context, name string, _ catalog.FindOptions) (domain.Procedure, error) {
	return mockGet[domain.Procedure](m, domain.KindProcedure, name)
}

func (m *MockCatalog) FindProcedure(_ context.Context, path []string, _ catalog.FindOptions) (domain.Procedure, error) {
	return mockFind[domain.Procedure](m, domain.KindProcedure, path)
}

func (m *MockCatalog) GetModel(_ context.Context, name string, _ catalog.FindOptions) (domain.Model, error) {
	return mockGet[domain.Model](m, domain.KindModel, name)
}

func (m *MockCatalog) FindModel(_ context.Context, path []string, _ catalog.FindOptions) (domain.Model, error) {
	return mockFind[domain.Model](m, domain.KindModel, path)
}

func (m *MockCatalog) GetConnection(_ context.Context, name string, _ catalog.FindOptions) (domain.Connection, error) {
	return mockGet[domain.Connection](m, domain.KindConnection, name)
}

func (m *MockCatalog) FindConnection(_ context.Context, path []string, _ catalog.FindOptions) (domain.Connection, error) {
	return mockFind[domain.Connection](m, domain.KindConnection, path)
}

func (m *MockCatalog) GetConstant(_ context.Context, name string, _ catalog.FindOptions) (domain.Constant, error) {
	return mockGet[domain.Constant](m, domain.KindConstant, name)
}

func (m *MockCatalog) FindConstant(_ context.Context, path []string, _ catalog.FindOptions) (domain.Constant, error) {
	return mockFind[domain.Constant](m, domain.KindConstant, path)
}

func (m *MockCatalog) GetPropertyGraph(_ context.Context, name string, _ catalog.FindOptions) (domain.PropertyGraph, error) {
	return mockGet[domain.PropertyGraph](m, domain.KindPropertyGraph, name)
}

func (m *MockCatalog) FindPropertyGraph(_ context.Context, path []string, _ catalog.FindOptions) (domain.PropertyGraph, error) {
	return mockFind[domain.PropertyGraph](m, domain.KindPropertyGraph, path)
}

// BareCatalog implements only catalog.Catalog: it has no nested catalogs and
// no objects of any kind.
type BareCatalog string

// FullName implements catalog.Catalog.
func (b BareCatalog) FullName() string { return string(b) }
