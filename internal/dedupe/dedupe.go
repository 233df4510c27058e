// Package dedupe collapses identical concurrent catalog lookups into a single
// call to the underlying catalog. Nothing is cached: once a call returns, the
// next identical lookup goes to the catalog again.
package dedupe

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
)

// Group shares in-flight lookups between all catalogs wrapped with it.
type Group struct {
	sf singleflight.Group

	mu       sync.Mutex
	inflight map[string]*call
}

// call is the context a shared lookup runs under, kept alive while at least
// one caller is waiting for it.
type call struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewGroup creates an empty Group.
func NewGroup() *Group { return &Group{} }

// Wrap wraps cat with a new Group.
func Wrap(cat catalog.Catalog) *Catalog {
	return NewGroup().Wrap(cat)
}

// Wrap returns a Catalog forwarding every lookup to cat through g.
func (g *Group) Wrap(cat catalog.Catalog) *Catalog {
	if c, ok := cat.(*Catalog); ok && c.group == g {
		return c
	}
	return &Catalog{inner: cat, group: g}
}

// Catalog forwards to the wrapped catalog. It implements every Getter and
// Finder; kinds the wrapped catalog lacks resolve as absent, as they would
// on the wrapped catalog itself.
//
// Lookups are keyed by the catalog's full name, the kind, the name or path
// and the FindOptions attributes, so only identical lookups are shared.
type Catalog struct {
	inner catalog.Catalog
	group *Group
}

// FullName implements catalog.Catalog.
func (c *Catalog) FullName() string { return c.inner.FullName() }

// Unwrap returns the wrapped catalog.
func (c *Catalog) Unwrap() catalog.Catalog { return c.inner }

// do runs fn once per key among concurrent callers. Each caller stops waiting
// when its own context ends. The shared call is cancelled once every caller
// waiting for it has gone.
func (c *Catalog) do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	shared := c.group.join(ctx, key)
	defer c.group.leave(key)

	ch := c.group.sf.DoChan(key, func() (any, error) {
		return fn(shared)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// join registers a waiter for key and returns the context the shared call
// runs under. The first waiter's values are kept; its cancellation is not.
func (g *Group) join(ctx context.Context, key string) context.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight == nil {
		g.inflight = make(map[string]*call)
	}
	cl, ok := g.inflight[key]
	if !ok {
		sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		cl = &call{ctx: sctx, cancel: cancel}
		g.inflight[key] = cl
	}
	cl.waiters++
	return cl.ctx
}

// leave drops a waiter for key. The last one out cancels the shared call and
// forgets it, so a later caller starts a fresh lookup instead of joining a
// cancelled one.
func (g *Group) leave(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cl := g.inflight[key]
	cl.waiters--
	if cl.waiters > 0 {
		return
	}
	delete(g.inflight, key)
	cl.cancel()
	g.sf.Forget(key)
}

// wrapResult wraps nested catalogs so lookups below them are shared too.
func (c *Catalog) wrapResult(k domain.Kind, v any) any {
	if k == domain.KindCatalog {
		return c.group.Wrap(v.(catalog.Catalog))
	}
	return v
}

// key length-prefixes every part so no two distinct lookups share a key.
// Attributes are encoded in sorted key order.
func (c *Catalog) key(op string, k domain.Kind, opts catalog.FindOptions, segs ...string) string {
	var b strings.Builder
	part := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	part(op)
	part(c.inner.FullName())
	part(k.String())
	b.WriteString(strconv.Itoa(len(segs)))
	b.WriteByte('|')
	for _, s := range segs {
		part(s)
	}
	names := make([]string, 0, len(opts.Attributes))
	for name := range opts.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		part(name)
		part(opts.Attributes[name])
	}
	return b.String()
}

func get[T any](ctx context.Context, c *Catalog, k domain.Kind, name string, opts catalog.FindOptions) (T, error) {
	var zero T
	v, err := c.do(ctx, c.key("get", k, opts, name), func(ctx context.Context) (any, error) {
		return catalog.Get(ctx, c.inner, k, name, opts)
	})
	if err != nil || v == nil {
		return zero, err
	}
	return c.wrapResult(k, v).(T), nil
}

func find[T any](ctx context.Context, c *Catalog, k domain.Kind, path []string, opts catalog.FindOptions) (T, error) {
	var zero T
	v, err := c.do(ctx, c.key("find", k, opts, path...), func(ctx context.Context) (any, error) {
		return catalog.Override(ctx, c.inner, k, path, opts)
	})
	if err != nil || v == nil {
		return zero, err
	}
	return c.wrapResult(k, v).(T), nil
}

func (c *Catalog) GetCatalog(ctx context.Context, name string, opts catalog.FindOptions) (catalog.Catalog, error) {
	return get[catalog.Catalog](ctx, c, domain.KindCatalog, name, opts)
}

func (c *Catalog) FindCatalog(ctx context.Context, path []string, opts catalog.FindOptions) (catalog.Catalog, error) {
	return find[catalog.Catalog](ctx, c, domain.KindCatalog, path, opts)
}

func (c *Catalog) GetTable(ctx context.Context, name string, opts catalog.FindOptions) (domain.Table, error) {
	return get[domain.Table](ctx, c, domain.KindTable, name, opts)
}

func (c *Catalog) FindTable(ctx context.Context, path []string, opts catalog.FindOptions) (domain.Table, error) {
	return find[domain.Table](ctx, c, domain.KindTable, path, opts)
}

func (c *Catalog) GetType(ctx context.Context, name string, opts catalog.FindOptions) (domain.Type, error) {
	return get[domain.Type](ctx, c, domain.KindType, name, opts)
}

func (c *Catalog) FindType(ctx context.Context, path []string, opts catalog.FindOptions) (domain.Type, error) {
	return find[domain.Type](ctx, c, domain.KindType, path, opts)
}

func (c *Catalog) GetFunction(ctx context.Context, name string, opts catalog.FindOptions) (domain.Function, error) {
	return get[domain.Function](ctx, c, domain.KindFunction, name, opts)
}

func (c *Catalog) FindFunction(ctx context.Context, path []string, opts catalog.FindOptions) (domain.Function, error) {
	return find[domain.Function](ctx, c, domain.KindFunction, path, opts)
}

func (c *Catalog) GetTableValuedFunction(ctx context.Context, name string, opts catalog.FindOptions) (domain.TableValuedFunction, error) {
	return get[domain.TableValuedFunction](ctx, c, domain.KindTableValuedFunction, name, opts)
}

func (c *Catalog) FindTableValuedFunction(ctx context.Context, path []string, opts catalog.FindOptions) (domain.TableValuedFunction, error) {
	return find[domain.TableValuedFunction](ctx, c, domain.KindTableValuedFunction, path, opts)
}

func (c *Catalog) GetProcedure(ctx context.Context, name string, opts catalog.FindOptions) (domain.Procedure, error) {
	return get[domain.Procedure](ctx, c, domain.KindProcedure, name, opts)
}

func (c *Catalog) FindProcedure(ctx context.Context, path []string, opts catalog.FindOptions) (domain.Procedure, error) {
	return find[domain.Procedure](ctx, c, domain.KindProcedure, path, opts)
}

func (c *Catalog) GetModel(ctx context.Context, name string, opts catalog.FindOptions) (domain.Model, error) {
	return get[domain.Model](ctx, c, domain.KindModel, name, opts)
}

func (c *Catalog) FindModel(ctx context.Context, path []string, opts catalog.FindOptions) (domain.Model, error) {
	return find[domain.Model](ctx, c, domain.KindModel, path, opts)
}

func (c *Catalog) GetConnection(ctx context.Context, name string, opts catalog.FindOptions) (domain.Connection, error) {
	return get[domain.Connection](ctx, c, domain.KindConnection, name, opts)
}

func (c *Catalog) FindConnection(ctx context.Context, path []string, opts catalog.FindOptions) (domain.Connection, error) {
	return find[domain.Connection](ctx, c, domain.KindConnection, path, opts)
}

func (c *Catalog) GetConstant(ctx context.Context, name string, opts catalog.FindOptions) (domain.Constant, error) {
	return get[domain.Constant](ctx, c, domain.KindConstant, name, opts)
}

func (c *Catalog) FindConstant(ctx context.Context, path []string, opts catalog.FindOptions) (domain.Constant, error) {
	return find[domain.Constant](ctx, c, domain.KindConstant, path, opts)
}

func (c *Catalog) GetPropertyGraph(ctx context.Context, name string, opts catalog.FindOptions) (domain.PropertyGraph, error) {
	return get[domain.PropertyGraph](ctx, c, domain.KindPropertyGraph, name, opts)
}

func (c *Catalog) FindPropertyGraph(ctx context.Context, path []string, opts catalog.FindOptions) (domain.PropertyGraph, error) {
	return find[domain.PropertyGraph](ctx, c, domain.KindPropertyGraph, path, opts)
}
