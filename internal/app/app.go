// Package app wires the configured catalog sources into the catalog served by
// the resolve service and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/catalogfile"
	"sqlcatalog/internal/config"
	"sqlcatalog/internal/dedupe"
	"sqlcatalog/internal/duckcatalog"
	"sqlcatalog/internal/metastore"
)

// Deps holds what main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// App holds the opened catalog sources. Lookups go through Current, which
// searches the sources in order: the YAML definition, the SQLite metastore,
// then DuckDB.
type App struct {
	Reloader *catalogfile.Reloader // nil when no CATALOG_FILE is configured
	Store    *metastore.Store      // nil when no META_DB_PATH is configured
	DuckDB   *sql.DB               // nil when no DUCKDB_PATH is configured

	meta   catalog.Catalog
	duck   catalog.Catalog
	group  *dedupe.Group
	logger *slog.Logger
}

// New opens every configured source. On error, sources opened so far are
// closed again.
func New(ctx context.Context, deps Deps) (_ *App, err error) {
	cfg := deps.Cfg
	if !cfg.HasSource() {
		return nil, errors.New("no catalog source configured")
	}

	a := &App{group: dedupe.NewGroup(), logger: deps.Logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if cfg.CatalogFile != "" {
		var s3 catalogfile.ObjectGetter
		if cfg.HasS3Config() {
			s3 = catalogfile.NewS3Client(S3Config(cfg))
		}
		a.Reloader, err = catalogfile.NewReloader(ctx, cfg.CatalogFile, s3, deps.Logger.With("component", "catalogfile"))
		if err != nil {
			return nil, err
		}
	}

	if cfg.MetaDBPath != "" {
		a.Store, err = metastore.Open(cfg.MetaDBPath, deps.Logger.With("component", "metastore"))
		if err != nil {
			return nil, fmt.Errorf("open metastore: %w", err)
		}
		a.meta = a.Store.Top()
		if cfg.MetaRoot != "" {
			root, err := a.Store.Root(ctx, cfg.MetaRoot)
			if err != nil {
				return nil, err
			}
			a.meta = root
		}
	}

	if cfg.DuckDBPath != "" {
		path := cfg.DuckDBPath
		if path == ":memory:" {
			path = ""
		}
		a.DuckDB, err = duckcatalog.Open(path)
		if err != nil {
			return nil, err
		}
		a.duck = duckcatalog.New(a.DuckDB, "")
	}

	deps.Logger.Info("catalog sources opened", "sources", a.Current().FullName())
	return a, nil
}

// S3Config extracts the object storage settings from cfg.
func S3Config(cfg *config.Config) catalogfile.S3Config {
	var out catalogfile.S3Config
	if cfg.S3Endpoint != nil {
		out.Endpoint = *cfg.S3Endpoint
	}
	if cfg.S3Region != nil {
		out.Region = *cfg.S3Region
	}
	if cfg.S3KeyID != nil {
		out.KeyID = *cfg.S3KeyID
	}
	if cfg.S3Secret != nil {
		out.Secret = *cfg.S3Secret
	}
	return out
}

// Current returns the catalog to resolve against. With a single source it is
// that source itself; otherwise a SearchPath over all of them. Concurrent
// identical lookups are collapsed.
func (a *App) Current() catalog.Catalog {
	var sources catalog.SearchPath
	if a.Reloader != nil {
		sources = append(sources, a.Reloader.Current())
	}
	if a.meta != nil {
		sources = append(sources, a.meta)
	}
	if a.duck != nil {
		sources = append(sources, a.duck)
	}
	if len(sources) == 1 {
		return a.group.Wrap(sources[0])
	}
	return a.group.Wrap(sources)
}

// Start begins scheduled reloads of the YAML definition, if any.
func (a *App) Start(schedule string) error {
	if a.Reloader == nil || schedule == "" {
		return nil
	}
	return a.Reloader.Start(schedule)
}

// Close stops reloading and closes every opened source.
func (a *App) Close() error {
	if a.Reloader != nil {
		a.Reloader.Stop()
	}
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.DuckDB != nil {
		errs = append(errs, a.DuckDB.Close())
	}
	return errors.Join(errs...)
}
