package catalogfile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/simplecatalog"
)

// Reloader serves a catalog tree built from a definition source and rebuilds
// it on a cron schedule. A failed reload keeps the previous tree.
type Reloader struct {
	source string
	s3     ObjectGetter
	logger *slog.Logger

	current atomic.Pointer[simplecatalog.Catalog]
	mu      sync.Mutex // serializes reloads
	cron    *cron.Cron
	timeout time.Duration
}

// NewReloader loads source once and returns a Reloader serving it. The initial
// load must succeed.
func NewReloader(ctx context.Context, source string, s3 ObjectGetter, logger *slog.Logger) (*Reloader, error) {
	r := &Reloader{
		source:  source,
		s3:      s3,
		logger:  logger,
		timeout: time.Minute,
	}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Current returns the most recently loaded catalog tree.
func (r *Reloader) Current() catalog.Catalog {
	return r.current.Load()
}

// Reload rebuilds the tree from the source and swaps it in.
func (r *Reloader) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	def, err := Load(ctx, r.s3, r.source)
	if err != nil {
		return fmt.Errorf("load catalog definition: %w", err)
	}
	root, err := Build(def)
	if err != nil {
		return fmt.Errorf("build catalog %q: %w", def.Name, err)
	}
	r.current.Store(root)

	catalogs, objects := def.Count()
	r.logger.Info("catalog loaded",
		"source", r.source,
		"root", def.Name,
		"catalogs", catalogs,
		"objects", objects,
		"duration", time.Since(start),
	)
	return nil
}

// Start schedules periodic reloads. schedule is a standard five-field cron
// expression or a descriptor such as "@every 5m".
func (r *Reloader) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, r.scheduledReload); err != nil {
		return fmt.Errorf("invalid reload schedule %q: %w", schedule, err)
	}
	r.cron = c
	c.Start()
	r.logger.Info("catalog reloader started", "schedule", schedule)
	return nil
}

// Stop stops the schedule and waits for a running reload to finish.
func (r *Reloader) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.logger.Info("catalog reloader stopped")
}

func (r *Reloader) scheduledReload() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.Reload(ctx); err != nil {
		r.logger.Warn("scheduled catalog reload failed, keeping previous catalog",
			"source", r.source,
			"error", err,
		)
	}
}
