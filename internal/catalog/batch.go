package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/sqlident"
)

// PathError records which path of a batch failed. Error prefixes the kind
// and path; Err keeps the lookup's own diagnostic for callers that report the
// path separately.
type PathError struct {
	Kind  domain.Kind
	Index int
	Path  []string
	Err   error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("resolve %s %s: %v", e.Kind, sqlident.FormatPath(e.Path), e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// ResolveMany resolves every path to an object of kind k, at most limit at a
// time (limit <= 0 means unbounded). Results are in the order of paths. The
// first failure cancels the remaining lookups and is returned as a *PathError;
// errors.As still reaches the original error.
func ResolveMany(ctx context.Context, cat Catalog, k domain.Kind, paths [][]string, opts FindOptions, limit int) ([]any, error) {
	d, err := dispatch(k)
	if err != nil {
		return nil, err
	}

	results := make([]any, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := range paths {
		path := paths[i]
		g.Go(func() error {
			obj, err := d.resolveAny(gctx, cat, path, opts)
			if err != nil {
				return &PathError{Kind: k, Index: i, Path: path, Err: err}
			}
			results[i] = obj
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CheckPathLength rejects paths longer than maxSegments (0 or less disables
// the check). Callers accepting untrusted input use it before resolving.
func CheckPathLength(path []string, maxSegments int) error {
	if maxSegments > 0 && len(path) > maxSegments {
		return domain.ErrValidation("path has %d segments, at most %d allowed", len(path), maxSegments)
	}
	return nil
}
