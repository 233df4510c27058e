package metastore

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

// OpenTestStore opens a migrated Store in t.TempDir() and closes it when the
// test ends.
func OpenTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "meta.sqlite"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open test metastore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
