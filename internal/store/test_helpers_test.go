package store

import (
	"path/filepath"
	"testing"

	"github.com/luozhenyu/pgfulltext/internal/testutil"
)

// createTestStore opens a fresh ledger with deterministic IDs and seqs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDGenerator("batch")),
		WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
