package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/arcflow/internal/trace"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestStep creates a successful step on var x.
func createTestStep(seq int64, prop string, changed bool) trace.Step {
	return trace.Step{
		Seq:     seq,
		Prop:    prop,
		Var:     "x",
		Mask:    "bound",
		Changed: changed,
		Outcome: trace.OutcomeOK,
	}
}
