package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/pulsesim/internal/circuit"
)

// createTestStore creates a new file-backed store for testing.
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

// beginTestRun starts a count run with the given id.
func beginTestRun(t *testing.T, s *Store, id string) Run {
	t.Helper()
	run, err := s.BeginRun(context.Background(), Run{
		ID:        id,
		Kind:      RunKindCount,
		Source:    "circuit.txt",
		GraphHash: "test-hash",
	})
	if err != nil {
		t.Fatalf("BeginRun(%s) failed: %v", id, err)
	}
	return run
}

// testTrace is press 1 of the three-flip-flop example.
func testTrace(press int64) []circuit.Pulse {
	edges := []struct {
		from, to string
		level    circuit.Level
	}{
		{circuit.ButtonID, "broadcaster", circuit.Low},
		{"broadcaster", "a", circuit.Low},
		{"broadcaster", "b", circuit.Low},
		{"broadcaster", "c", circuit.Low},
		{"a", "b", circuit.High},
		{"b", "c", circuit.High},
		{"c", "inv", circuit.High},
		{"inv", "a", circuit.Low},
		{"a", "b", circuit.Low},
		{"b", "c", circuit.Low},
		{"c", "inv", circuit.Low},
		{"inv", "a", circuit.High},
	}
	trace := make([]circuit.Pulse, len(edges))
	for i, e := range edges {
		trace[i] = circuit.Pulse{Seq: int64(i + 1), Press: press, From: e.from, To: e.to, Level: e.level}
	}
	return trace
}
