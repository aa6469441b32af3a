package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new store in a temp directory.
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

// createTestSession returns a session with minimal required fields.
func createTestSession(id string) Session {
	return Session{
		ID:        id,
		Timeline:  "show.json",
		Entries:   3,
		Offset:    0.03,
		Channels:  []string{"udp 127.0.0.1:12345", "audio"},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
