package library

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStorage(t *testing.T) *storage {
	t.Helper()
	st, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)
	return st
}

func newTestInventory(t *testing.T) *InventoryStore {
	t.Helper()
	inv, err := NewInventoryStore(newTestStorage(t), testLogger())
	require.NoError(t, err)
	return inv
}

func mustCopy(t *testing.T, id, isbn, title, author string) *Copy {
	t.Helper()
	c, err := NewCopy(id, isbn, title, author, 0.5, 100)
	require.NoError(t, err)
	return c
}

// newTestManager builds a manager over a temp data dir with one helper per
// store already wired together.
func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(Config{DataDir: t.TempDir(), Logger: testLogger()})
	require.NoError(t, err)
	return mgr
}
