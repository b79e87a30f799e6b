package bolt

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsoares/liboffsync/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveGetPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(dbPath)
	require.NoError(t, err)
	require.True(t, s.Save("events", []string{"plantao", "consulta"}))
	require.NoError(t, s.Close())

	// Contents survive a reopen.
	s, err = Open(dbPath)
	require.NoError(t, err)
	defer s.Close()

	var got []string
	require.True(t, s.Get("events", &got))
	assert.Equal(t, []string{"plantao", "consulta"}, got)
}

func TestStore_EvictsExpiredAtOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	cfg := store.Config{MaxAge: time.Hour}

	base := time.Now()
	s, err := open(dbPath, cfg, func() time.Time { return base })
	require.NoError(t, err)
	require.True(t, s.Save("stale", "old"))
	require.NoError(t, s.Close())

	// Reopen two hours later: the sweep drops the stale entry.
	s, err = open(dbPath, cfg, func() time.Time { return base.Add(2 * time.Hour) })
	require.NoError(t, err)
	defer s.Close()

	var got string
	assert.False(t, s.Get("stale", &got))
	assert.Equal(t, 0, s.Stats().ItemCount)
}

func TestStore_LazyExpiry(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	now := time.Now()
	s, err := open(dbPath, store.Config{MaxAge: time.Hour}, func() time.Time { return now })
	require.NoError(t, err)
	defer s.Close()

	require.True(t, s.Save("events", "fresh"))
	now = now.Add(2 * time.Hour)

	var got string
	assert.False(t, s.Get("events", &got))
	assert.Equal(t, 0, s.Stats().ItemCount)
}

func TestStore_MarkSynced(t *testing.T) {
	s := openTestStore(t)

	assert.False(t, s.MarkSynced("absent"))

	require.True(t, s.Save("events", "x"))
	assert.True(t, s.MarkSynced("events"))

	stats := s.Stats()
	assert.True(t, stats.LastSync.IsPresent())
}

func TestStore_ActionQueueOrder(t *testing.T) {
	s := openTestStore(t)

	for _, id := range []string{"a1", "a2", "a3"} {
		require.True(t, s.Enqueue(store.Action{ID: id, Type: store.ActionCreate, Resource: "event"}))
	}

	require.True(t, s.RemoveAction("a2"))
	assert.False(t, s.RemoveAction("a2"), "second removal should report false")

	actions := s.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, "a1", actions[0].ID)
	assert.Equal(t, "a3", actions[1].ID)
}

func TestStore_BackupRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.True(t, s.Save("events", []string{"a"}))
	require.True(t, s.Enqueue(store.Action{ID: "a1", Type: store.ActionUpdate, Resource: "event"}))

	snapshot := s.ExportBackup()
	require.NotNil(t, snapshot)

	restored := openTestStore(t)
	require.True(t, restored.ImportBackup(snapshot))

	var got []string
	require.True(t, restored.Get("events", &got))
	assert.Equal(t, []string{"a"}, got)

	actions := restored.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, "a1", actions[0].ID)
}

func TestStore_ImportRejectsUnknownVersion(t *testing.T) {
	s := openTestStore(t)
	require.True(t, s.Save("events", "keep"))

	assert.False(t, s.ImportBackup([]byte(`{"version":"2030","items":{},"actions":[]}`)))

	var got string
	assert.True(t, s.Get("events", &got), "rejected import must not touch existing data")
}

func TestStore_ClearAll(t *testing.T) {
	s := openTestStore(t)
	require.True(t, s.Save("events", "x"))
	require.True(t, s.Enqueue(store.Action{ID: "a1"}))

	require.True(t, s.ClearAll())

	stats := s.Stats()
	assert.Equal(t, 0, stats.ItemCount)
	assert.Equal(t, 0, stats.PendingActions)
}
