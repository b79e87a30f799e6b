// memory based implementation for testing and embedding hosts
package memory

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/rsoares/liboffsync/store"
)

var _ store.Store = (*Store)(nil)

// Store implements store.Store with mutex-guarded maps.
type Store struct {
	mu      sync.RWMutex
	cfg     store.Config
	items   map[string]store.Item
	actions []store.Action
	now     func() time.Time
}

// New creates an in-memory store with the default configuration.
func New() *Store {
	return NewWithConfig(store.DefaultConfig)
}

// NewWithConfig creates an in-memory store with the given configuration.
func NewWithConfig(cfg store.Config) *Store {
	return &Store{
		cfg:   cfg.Resolve(),
		items: make(map[string]store.Item),
		now:   time.Now,
	}
}

func (s *Store) Save(key string, data any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		s.cfg.Logger.Error("failed to serialize item", "key", key, "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = store.Item{
		Data:      raw,
		Timestamp: s.now().UnixMilli(),
		Synced:    s.cfg.OnlineFunc(),
	}
	return true
}

func (s *Store) Get(key string, dst any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return false
	}
	if item.Expired(s.now(), s.cfg.MaxAge) {
		delete(s.items, key)
		return false
	}
	if err := json.Unmarshal(item.Data, dst); err != nil {
		s.cfg.Logger.Error("failed to deserialize item", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return true
}

func (s *Store) ClearAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]store.Item)
	s.actions = nil
	return true
}

func (s *Store) MarkSynced(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return false
	}
	item.Synced = true
	item.Timestamp = s.now().UnixMilli()
	s.items[key] = item
	return true
}

func (s *Store) Stats() store.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	stats := store.Stats{PendingActions: len(s.actions)}
	var lastSync int64
	live := make(map[string]store.Item, len(s.items))
	for key, item := range s.items {
		if item.Expired(now, s.cfg.MaxAge) {
			continue
		}
		live[key] = item
		stats.ItemCount++
		if item.Synced && item.Timestamp > lastSync {
			lastSync = item.Timestamp
		}
	}
	if lastSync > 0 {
		stats.LastSync = mo.Some(time.UnixMilli(lastSync))
	}
	if raw, err := json.Marshal(live); err == nil {
		stats.SizeBytes += int64(len(raw))
	}
	if raw, err := json.Marshal(s.actions); err == nil {
		stats.SizeBytes += int64(len(raw))
	}
	return stats
}

func (s *Store) Enqueue(action store.Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return true
}

func (s *Store) Actions() []store.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Action, len(s.actions))
	copy(out, s.actions)
	return out
}

func (s *Store) RemoveAction(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.actions {
		if a.ID == id {
			s.actions = append(s.actions[:i], s.actions[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) ExportBackup() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make(map[string]store.Item, len(s.items))
	for key, item := range s.items {
		items[key] = item
	}
	actions := make([]store.Action, len(s.actions))
	copy(actions, s.actions)

	data, err := store.EncodeSnapshot(items, actions, s.now())
	if err != nil {
		s.cfg.Logger.Error("failed to export backup", "error", err)
		return nil
	}
	return data
}

func (s *Store) ImportBackup(data []byte) bool {
	snap, err := store.DecodeSnapshot(data)
	if err != nil {
		s.cfg.Logger.Error("rejected backup import", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]store.Item, len(snap.Items))
	for key, item := range snap.Items {
		s.items[key] = item
	}
	s.actions = make([]store.Action, len(snap.Actions))
	copy(s.actions, snap.Actions)
	return true
}

func (s *Store) Close() error { return nil }
