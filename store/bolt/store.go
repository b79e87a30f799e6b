// Package bolt provides the durable, file-backed implementation of
// store.Store on top of bbolt.
//
// Cached items live in one bucket keyed by their logical name; pending
// actions live in a second bucket keyed by the bucket sequence number, so
// iteration order is enqueue order.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/mo"
	bolt "go.etcd.io/bbolt"

	"github.com/rsoares/liboffsync/store"
)

var (
	metaBucket    = []byte("meta")
	itemsBucket   = []byte("items")
	actionsBucket = []byte("actions")

	keySchemaVersion = []byte("schema_version")
)

const schemaVersion = "1"

var _ store.Store = (*Store)(nil)

// Store implements store.Store backed by a bbolt database file.
type Store struct {
	db  *bolt.DB
	cfg store.Config
	now func() time.Time
}

// Open opens (creating if needed) the database at dbPath with the default
// configuration.
func Open(dbPath string) (*Store, error) {
	return OpenWithConfig(dbPath, store.DefaultConfig)
}

// OpenWithConfig opens the database at dbPath. Expired items are evicted
// once at open; later reads evict lazily.
func OpenWithConfig(dbPath string, cfg store.Config) (*Store, error) {
	return open(dbPath, cfg, time.Now)
}

func open(dbPath string, cfg store.Config, now func() time.Time) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, cfg: cfg.Resolve(), now: now}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.evictExpired(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{metaBucket, itemsBucket, actionsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		meta := tx.Bucket(metaBucket)
		if meta.Get(keySchemaVersion) == nil {
			if err := meta.Put(keySchemaVersion, []byte(schemaVersion)); err != nil {
				return err
			}
		}

		return nil
	})
}

// evictExpired drops items older than the retention window.
func (s *Store) evictExpired() error {
	now := s.now()
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(itemsBucket)
		cursor := bucket.Cursor()
		var stale [][]byte
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			var item store.Item
			if err := json.Unmarshal(value, &item); err != nil || item.Expired(now, s.cfg.MaxAge) {
				stale = append(stale, append([]byte(nil), key...))
			}
		}
		for _, key := range stale {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Save(key string, data any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		s.cfg.Logger.Error("failed to serialize item", "key", key, "error", err)
		return false
	}
	item := store.Item{
		Data:      raw,
		Timestamp: s.now().UnixMilli(),
		Synced:    s.cfg.OnlineFunc(),
	}
	value, err := json.Marshal(item)
	if err != nil {
		s.cfg.Logger.Error("failed to serialize item envelope", "key", key, "error", err)
		return false
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(itemsBucket).Put([]byte(key), value)
	})
	if err != nil {
		s.cfg.Logger.Error("failed to write item", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) Get(key string, dst any) bool {
	var item store.Item
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(itemsBucket).Get([]byte(key))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &item); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		s.cfg.Logger.Error("failed to read item", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if item.Expired(s.now(), s.cfg.MaxAge) {
		s.Remove(key)
		return false
	}
	if err := json.Unmarshal(item.Data, dst); err != nil {
		s.cfg.Logger.Error("failed to deserialize item", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) Remove(key string) bool {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(itemsBucket).Delete([]byte(key))
	})
	if err != nil {
		s.cfg.Logger.Error("failed to remove item", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) ClearAll() bool {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{itemsBucket, actionsBucket} {
			if err := tx.DeleteBucket(bucket); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Logger.Error("failed to clear store", "error", err)
		return false
	}
	return true
}

func (s *Store) MarkSynced(key string) bool {
	marked := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(itemsBucket)
		value := bucket.Get([]byte(key))
		if value == nil {
			return nil
		}
		var item store.Item
		if err := json.Unmarshal(value, &item); err != nil {
			return err
		}
		item.Synced = true
		item.Timestamp = s.now().UnixMilli()
		updated, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(key), updated); err != nil {
			return err
		}
		marked = true
		return nil
	})
	if err != nil {
		s.cfg.Logger.Error("failed to mark item synced", "key", key, "error", err)
		return false
	}
	return marked
}

func (s *Store) Stats() store.Stats {
	now := s.now()
	var stats store.Stats
	var lastSync int64
	err := s.db.View(func(tx *bolt.Tx) error {
		items := tx.Bucket(itemsBucket)
		if err := items.ForEach(func(key, value []byte) error {
			var item store.Item
			if err := json.Unmarshal(value, &item); err != nil {
				return nil // skip unreadable entries
			}
			if item.Expired(now, s.cfg.MaxAge) {
				return nil
			}
			stats.ItemCount++
			stats.SizeBytes += int64(len(key) + len(value))
			if item.Synced && item.Timestamp > lastSync {
				lastSync = item.Timestamp
			}
			return nil
		}); err != nil {
			return err
		}

		actions := tx.Bucket(actionsBucket)
		return actions.ForEach(func(key, value []byte) error {
			stats.PendingActions++
			stats.SizeBytes += int64(len(value))
			return nil
		})
	})
	if err != nil {
		s.cfg.Logger.Error("failed to compute stats", "error", err)
		return store.Stats{}
	}
	if lastSync > 0 {
		stats.LastSync = mo.Some(time.UnixMilli(lastSync))
	}
	return stats
}

func (s *Store) Enqueue(action store.Action) bool {
	value, err := json.Marshal(action)
	if err != nil {
		s.cfg.Logger.Error("failed to serialize action", "action", action.ID, "error", err)
		return false
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(actionsBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return bucket.Put(seqKey(seq), value)
	})
	if err != nil {
		s.cfg.Logger.Error("failed to enqueue action", "action", action.ID, "error", err)
		return false
	}
	return true
}

func (s *Store) Actions() []store.Action {
	var actions []store.Action
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(actionsBucket).ForEach(func(key, value []byte) error {
			var action store.Action
			if err := json.Unmarshal(value, &action); err != nil {
				s.cfg.Logger.Error("skipping unreadable action", "error", err)
				return nil
			}
			actions = append(actions, action)
			return nil
		})
	})
	if err != nil {
		s.cfg.Logger.Error("failed to list actions", "error", err)
		return nil
	}
	return actions
}

func (s *Store) RemoveAction(id string) bool {
	removed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(actionsBucket)
		cursor := bucket.Cursor()
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			var action store.Action
			if err := json.Unmarshal(value, &action); err != nil {
				continue
			}
			if action.ID == id {
				if err := bucket.Delete(key); err != nil {
					return err
				}
				removed = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Logger.Error("failed to remove action", "action", id, "error", err)
		return false
	}
	return removed
}

func (s *Store) ExportBackup() []byte {
	items := make(map[string]store.Item)
	var actions []store.Action
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := tx.Bucket(itemsBucket).ForEach(func(key, value []byte) error {
			var item store.Item
			if err := json.Unmarshal(value, &item); err != nil {
				return err
			}
			items[string(key)] = item
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(actionsBucket).ForEach(func(key, value []byte) error {
			var action store.Action
			if err := json.Unmarshal(value, &action); err != nil {
				return err
			}
			actions = append(actions, action)
			return nil
		})
	})
	if err != nil {
		s.cfg.Logger.Error("failed to export backup", "error", err)
		return nil
	}
	data, err := store.EncodeSnapshot(items, actions, s.now())
	if err != nil {
		s.cfg.Logger.Error("failed to encode backup", "error", err)
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

	// Single transaction: either the whole snapshot lands or nothing does.
	err = s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{itemsBucket, actionsBucket} {
			if err := tx.DeleteBucket(bucket); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		items := tx.Bucket(itemsBucket)
		for key, item := range snap.Items {
			value, err := json.Marshal(item)
			if err != nil {
				return err
			}
			if err := items.Put([]byte(key), value); err != nil {
				return err
			}
		}
		actions := tx.Bucket(actionsBucket)
		for _, action := range snap.Actions {
			value, err := json.Marshal(action)
			if err != nil {
				return err
			}
			seq, err := actions.NextSequence()
			if err != nil {
				return err
			}
			if err := actions.Put(seqKey(seq), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.cfg.Logger.Error("failed to import backup", "error", err)
		return false
	}
	return true
}

func (s *Store) Close() error {
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
