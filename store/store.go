// Package store defines the durable local cache and pending-action log used
// by the offline synchronization engine.
//
// A Store keeps two things: a key/value map of cached resources (each entry
// carrying a write timestamp and a synced flag) and an append-only log of
// mutations made while disconnected. Both are owned exclusively by the sync
// engine; UI code reads derived status and submits actions, it never touches
// the log directly.
//
// All operations follow a degrade-don't-throw contract: serialization or
// backend failures are logged and reported as false/nil results so that a
// broken cache can never crash the caller.
package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/samber/mo"
)

// ActionType is the verb of a pending mutation.
type ActionType string

const (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
)

// Item is a cached resource value with its bookkeeping.
type Item struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // milliseconds since epoch
	Synced    bool            `json:"synced"`
}

// Expired reports whether the item is older than maxAge at the given time.
func (it Item) Expired(now time.Time, maxAge time.Duration) bool {
	return now.UnixMilli()-it.Timestamp > maxAge.Milliseconds()
}

// Action is one queued mutation awaiting replay against the remote store.
type Action struct {
	ID        string          `json:"id"`
	Type      ActionType      `json:"type"`
	Resource  string          `json:"resource"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Stats summarizes the current contents of a Store.
type Stats struct {
	// SizeBytes is the serialized byte length of the item map plus the
	// pending log.
	SizeBytes int64
	// ItemCount counts unexpired cached items.
	ItemCount int
	// PendingActions counts queued mutations.
	PendingActions int
	// LastSync is the newest timestamp among synced items, if any.
	LastSync mo.Option[time.Time]
}

// Store is the persistence contract shared by the in-memory and bbolt
// backends.
//
// The pending log is strictly ordered: Actions returns entries in enqueue
// order, and callers must replay them in that order to preserve causal
// consistency for a single entity (a CREATE replays before a later UPDATE
// on the same id).
type Store interface {
	// Save writes data under key with the current timestamp. The synced
	// flag is taken from the configured connectivity source.
	Save(key string, data any) bool
	// Get unmarshals the value for key into dst. Entries older than the
	// retention window are evicted and reported as absent.
	Get(key string, dst any) bool
	Remove(key string) bool
	// ClearAll wipes both the item map and the pending log.
	ClearAll() bool
	// MarkSynced flags key as consistent with the remote store and
	// refreshes its timestamp. Returns false if key is absent.
	MarkSynced(key string) bool
	Stats() Stats

	// Enqueue appends an action to the pending log.
	Enqueue(action Action) bool
	// Actions returns the pending log in enqueue order.
	Actions() []Action
	// RemoveAction deletes the action with the given id, if present.
	RemoveAction(id string) bool

	// ExportBackup serializes the full store and pending log into a
	// versioned snapshot document. Returns nil on failure.
	ExportBackup() []byte
	// ImportBackup replaces the store contents from a snapshot. Unknown
	// snapshot versions are rejected without partially applying.
	ImportBackup(data []byte) bool

	Close() error
}

// Config carries the tuning knobs shared by Store backends.
type Config struct {
	// MaxAge is the retention window for cached items.
	MaxAge time.Duration
	// OnlineFunc reports current connectivity; it decides the synced flag
	// written by Save. When nil, writes are treated as offline.
	OnlineFunc func() bool
	// Logger receives storage failure reports. When nil, logs are dropped.
	Logger *slog.Logger
}

// DefaultConfig keeps cached items for 30 days.
var DefaultConfig = Config{
	MaxAge: 30 * 24 * time.Hour,
}

// Resolve fills in zero-valued fields with defaults.
func (c Config) Resolve() Config {
	if c.MaxAge == 0 {
		c.MaxAge = DefaultConfig.MaxAge
	}
	if c.OnlineFunc == nil {
		c.OnlineFunc = func() bool { return false }
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}
