package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotVersion tags the backup document format. Import rejects any
// document carrying a different version.
const SnapshotVersion = "1"

// ErrUnknownSnapshotVersion is returned when a backup document carries a
// version tag this build does not understand.
var ErrUnknownSnapshotVersion = errors.New("unknown backup snapshot version")

// Snapshot is the versioned backup document: the full item map and pending
// log plus an export timestamp.
type Snapshot struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Items      map[string]Item `json:"items"`
	Actions    []Action        `json:"actions"`
}

// EncodeSnapshot serializes a backup document for the given store contents.
func EncodeSnapshot(items map[string]Item, actions []Action, now time.Time) ([]byte, error) {
	if items == nil {
		items = map[string]Item{}
	}
	if actions == nil {
		actions = []Action{}
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: now.UTC(),
		Items:      items,
		Actions:    actions,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses and validates a backup document. The version tag is
// checked before anything else so that callers can refuse unknown formats
// without touching their own state.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSnapshotVersion, snap.Version)
	}
	return &snap, nil
}
