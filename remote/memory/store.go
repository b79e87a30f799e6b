// memory based fake of the remote store, for tests and local development
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rsoares/liboffsync/remote"
)

// Store implements remote.Store with in-memory maps and last-writer-wins
// semantics.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]remote.Record // kind -> id -> record
	offline bool
}

// New creates an empty fake remote store.
func New() *Store {
	return &Store{records: make(map[string]map[string]remote.Record)}
}

// SetOffline makes every call fail with remote.ErrUnavailable, simulating a
// network outage.
func (s *Store) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

func (s *Store) Create(_ context.Context, kind string, rec remote.Record) (remote.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, remote.ErrUnavailable
	}

	stored := rec.Clone()
	if stored.ID() == "" {
		stored["id"] = uuid.NewString()
	}
	kindRecords, ok := s.records[kind]
	if !ok {
		kindRecords = make(map[string]remote.Record)
		s.records[kind] = kindRecords
	}
	kindRecords[stored.ID()] = stored
	return stored.Clone(), nil
}

func (s *Store) Update(_ context.Context, kind, id, ownerID string, rec remote.Record) (remote.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return nil, remote.ErrUnavailable
	}

	existing, err := s.lookup(kind, id, ownerID)
	if err != nil {
		return nil, err
	}

	stored := rec.Clone()
	stored["id"] = existing.ID()
	s.records[kind][id] = stored
	return stored.Clone(), nil
}

func (s *Store) Delete(_ context.Context, kind, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return remote.ErrUnavailable
	}

	if _, err := s.lookup(kind, id, ownerID); err != nil {
		return err
	}
	delete(s.records[kind], id)
	return nil
}

// Get returns the stored record, for test assertions.
func (s *Store) Get(kind, id string) (remote.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[kind][id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Count returns the number of stored records of a kind, for test assertions.
func (s *Store) Count(kind string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[kind])
}

// lookup must be called with the lock held.
func (s *Store) lookup(kind, id, ownerID string) (remote.Record, error) {
	rec, ok := s.records[kind][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", remote.ErrNotFound, kind, id)
	}
	if owner := rec.Owner(); owner != "" && owner != ownerID {
		return nil, fmt.Errorf("%w: %s/%s", remote.ErrPermissionDenied, kind, id)
	}
	return rec, nil
}
