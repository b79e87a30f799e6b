// Package connectivity tracks the host environment's online/offline signal.
//
// The monitor performs no probing of its own: the host feeds transitions in
// through Set, and interested components subscribe to be told about them.
package connectivity

import (
	"io"
	"log/slog"
	"sync"
)

// Monitor holds the current connectivity state and fans transitions out to
// subscribers.
type Monitor struct {
	mu     sync.RWMutex
	online bool
	nextID int
	subs   map[int]func(online bool)
	logger *slog.Logger
}

// New creates a monitor with the given initial state. If logger is nil,
// logs are dropped.
func New(online bool, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Monitor{
		online: online,
		subs:   make(map[int]func(bool)),
		logger: logger,
	}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Set records a state reported by the host. Subscribers are notified only
// on actual transitions; repeated reports of the same state are ignored.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	m.logger.Info("connectivity changed", "online", online)
	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers fn to be called on every transition. The returned
// cancel function removes the subscription.
func (m *Monitor) Subscribe(fn func(online bool)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}
