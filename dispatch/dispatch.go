// Package dispatch maps pending actions to remote-execution routines.
//
// Resource kinds are routed through a registered-handler map, so adding a
// new kind means registering a handler rather than growing a switch
// statement somewhere central.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rsoares/liboffsync/store"
)

// ErrUnknownResource is returned when no handler is registered for an
// action's resource kind. The action is fatal for itself, not for the batch.
var ErrUnknownResource = errors.New("unknown resource kind")

// Handler executes one pending action against the remote store.
type Handler interface {
	Execute(ctx context.Context, action store.Action) error
}

// Dispatcher routes actions to handlers by resource kind.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *slog.Logger
}

// New creates an empty dispatcher. If logger is nil, logs are dropped.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register installs the handler for a resource kind, replacing any previous
// registration.
func (d *Dispatcher) Register(resource string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[resource] = h
}

// Execute routes the action to its resource handler. Unknown resource kinds
// fail fast with a descriptive error.
func (d *Dispatcher) Execute(ctx context.Context, action store.Action) error {
	d.mu.RLock()
	h, ok := d.handlers[action.Resource]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q (action %s)", ErrUnknownResource, action.Resource, action.ID)
	}

	d.logger.Debug("dispatching action",
		"action", action.ID,
		"type", action.Type,
		"resource", action.Resource)
	return h.Execute(ctx, action)
}
