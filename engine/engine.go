package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/rsoares/liboffsync/connectivity"
	"github.com/rsoares/liboffsync/dispatch"
	"github.com/rsoares/liboffsync/remote"
	"github.com/rsoares/liboffsync/store"
)

// Config carries the orchestrator's tuning knobs.
type Config struct {
	// MaxErrorDetails caps how many per-action failures are quoted in the
	// drain error summary.
	MaxErrorDetails int
	// ActionDelay, when set, is a pause between replayed actions. The
	// product uses it to rate-limit bursts against the remote store.
	ActionDelay time.Duration
	// Logger receives drain progress and failures. When nil, logs are
	// dropped.
	Logger *slog.Logger
}

// DefaultConfig quotes at most three failures per drain summary.
var DefaultConfig = Config{
	MaxErrorDetails: 3,
}

// Engine is the sync orchestrator: it owns the local store and pending log,
// replays queued actions when connectivity returns, and derives the status
// the UI renders.
type Engine struct {
	store      store.Store
	dispatcher *dispatch.Dispatcher
	monitor    *connectivity.Monitor
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time

	syncing     atomic.Bool
	unsubscribe func()

	mu       sync.Mutex
	lastSync mo.Option[time.Time]
	lastErr  string
}

// New wires an engine to its store, dispatcher and connectivity monitor.
// The engine subscribes to the monitor: a transition to online with a
// non-empty pending log triggers exactly one drain.
func New(st store.Store, d *dispatch.Dispatcher, m *connectivity.Monitor, cfg Config) *Engine {
	if cfg.MaxErrorDetails == 0 {
		cfg.MaxErrorDetails = DefaultConfig.MaxErrorDetails
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine{
		store:      st,
		dispatcher: d,
		monitor:    m,
		cfg:        cfg,
		logger:     cfg.Logger,
		now:        time.Now,
	}
	e.unsubscribe = m.Subscribe(func(online bool) {
		if !online {
			return
		}
		if len(st.Actions()) == 0 {
			return
		}
		go e.Drain(context.Background())
	})
	return e
}

// Close detaches the engine from the connectivity monitor. An in-flight
// drain runs to completion.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
}

// Submit records a mutation. Online, it is written straight to the remote
// store; offline (or if the online write fails), it is appended to the
// pending log. Either way the record is mirrored into the local store so
// the UI keeps rendering it.
//
// Offline-created records get a client-assigned UUID up front, so later
// actions on the same entity and any dependent records can reference a
// stable id that survives the eventual sync.
func (e *Engine) Submit(ctx context.Context, typ store.ActionType, resource string, rec remote.Record) (string, error) {
	rec = rec.Clone()
	id := rec.ID()
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to serialize %s payload: %w", resource, err)
	}
	action := store.Action{
		ID:        uuid.NewString(),
		Type:      typ,
		Resource:  resource,
		Data:      data,
		Timestamp: e.now().UnixMilli(),
	}

	if e.monitor.Online() {
		err := e.runAction(ctx, action)
		if err == nil {
			e.mirror(resource, id, typ, rec)
			e.store.MarkSynced(mirrorKey(resource, id))
			return id, nil
		}
		e.logger.Warn("online write failed, queueing for retry",
			"resource", resource, "id", id, "error", err)
	}

	if !e.store.Enqueue(action) {
		return "", fmt.Errorf("failed to queue %s %s", resource, typ)
	}
	e.mirror(resource, id, typ, rec)
	return id, nil
}

// Drain replays the current snapshot of the pending log in enqueue order.
// It returns true iff every pending action succeeded. Failed actions stay
// queued and are retried on the next trigger; one bad action never blocks
// the rest. A drain requested while another is in flight is coalesced.
func (e *Engine) Drain(ctx context.Context) bool {
	if !e.monitor.Online() {
		e.setError("no connection")
		return false
	}

	actions := e.store.Actions()
	if len(actions) == 0 {
		return true
	}

	if !e.syncing.CompareAndSwap(false, true) {
		// Another drain is in flight; it picked up everything enqueued
		// before it started, and a fresh online transition re-triggers.
		return false
	}
	defer e.syncing.Store(false)

	e.logger.Info("draining pending actions", "count", len(actions))

	var failures []string
	for _, action := range actions {
		if e.cfg.ActionDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(e.cfg.ActionDelay):
			}
		}

		if err := e.runAction(ctx, action); err != nil {
			e.logger.Warn("action failed, keeping queued",
				"action", action.ID,
				"type", action.Type,
				"resource", action.Resource,
				"error", err)
			failures = append(failures, fmt.Sprintf("%s %s: %v", action.Type, action.Resource, err))
			continue
		}

		// Remove immediately so a crash mid-drain never replays an
		// action the remote store already applied.
		e.store.RemoveAction(action.ID)
		e.markMirrorSynced(action)
	}

	if len(failures) == 0 {
		e.mu.Lock()
		e.lastSync = mo.Some(e.now())
		e.lastErr = ""
		e.mu.Unlock()
		e.logger.Info("drain complete", "synced", len(actions))
		return true
	}

	e.setError(summarize(failures, e.cfg.MaxErrorDetails))
	e.logger.Warn("drain finished with failures",
		"failed", len(failures),
		"synced", len(actions)-len(failures))
	return false
}

// Status derives the current sync status. Nothing here is persisted; the
// pending count always reflects the live log.
func (e *Engine) Status() Status {
	e.mu.Lock()
	lastSync, lastErr := e.lastSync, e.lastErr
	e.mu.Unlock()

	return Status{
		Online:         e.monitor.Online(),
		Syncing:        e.syncing.Load(),
		LastSync:       lastSync,
		PendingActions: len(e.store.Actions()),
		Error:          lastErr,
	}
}

// runAction executes one action, converting handler panics into errors so
// nothing escapes the drain loop.
func (e *Engine) runAction(ctx context.Context, action store.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s panicked: %v", action.ID, r)
		}
	}()
	return e.dispatcher.Execute(ctx, action)
}

// mirror keeps the local cache showing the submitted state.
func (e *Engine) mirror(resource, id string, typ store.ActionType, rec remote.Record) {
	key := mirrorKey(resource, id)
	if typ == store.ActionDelete {
		e.store.Remove(key)
		return
	}
	e.store.Save(key, rec)
}

func (e *Engine) markMirrorSynced(action store.Action) {
	var rec remote.Record
	if err := json.Unmarshal(action.Data, &rec); err != nil {
		return
	}
	if id := rec.ID(); id != "" {
		e.store.MarkSynced(mirrorKey(action.Resource, id))
	}
}

func (e *Engine) setError(msg string) {
	e.mu.Lock()
	e.lastErr = msg
	e.mu.Unlock()
}

func mirrorKey(resource, id string) string {
	return resource + "/" + id
}

func summarize(failures []string, max int) string {
	quoted := failures
	if len(quoted) > max {
		quoted = quoted[:max]
	}
	summary := fmt.Sprintf("%d actions failed: %s", len(failures), strings.Join(quoted, "; "))
	if len(failures) > max {
		summary += fmt.Sprintf(" (+%d more)", len(failures)-max)
	}
	return summary
}
