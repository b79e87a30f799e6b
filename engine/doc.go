/*
Package engine orchestrates offline-first synchronization for the agenda
product: mutations made while disconnected are queued durably, mirrored into
the local cache, and replayed in order against the remote store once
connectivity returns.

# Basic Usage

	st := memory.New() // or bolt.Open(".agenda/cache.db")
	monitor := connectivity.New(false, nil)
	d := dispatch.New(nil)
	dispatch.RegisterDefaults(d, remoteStore)

	eng := engine.New(st, d, monitor, engine.DefaultConfig)
	defer eng.Close()

	// UI mutation while offline: queued and mirrored locally.
	id, _ := eng.Submit(ctx, store.ActionCreate, dispatch.ResourceEvent, remote.Record{
		"title": "Plantão UTI",
		"start": "2025-03-01T19:00",
		"end":   "2025-03-02T07:00",
	})

	// Host reports connectivity back: the queue drains automatically.
	monitor.Set(true)

# Replay Semantics

The pending log is replayed in enqueue order; callers must enqueue
mutations for one logical entity in causal order. Each action is removed
from the log the moment the remote store confirms it, so an interrupted
drain never replays applied actions. Failed actions stay queued and are
retried on the next online transition or manual Drain call — delivery is
at-least-once, and idempotency is the remote store's concern.

Failures are isolated per action: a malformed or rejected action is
reported in the drain summary without blocking the actions behind it.
*/
package engine
