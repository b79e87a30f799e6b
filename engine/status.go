package engine

import (
	"time"

	"github.com/samber/mo"
)

// Status is the derived sync state the UI renders. It is computed on
// demand and never persisted.
type Status struct {
	// Online mirrors the connectivity monitor.
	Online bool
	// Syncing is true only while a drain is in flight. At most one drain
	// runs at a time.
	Syncing bool
	// LastSync is the completion time of the last fully successful drain.
	LastSync mo.Option[time.Time]
	// PendingActions counts mutations still waiting for replay.
	PendingActions int
	// Error is the last drain's failure summary, empty when the last
	// drain succeeded.
	Error string
}
