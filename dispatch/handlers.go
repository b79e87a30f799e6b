package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rsoares/liboffsync/remote"
	"github.com/rsoares/liboffsync/store"
)

// Resource kinds the product queues mutations for.
const (
	ResourceEvent          = "event"
	ResourceCalendar       = "calendar"
	ResourceFinancialEvent = "financial_event"
	ResourceProfile        = "profile"
)

// resourceHandler maps an action's verb to the corresponding remote call
// for one resource kind. UPDATE and DELETE are always scoped to the
// record's (id, owner) pair.
type resourceHandler struct {
	kind     string
	remote   remote.Store
	required []string // payload fields a CREATE must carry
}

// NewEventHandler handles calendar events.
func NewEventHandler(rs remote.Store) Handler {
	return &resourceHandler{kind: ResourceEvent, remote: rs, required: []string{"title", "start", "end"}}
}

// NewCalendarHandler handles calendar collections.
func NewCalendarHandler(rs remote.Store) Handler {
	return &resourceHandler{kind: ResourceCalendar, remote: rs, required: []string{"name"}}
}

// NewFinancialEventHandler handles ledger entries.
func NewFinancialEventHandler(rs remote.Store) Handler {
	return &resourceHandler{kind: ResourceFinancialEvent, remote: rs, required: []string{"amount"}}
}

// NewProfileHandler handles the user profile.
func NewProfileHandler(rs remote.Store) Handler {
	return &resourceHandler{kind: ResourceProfile, remote: rs}
}

// RegisterDefaults installs the product's built-in resource handlers.
func RegisterDefaults(d *Dispatcher, rs remote.Store) {
	d.Register(ResourceEvent, NewEventHandler(rs))
	d.Register(ResourceCalendar, NewCalendarHandler(rs))
	d.Register(ResourceFinancialEvent, NewFinancialEventHandler(rs))
	d.Register(ResourceProfile, NewProfileHandler(rs))
}

func (h *resourceHandler) Execute(ctx context.Context, action store.Action) error {
	var rec remote.Record
	if err := json.Unmarshal(action.Data, &rec); err != nil {
		return fmt.Errorf("malformed %s payload in action %s: %w", h.kind, action.ID, err)
	}

	switch action.Type {
	case store.ActionCreate:
		for _, field := range h.required {
			if _, ok := rec[field]; !ok {
				return fmt.Errorf("%s create missing required field %q (action %s)", h.kind, field, action.ID)
			}
		}
		_, err := h.remote.Create(ctx, h.kind, rec)
		return err

	case store.ActionUpdate:
		id, owner, err := h.scope(rec, action)
		if err != nil {
			return err
		}
		_, err = h.remote.Update(ctx, h.kind, id, owner, rec)
		return err

	case store.ActionDelete:
		id, owner, err := h.scope(rec, action)
		if err != nil {
			return err
		}
		return h.remote.Delete(ctx, h.kind, id, owner)

	default:
		return fmt.Errorf("unknown action type %q on %s (action %s)", action.Type, h.kind, action.ID)
	}
}

// scope extracts the (id, owner) pair an UPDATE or DELETE must carry.
func (h *resourceHandler) scope(rec remote.Record, action store.Action) (id, owner string, err error) {
	id = rec.ID()
	if id == "" {
		return "", "", fmt.Errorf("%s %s missing record id (action %s)", h.kind, action.Type, action.ID)
	}
	owner = rec.Owner()
	if owner == "" {
		return "", "", fmt.Errorf("%s %s missing owning user (action %s)", h.kind, action.Type, action.ID)
	}
	return id, owner, nil
}
