package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rsoares/liboffsync/remote"
	remotemem "github.com/rsoares/liboffsync/remote/memory"
	"github.com/rsoares/liboffsync/store"
)

func action(typ store.ActionType, resource string, payload map[string]any) store.Action {
	data, _ := json.Marshal(payload)
	return store.Action{ID: "act-1", Type: typ, Resource: resource, Data: data}
}

func TestDispatcher_UnknownResource(t *testing.T) {
	d := New(nil)

	err := d.Execute(context.Background(), action(store.ActionCreate, "spaceship", nil))
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestDispatcher_RoutesToRegisteredHandler(t *testing.T) {
	rs := new(remote.MockStore)
	rs.On("Create", mock.Anything, ResourceEvent, mock.Anything).Return(remote.Record{"id": "evt-1"}, nil)

	d := New(nil)
	RegisterDefaults(d, rs)

	err := d.Execute(context.Background(), action(store.ActionCreate, ResourceEvent, map[string]any{
		"title": "Plantão UTI",
		"start": "2025-03-01T19:00",
		"end":   "2025-03-02T07:00",
	}))
	require.NoError(t, err)
	rs.AssertExpectations(t)
}

func TestHandler_CreateValidatesRequiredFields(t *testing.T) {
	rs := new(remote.MockStore)
	d := New(nil)
	RegisterDefaults(d, rs)

	err := d.Execute(context.Background(), action(store.ActionCreate, ResourceEvent, map[string]any{
		"title": "missing times",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start")
	rs.AssertNotCalled(t, "Create")
}

func TestHandler_UpdateRequiresScope(t *testing.T) {
	rs := new(remote.MockStore)
	d := New(nil)
	RegisterDefaults(d, rs)
	ctx := context.Background()

	err := d.Execute(ctx, action(store.ActionUpdate, ResourceEvent, map[string]any{"title": "no id"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")

	err = d.Execute(ctx, action(store.ActionUpdate, ResourceEvent, map[string]any{"id": "evt-1"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owning user")

	rs.AssertNotCalled(t, "Update")
}

func TestHandler_VerbMapping(t *testing.T) {
	rs := remotemem.New()
	d := New(nil)
	RegisterDefaults(d, rs)
	ctx := context.Background()

	require.NoError(t, d.Execute(ctx, action(store.ActionCreate, ResourceFinancialEvent, map[string]any{
		"id": "fin-1", "userId": "alice", "amount": 1200.0,
	})))

	require.NoError(t, d.Execute(ctx, action(store.ActionUpdate, ResourceFinancialEvent, map[string]any{
		"id": "fin-1", "userId": "alice", "amount": 1500.0,
	})))
	rec, ok := rs.Get(ResourceFinancialEvent, "fin-1")
	require.True(t, ok)
	assert.Equal(t, 1500.0, rec["amount"])

	require.NoError(t, d.Execute(ctx, action(store.ActionDelete, ResourceFinancialEvent, map[string]any{
		"id": "fin-1", "userId": "alice",
	})))
	_, ok = rs.Get(ResourceFinancialEvent, "fin-1")
	assert.False(t, ok)
}

func TestHandler_MalformedPayload(t *testing.T) {
	rs := new(remote.MockStore)
	d := New(nil)
	RegisterDefaults(d, rs)

	err := d.Execute(context.Background(), store.Action{
		ID: "act-1", Type: store.ActionCreate, Resource: ResourceEvent,
		Data: json.RawMessage(`{not json`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestHandler_UnknownVerb(t *testing.T) {
	rs := new(remote.MockStore)
	d := New(nil)
	RegisterDefaults(d, rs)

	err := d.Execute(context.Background(), action("UPSERT", ResourceProfile, map[string]any{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action type")
}
