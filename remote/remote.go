// Package remote defines the boundary to the product's remote persistence
// service. The sync engine treats it as a set of opaque, authenticated CRUD
// calls per resource kind; transient and permanent failures are reported
// through the sentinel errors below and are both retried on the next drain.
package remote

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the addressed record doesn't exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput is returned when the payload fails remote validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPermissionDenied is returned when the record belongs to another user.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnavailable is returned on network or auth failures that may clear
	// up on their own.
	ErrUnavailable = errors.New("remote store unavailable")
)

// Record is an untyped row as exchanged with the remote store.
type Record map[string]any

// ID returns the record's id field, if it is a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Owner returns the record's owning-user field, if it is a string.
func (r Record) Owner() string {
	owner, _ := r["userId"].(string)
	return owner
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store is the remote persistence boundary. Update and Delete are always
// scoped to (id, ownerID) so one tenant can never mutate another's rows.
type Store interface {
	// Create inserts a record and returns it as stored (with any
	// server-assigned fields filled in).
	Create(ctx context.Context, kind string, rec Record) (Record, error)
	// Update replaces the record with the given id, scoped to its owner,
	// and returns the stored result.
	Update(ctx context.Context, kind, id, ownerID string, rec Record) (Record, error)
	// Delete removes the record with the given id, scoped to its owner.
	Delete(ctx context.Context, kind, id, ownerID string) error
}
