package remote

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore implements the Store interface for testing
type MockStore struct {
	mock.Mock
}

// Create implements the Store interface
func (m *MockStore) Create(ctx context.Context, kind string, rec Record) (Record, error) {
	args := m.Called(ctx, kind, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Record), args.Error(1)
}

// Update implements the Store interface
func (m *MockStore) Update(ctx context.Context, kind, id, ownerID string, rec Record) (Record, error) {
	args := m.Called(ctx, kind, id, ownerID, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Record), args.Error(1)
}

// Delete implements the Store interface
func (m *MockStore) Delete(ctx context.Context, kind, id, ownerID string) error {
	args := m.Called(ctx, kind, id, ownerID)
	return args.Error(0)
}
