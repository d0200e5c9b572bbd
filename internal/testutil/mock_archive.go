package testutil

import (
	"context"
	"fmt"
	"sync"

	"3tcapital/facturas_sri/internal/core/archive"
)

// MockArchiveStore is an in-memory archive.Store. The *Func fields override
// the default behaviour.
type MockArchiveStore struct {
	PutFunc          func(ctx context.Context, obj archive.Object) (string, error)
	PresignedURLFunc func(ctx context.Context, key string) (string, error)
	PingFunc         func(ctx context.Context) error

	mu      sync.Mutex
	objects map[string]archive.Object
	deleted []string
}

// Put stores obj under a sequential key unless PutFunc is set.
func (m *MockArchiveStore) Put(ctx context.Context, obj archive.Object) (string, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, obj)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string]archive.Object)
	}
	key := fmt.Sprintf("%s/object-%d", obj.UserID, len(m.objects)+len(m.deleted)+1)
	m.objects[key] = obj
	return key, nil
}

func (m *MockArchiveStore) PresignedURL(ctx context.Context, key string) (string, error) {
	if m.PresignedURLFunc != nil {
		return m.PresignedURLFunc(ctx, key)
	}
	return "https://archive.test/" + key, nil
}

func (m *MockArchiveStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockArchiveStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Stored returns the number of objects currently held.
func (m *MockArchiveStore) Stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Deleted returns the keys removed so far.
func (m *MockArchiveStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
