package storage

import (
	"context"
	"sync"

	"github.com/jrsteele09/farma-console/internal/errors"
)

// InMemory is a thread-safe in-memory implementation of Store
type InMemory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates a new in-memory store
func NewInMemory() *InMemory {
	return &InMemory{
		values: make(map[string]string),
	}
}

func (m *InMemory) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.ErrKeyRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return "", errors.ErrNotFound
	}
	return value, nil
}

func (m *InMemory) Set(_ context.Context, key, value string) error {
	if key == "" {
		return errors.ErrKeyRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *InMemory) Remove(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrKeyRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key) // Already doesn't exist, no error
	return nil
}

// Len returns the number of stored keys
func (m *InMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
