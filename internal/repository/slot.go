package repository

import (
	"context"
	"sync"
)

// Slot is a single-key value store. The whole catalog lives in one key, so a
// slot only needs whole-value reads, overwrites and removal.
type Slot interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put overwrites the value unconditionally.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Backend() string
	Close() error
}

// Pinger is implemented by slots backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

type MemorySlot struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: map[string][]byte{}}
}

func (s *MemorySlot) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemorySlot) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemorySlot) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemorySlot) Backend() string { return "memory" }

func (s *MemorySlot) Close() error { return nil }
