package storage

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore is a Store kept in memory. It is used in tests and
// simulations.
type MemoryStore struct {
	mtx    sync.RWMutex
	closed bool
	data   map[string][]byte
}

type memoryBatch struct {
	store *MemoryStore
	ops   map[string][]byte
}

var (
	_ Store = (*MemoryStore)(nil)

	errClosed = errors.New("store is closed")
)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get implements Store interface.
func (s *MemoryStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.closed {
		return nil, errClosed
	}

	return cloneBytes(s.data[string(key)]), nil
}

// Put implements Store interface.
func (s *MemoryStore) Put(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return errClosed
	}
	s.data[string(key)] = cloneBytes(value)

	return nil
}

// Has implements Store interface.
func (s *MemoryStore) Has(ctx context.Context, key []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.closed {
		return false, errClosed
	}
	_, ok := s.data[string(key)]

	return ok, nil
}

// Batch implements Store interface.
func (s *MemoryStore) Batch() Batch {
	return &memoryBatch{
		store: s,
		ops:   make(map[string][]byte),
	}
}

// Close implements Store interface.
func (s *MemoryStore) Close() error {
	s.mtx.Lock()
	s.closed = true
	s.mtx.Unlock()

	return nil
}

func (b *memoryBatch) Put(key, value []byte) {
	b.ops[string(key)] = cloneBytes(value)
}

func (b *memoryBatch) Write(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.store.mtx.Lock()
	defer b.store.mtx.Unlock()

	if b.store.closed {
		return errClosed
	}
	for k, v := range b.ops {
		b.store.data[k] = v
	}

	return nil
}
