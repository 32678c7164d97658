// Package storage contains key-value stores and a durable SyncJob built on
// top of them.
package storage

import "context"

// Store abstracts low-level key-value operations so that Job can work with
// different database backends.
type Store interface {
	// Get returns a value by key, nil value and nil error mean the key is
	// missing.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// Put stores a key-value pair.
	Put(ctx context.Context, key, value []byte) error
	// Has checks if a key exists.
	Has(ctx context.Context, key []byte) (bool, error)
	// Batch returns a new batch for atomic writes.
	Batch() Batch
	// Close releases the store, it is safe to call it more than once.
	Close() error
}

// Batch collects writes which are applied atomically by Write. Stores
// without native cancellation check ctx before touching the database.
type Batch interface {
	Put(key, value []byte)
	Write(ctx context.Context) error
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	res := make([]byte, len(b))
	copy(res, b)

	return res
}
