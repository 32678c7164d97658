package storage

import (
	"context"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

// BadgerStore is a Store backed by BadgerDB.
type BadgerStore struct {
	once sync.Once
	db   *badgerdb.DB
}

type badgerBatch struct {
	db   *badgerdb.DB
	keys [][]byte
	vals [][]byte
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore opens BadgerDB in the directory. An empty directory opens
// an in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badgerdb.DefaultOptions(dir).
		WithSyncWrites(true).
		WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "can't open BadgerDB")
	}

	return &BadgerStore{db: db}, nil
}

// Get implements Store interface.
func (s *BadgerStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, nil
	}

	return value, err
}

// Put implements Store interface.
func (s *BadgerStore) Put(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
}

// Has implements Store interface.
func (s *BadgerStore) Has(ctx context.Context, key []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badgerdb.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Batch implements Store interface. Writes of a batch are applied in a
// single transaction.
func (s *BadgerStore) Batch() Batch {
	return &badgerBatch{db: s.db}
}

// Close implements Store interface.
func (s *BadgerStore) Close() error {
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})

	return err
}

func (b *badgerBatch) Put(key, value []byte) {
	b.keys = append(b.keys, cloneBytes(key))
	b.vals = append(b.vals, cloneBytes(value))
}

func (b *badgerBatch) Write(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		for i := range b.keys {
			if err := txn.Set(b.keys[i], b.vals[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
