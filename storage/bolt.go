package storage

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// BoltStore is a Store backed by a single bbolt bucket.
type BoltStore struct {
	once sync.Once
	db   *bbolt.DB
}

type boltBatch struct {
	db   *bbolt.DB
	keys [][]byte
	vals [][]byte
}

var (
	_ Store = (*BoltStore)(nil)

	boltBucket = []byte("lukchat")
)

const boltOpenTimeout = time.Second

// NewBoltStore opens bbolt database file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, errors.Wrap(err, "can't open bbolt")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "can't create bucket")
	}

	return &BoltStore{db: db}, nil
}

// Get implements Store interface.
func (s *BoltStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		// Values are valid only inside the transaction.
		value = cloneBytes(tx.Bucket(boltBucket).Get(key))
		return nil
	})

	return value, err
}

// Put implements Store interface.
func (s *BoltStore) Put(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

// Has implements Store interface.
func (s *BoltStore) Has(ctx context.Context, key []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(boltBucket).Get(key) != nil
		return nil
	})

	return ok, err
}

// Batch implements Store interface.
func (s *BoltStore) Batch() Batch {
	return &boltBatch{db: s.db}
}

// Close implements Store interface.
func (s *BoltStore) Close() error {
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})

	return err
}

func (b *boltBatch) Put(key, value []byte) {
	b.keys = append(b.keys, cloneBytes(key))
	b.vals = append(b.vals, cloneBytes(value))
}

func (b *boltBatch) Write(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for i := range b.keys {
			if err := bucket.Put(b.keys[i], b.vals[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
