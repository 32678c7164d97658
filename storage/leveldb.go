package storage

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBStore is a Store backed by LevelDB.
type LevelDBStore struct {
	once sync.Once
	db   *leveldb.DB
}

type levelDBBatch struct {
	batch *leveldb.Batch
	db    *leveldb.DB
}

var _ Store = (*LevelDBStore)(nil)

// NewLevelDBStore opens LevelDB database in the directory.
func NewLevelDBStore(dir string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrap(err, "can't open LevelDB")
	}

	return &LevelDBStore{db: db}, nil
}

// Get implements Store interface.
func (s *LevelDBStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := s.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return value, nil
}

// Put implements Store interface.
func (s *LevelDBStore) Put(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Put(key, value, nil)
}

// Has implements Store interface.
func (s *LevelDBStore) Has(ctx context.Context, key []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return s.db.Has(key, nil)
}

// Batch implements Store interface.
func (s *LevelDBStore) Batch() Batch {
	return &levelDBBatch{
		batch: new(leveldb.Batch),
		db:    s.db,
	}
}

// Close implements Store interface.
func (s *LevelDBStore) Close() error {
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})

	return err
}

func (b *levelDBBatch) Put(key, value []byte) {
	b.batch.Put(key, value)
}

func (b *levelDBBatch) Write(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Write(b.batch, nil)
}
