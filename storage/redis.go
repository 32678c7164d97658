package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis. All keys are stored under a common
// prefix so that several stores can share one database.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type redisBatch struct {
	store  *RedisStore
	keys   []string
	values [][]byte
}

var _ Store = (*RedisStore)(nil)

const redisPingTimeout = 5 * time.Second

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "can't connect to Redis")
	}

	return &RedisStore{
		client: client,
		prefix: opts.Prefix,
	}, nil
}

func (s *RedisStore) key(key []byte) string {
	return s.prefix + string(key)
}

// Get implements Store interface.
func (s *RedisStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	return value, nil
}

// Put implements Store interface.
func (s *RedisStore) Put(ctx context.Context, key, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

// Has implements Store interface.
func (s *RedisStore) Has(ctx context.Context, key []byte) (bool, error) {
	count, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Batch implements Store interface. The batch is sent as a MULTI/EXEC
// transaction.
func (s *RedisStore) Batch() Batch {
	return &redisBatch{store: s}
}

// Close implements Store interface.
func (s *RedisStore) Close() error {
	err := s.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}

	return err
}

func (b *redisBatch) Put(key, value []byte) {
	b.keys = append(b.keys, b.store.key(key))
	b.values = append(b.values, cloneBytes(value))
}

func (b *redisBatch) Write(ctx context.Context) error {
	_, err := b.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := range b.keys {
			pipe.Set(ctx, b.keys[i], b.values[i], 0)
		}
		return nil
	})

	return err
}
