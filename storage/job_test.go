package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/lukchat"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

func TestJob(t *testing.T) {
	ctx := context.Background()
	blocks := testChain(t, 4)

	for driver, s := range testStores(t) {
		t.Run(string(driver), func(t *testing.T) {
			job := NewJob[testPayload](s, decodeTestPayload, zaptest.NewLogger(t))

			n, err := job.Len(ctx)
			require.NoError(t, err)
			require.Equal(t, 0, n)

			c, err := job.Chain(ctx)
			require.NoError(t, err)
			require.Equal(t, 0, c.Len())

			for _, b := range blocks {
				require.NoError(t, job.WriteBlock(ctx, b))
			}

			t.Run("idempotent", func(t *testing.T) {
				require.NoError(t, job.WriteBlock(ctx, blocks[1]))

				n, err := job.Len(ctx)
				require.NoError(t, err)
				require.Equal(t, len(blocks), n)
			})

			t.Run("replay", func(t *testing.T) {
				actual, err := job.Blocks(ctx)
				require.NoError(t, err)
				require.Len(t, actual, len(blocks))
				for i := range blocks {
					require.Equal(t, blocks[i].Hash(), actual[i].Hash())
					require.Equal(t, blocks[i].Payload(), actual[i].Payload())
				}
			})

			t.Run("get", func(t *testing.T) {
				b, ok, err := job.Get(ctx, blocks[2].Hash())
				require.NoError(t, err)
				require.True(t, ok)
				require.Equal(t, blocks[2].Hash(), b.Hash())

				_, ok, err = job.Get(ctx, lukchat.Block[testPayload]{}.Hash())
				require.NoError(t, err)
				require.False(t, ok)
			})

			t.Run("chain", func(t *testing.T) {
				c, err := job.Chain(ctx)
				require.NoError(t, err)
				require.Equal(t, len(blocks), c.Len())
				for _, b := range blocks {
					require.True(t, c.InChain(b))
				}
			})
		})
	}
}

func TestJob_Fork(t *testing.T) {
	ctx := context.Background()
	blocks := testChain(t, 2)
	job := NewJob[testPayload](NewMemoryStore(), decodeTestPayload, nil)

	for _, b := range blocks {
		require.NoError(t, job.WriteBlock(ctx, b))
	}

	fork, err := lukchat.NewBlock(blocks[0].Hash(), testPayload(10))
	require.NoError(t, err)
	require.NoError(t, job.WriteBlock(ctx, fork))

	all, err := job.Blocks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	c, err := job.Chain(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	require.True(t, c.InChain(fork))
	require.False(t, c.InChain(blocks[1]))
}

func TestJob_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewJob[testPayload](NewMemoryStore(), decodeTestPayload, nil)
	err := job.WriteBlock(ctx, testChain(t, 0)[0])
	require.ErrorIs(t, err, context.Canceled)

	n, err := job.Len(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = job.Len(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestJob_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "leveldb")
	blocks := testChain(t, 3)

	s, err := NewLevelDBStore(dir)
	require.NoError(t, err)

	job := NewJob[testPayload](s, decodeTestPayload, nil)
	for _, b := range blocks {
		require.NoError(t, job.WriteBlock(ctx, b))
	}
	require.NoError(t, s.Close())

	s, err = NewLevelDBStore(dir)
	require.NoError(t, err)
	defer s.Close()

	c, err := NewJob[testPayload](s, decodeTestPayload, nil).Chain(ctx)
	require.NoError(t, err)
	require.Equal(t, len(blocks), c.Len())

	tail, ok := c.Tail()
	require.True(t, ok)
	require.Equal(t, blocks[len(blocks)-1].Hash(), tail.Hash())
}

func TestJob_SharedByNodes(t *testing.T) {
	const nodes = 4

	ctx := context.Background()
	blocks := testChain(t, 8)
	job := NewJob[testPayload](NewMemoryStore(), decodeTestPayload, nil)

	var eg errgroup.Group
	for range nodes {
		eg.Go(func() error {
			for _, b := range blocks {
				if err := job.WriteBlock(ctx, b); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	n, err := job.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, len(blocks), n)
}
