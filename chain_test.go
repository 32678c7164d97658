package lukchat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChain_Empty(t *testing.T) {
	c := NewChain[testPayload]()

	require.Equal(t, 0, c.Len())
	_, ok := c.Tail()
	require.False(t, ok)
	require.False(t, c.InChain(mustGenesis(t, 0)))

	other, err := NewChainFrom(mustGenesis(t, 0))
	require.NoError(t, err)
	require.Equal(t, 0.0, c.ChainOverlap(other))
	require.Equal(t, 0.0, c.ChainOverlap(c))
	require.Equal(t, 0.0, c.ChainOverlap(nil))
}

func TestChain_Append(t *testing.T) {
	ctx := context.Background()
	job := new(testJob)
	c := NewChain[testPayload]()
	g := mustGenesis(t, 0)

	t.Run("non-genesis block on empty chain", func(t *testing.T) {
		err := c.Append(ctx, mustBlock(t, g, 1), job)
		require.ErrorIs(t, err, ErrValidation)
		require.Equal(t, 0, c.Len())
	})

	require.NoError(t, c.Append(ctx, g, job))
	require.Equal(t, 1, c.Len())
	require.True(t, c.InChain(g))

	b1 := mustBlock(t, g, 1)
	require.NoError(t, c.Append(ctx, b1, job))
	require.Equal(t, 2, c.Len())
	require.True(t, c.InChain(b1))

	tail, ok := c.Tail()
	require.True(t, ok)
	require.Equal(t, b1.Hash(), tail.Hash())
	require.Equal(t, 2, job.count())

	t.Run("second genesis", func(t *testing.T) {
		err := c.Append(ctx, mustGenesis(t, 5), job)
		require.ErrorIs(t, err, ErrValidation)
		require.Equal(t, 2, c.Len())
	})

	t.Run("stale parent", func(t *testing.T) {
		b2 := mustBlock(t, b1, 2)
		require.NoError(t, c.Append(ctx, b2, job))

		b3 := mustBlock(t, b1, 3)
		err := c.Append(ctx, b3, job)
		require.ErrorIs(t, err, ErrValidation)
		require.Equal(t, 3, c.Len())
		require.False(t, c.InChain(b3))
	})

	t.Run("same block twice", func(t *testing.T) {
		tail, _ := c.Tail()
		err := c.Append(ctx, tail, job)
		require.ErrorIs(t, err, ErrValidation)
		require.Equal(t, 3, c.Len())
	})

	t.Run("persistence failure", func(t *testing.T) {
		tail, _ := c.Tail()
		jobErr := errors.New("disk is full")
		job.setError(jobErr)
		defer job.setError(nil)

		b := mustBlock(t, tail, 10)
		err := c.Append(ctx, b, job)
		require.ErrorIs(t, err, ErrPersistence)
		require.ErrorIs(t, err, jobErr)
		require.NotErrorIs(t, err, ErrValidation)

		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, b.Hash(), perr.Block)

		require.Equal(t, 3, c.Len())
		require.False(t, c.InChain(b))
	})

	t.Run("nil job", func(t *testing.T) {
		tail, _ := c.Tail()
		err := c.Append(ctx, mustBlock(t, tail, 11), nil)
		require.ErrorIs(t, err, ErrPersistence)
		require.Equal(t, 3, c.Len())
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		tail, _ := c.Tail()
		err := c.Append(cctx, mustBlock(t, tail, 12), job)
		require.ErrorIs(t, err, ErrPersistence)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 3, c.Len())
	})
}

func TestChain_Overlap(t *testing.T) {
	ctx := context.Background()
	job := new(testJob)

	g := mustGenesis(t, 0)
	a := NewChain[testPayload]()
	require.NoError(t, a.Append(ctx, g, job))
	require.Equal(t, 1.0, a.ChainOverlap(a))

	b1 := mustBlock(t, g, 1)
	require.NoError(t, a.Append(ctx, b1, job))
	require.Equal(t, 2, a.Len())
	require.True(t, a.InChain(b1))

	b2 := mustBlock(t, g, 2)
	c := NewChain[testPayload]()
	require.NoError(t, c.Append(ctx, g, job))
	require.NoError(t, c.Append(ctx, b2, job))

	require.Equal(t, 1.0, a.ChainOverlap(a))
	require.Equal(t, 0.5, a.ChainOverlap(c))
	require.Equal(t, 0.5, c.ChainOverlap(a))

	t.Run("prefix", func(t *testing.T) {
		longer := a.Clone()
		require.NoError(t, longer.Append(ctx, mustBlock(t, b1, 3), job))

		require.Equal(t, 1.0, a.ChainOverlap(longer))
		require.InDelta(t, 2.0/3.0, longer.ChainOverlap(a), 1e-9)
	})

	t.Run("disjoint", func(t *testing.T) {
		d, err := NewChainFrom(mustGenesis(t, 100))
		require.NoError(t, err)
		require.Equal(t, 0.0, a.ChainOverlap(d))
	})
}

func TestChain_NewChainFrom(t *testing.T) {
	g := mustGenesis(t, 0)
	b1 := mustBlock(t, g, 1)
	b2 := mustBlock(t, b1, 2)

	c, err := NewChainFrom(g, b1, b2)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	blocks := c.Blocks()
	require.Len(t, blocks, 3)
	for i, b := range []Block[testPayload]{g, b1, b2} {
		require.Equal(t, b.Hash(), blocks[i].Hash())

		bi, ok := c.Block(i)
		require.True(t, ok)
		require.Equal(t, b.Hash(), bi.Hash())
	}
	_, ok := c.Block(3)
	require.False(t, ok)
	_, ok = c.Block(-1)
	require.False(t, ok)

	_, err = NewChainFrom(g, b2)
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewChainFrom(b1)
	require.ErrorIs(t, err, ErrValidation)

	empty, err := NewChainFrom[testPayload]()
	require.NoError(t, err)
	require.Equal(t, 0, empty.Len())
}

func TestChain_Clone(t *testing.T) {
	ctx := context.Background()
	job := new(testJob)

	g := mustGenesis(t, 0)
	c, err := NewChainFrom(g)
	require.NoError(t, err)

	cc := c.Clone()
	require.NoError(t, cc.Append(ctx, mustBlock(t, g, 1), job))
	require.Equal(t, 1, c.Len())
	require.Equal(t, 2, cc.Len())

	blocks := c.Blocks()
	blocks[0] = mustGenesis(t, 9)
	require.True(t, c.InChain(g))
	first, _ := c.Block(0)
	require.Equal(t, g.Hash(), first.Hash())
}
