package lukchat

import (
	"context"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/pkg/errors"
)

// Chain is an ordered append-only sequence of blocks, index 0 being the
// genesis block. Chain is not safe for concurrent use, Node serializes
// access to its own chain.
type Chain[T Payload] struct {
	blocks []Block[T]
	// index maps block hash to its position in blocks.
	index map[util.Uint256]int
}

// NewChain returns an empty chain.
func NewChain[T Payload]() *Chain[T] {
	return &Chain[T]{
		index: make(map[util.Uint256]int),
	}
}

// NewChainFrom builds a chain from an ordered list of blocks checking every
// link. It is used for peer snapshots and storage replay, no block is
// written anywhere.
func NewChainFrom[T Payload](blocks ...Block[T]) (*Chain[T], error) {
	c := NewChain[T]()
	for i := range blocks {
		if err := c.validate(blocks[i]); err != nil {
			return nil, errors.Wrapf(err, "block #%d", i)
		}
		c.push(blocks[i])
	}

	return c, nil
}

// Len returns the number of blocks in the chain.
func (c *Chain[T]) Len() int {
	return len(c.blocks)
}

// InChain checks whether a block with the same identity is present in the chain.
func (c *Chain[T]) InChain(b Block[T]) bool {
	return c.Contains(b.Hash())
}

// Contains checks whether a block with hash h is present in the chain.
func (c *Chain[T]) Contains(h util.Uint256) bool {
	_, ok := c.index[h]
	return ok
}

// ChainOverlap returns the fraction of this chain's blocks which are also
// present in other. It is 0 for an empty chain.
func (c *Chain[T]) ChainOverlap(other *Chain[T]) float64 {
	if len(c.blocks) == 0 || other == nil {
		return 0
	}

	var common int
	for i := range c.blocks {
		if other.InChain(c.blocks[i]) {
			common++
		}
	}

	return float64(common) / float64(len(c.blocks))
}

// Append validates that b extends the chain tail, durably writes it via job
// and only then pushes it to the chain. The chain is left untouched if
// either step fails.
func (c *Chain[T]) Append(ctx context.Context, b Block[T], job SyncJob[T]) error {
	if err := c.validate(b); err != nil {
		return err
	}

	if job == nil {
		return &PersistenceError{Block: b.Hash(), Err: errors.New("no sync job")}
	}

	if err := job.WriteBlock(ctx, b); err != nil {
		return &PersistenceError{Block: b.Hash(), Err: err}
	}

	c.push(b)

	return nil
}

// Tail returns the last block of the chain and false if the chain is empty.
func (c *Chain[T]) Tail() (Block[T], bool) {
	if len(c.blocks) == 0 {
		return Block[T]{}, false
	}

	return c.blocks[len(c.blocks)-1], true
}

// Block returns i-th block of the chain.
func (c *Chain[T]) Block(i int) (Block[T], bool) {
	if i < 0 || i >= len(c.blocks) {
		return Block[T]{}, false
	}

	return c.blocks[i], true
}

// Blocks returns a copy of chain blocks.
func (c *Chain[T]) Blocks() []Block[T] {
	res := make([]Block[T], len(c.blocks))
	copy(res, c.blocks)

	return res
}

// Clone returns a deep copy of the chain structure. Blocks are immutable
// and are shared.
func (c *Chain[T]) Clone() *Chain[T] {
	res := &Chain[T]{
		blocks: c.Blocks(),
		index:  make(map[util.Uint256]int, len(c.index)),
	}
	for h, i := range c.index {
		res.index[h] = i
	}

	return res
}

func (c *Chain[T]) validate(b Block[T]) error {
	tail, ok := c.Tail()
	parent, hasParent := b.Parent()

	switch {
	case !ok && hasParent:
		return errors.Wrapf(ErrValidation, "block %s has a parent, but the chain is empty", b.Hash())
	case ok && !hasParent:
		return errors.Wrapf(ErrValidation, "genesis block %s on a non-empty chain", b.Hash())
	case ok && parent != tail.Hash():
		return errors.Wrapf(ErrValidation, "block %s parent %s doesn't match tail %s",
			b.Hash(), parent, tail.Hash())
	}

	return nil
}

func (c *Chain[T]) push(b Block[T]) {
	c.index[b.Hash()] = len(c.blocks)
	c.blocks = append(c.blocks, b)
}
