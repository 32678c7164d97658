package storage

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/nspcc-dev/lukchat"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Key prefixes.
const (
	prefixBlock byte = 'b'
	prefixLog   byte = 'l'
	prefixTop   byte = 't'
)

// Job is a lukchat.SyncJob which writes blocks to a Store. Every new block
// is stored by its hash and appended to a write-ordered log, both in the
// same batch. Writing an already stored block is a no-op, so the job can be
// shared by several nodes.
type Job[T lukchat.Payload] struct {
	// mtx serializes log sequence allocation.
	mtx    sync.Mutex
	store  Store
	decode lukchat.PayloadDecoder[T]
	log    *zap.Logger
}

// NewJob returns a job over s. Decode is used to read blocks back.
func NewJob[T lukchat.Payload](s Store, decode lukchat.PayloadDecoder[T], log *zap.Logger) *Job[T] {
	if log == nil {
		log = zap.NewNop()
	}

	return &Job[T]{
		store:  s,
		decode: decode,
		log:    log,
	}
}

// WriteBlock implements lukchat.SyncJob interface.
func (j *Job[T]) WriteBlock(ctx context.Context, b lukchat.Block[T]) error {
	data, err := b.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "can't encode block")
	}

	h := b.Hash()

	j.mtx.Lock()
	defer j.mtx.Unlock()

	ok, err := j.store.Has(ctx, blockKey(h))
	if err != nil {
		return errors.Wrap(err, "can't check block")
	}
	if ok {
		j.log.Debug("block is already stored", zap.Stringer("hash", h))
		return nil
	}

	seq, err := j.top(ctx)
	if err != nil {
		return err
	}

	batch := j.store.Batch()
	batch.Put(blockKey(h), data)
	batch.Put(logKey(seq), h[:])
	batch.Put([]byte{prefixTop}, encodeSeq(seq+1))
	if err := batch.Write(ctx); err != nil {
		return errors.Wrap(err, "can't write block")
	}

	j.log.Debug("block stored",
		zap.Stringer("hash", h),
		zap.Uint64("seq", seq))

	return nil
}

// Len returns the number of stored blocks.
func (j *Job[T]) Len(ctx context.Context) (int, error) {
	j.mtx.Lock()
	defer j.mtx.Unlock()

	seq, err := j.top(ctx)
	return int(seq), err
}

// Get returns a stored block by hash.
func (j *Job[T]) Get(ctx context.Context, h util.Uint256) (lukchat.Block[T], bool, error) {
	data, err := j.store.Get(ctx, blockKey(h))
	if err != nil {
		return lukchat.Block[T]{}, false, errors.Wrapf(err, "can't get block %s", h)
	}
	if data == nil {
		return lukchat.Block[T]{}, false, nil
	}

	b, err := lukchat.DecodeBlock(data, j.decode)
	if err != nil {
		return lukchat.Block[T]{}, false, errors.Wrapf(err, "block %s", h)
	}
	if b.Hash() != h {
		return lukchat.Block[T]{}, false, errors.Errorf("block %s is corrupted", h)
	}

	return b, true, nil
}

// Blocks returns all stored blocks in the order they were written.
func (j *Job[T]) Blocks(ctx context.Context) ([]lukchat.Block[T], error) {
	n, err := j.Len(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]lukchat.Block[T], 0, n)
	for seq := range uint64(n) {
		h, err := j.logEntry(ctx, seq)
		if err != nil {
			return nil, err
		}

		b, ok, err := j.Get(ctx, h)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Errorf("missing block %s at #%d", h, seq)
		}
		res = append(res, b)
	}

	return res, nil
}

// Chain rebuilds the chain ending with the most recently written block.
// Blocks of other forks written by the shared job are not included.
func (j *Job[T]) Chain(ctx context.Context) (*lukchat.Chain[T], error) {
	n, err := j.Len(ctx)
	if err != nil || n == 0 {
		return lukchat.NewChain[T](), err
	}

	h, err := j.logEntry(ctx, uint64(n-1))
	if err != nil {
		return nil, err
	}

	var rev []lukchat.Block[T]
	for {
		b, ok, err := j.Get(ctx, h)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Errorf("missing block %s", h)
		}
		rev = append(rev, b)

		parent, ok := b.Parent()
		if !ok {
			break
		}
		if len(rev) > n {
			return nil, errors.New("parent reference loop")
		}
		h = parent
	}

	blocks := make([]lukchat.Block[T], len(rev))
	for i := range rev {
		blocks[len(rev)-1-i] = rev[i]
	}

	return lukchat.NewChainFrom(blocks...)
}

func (j *Job[T]) top(ctx context.Context) (uint64, error) {
	data, err := j.store.Get(ctx, []byte{prefixTop})
	switch {
	case err != nil:
		return 0, errors.Wrap(err, "can't read log top")
	case data == nil:
		return 0, nil
	case len(data) != 8:
		return 0, errors.Errorf("invalid log top length: %d", len(data))
	default:
		return binary.BigEndian.Uint64(data), nil
	}
}

func (j *Job[T]) logEntry(ctx context.Context, seq uint64) (util.Uint256, error) {
	var h util.Uint256

	data, err := j.store.Get(ctx, logKey(seq))
	if err != nil {
		return h, errors.Wrapf(err, "can't read log entry #%d", seq)
	}
	if len(data) != util.Uint256Size {
		return h, errors.Errorf("invalid log entry #%d", seq)
	}
	copy(h[:], data)

	return h, nil
}

func blockKey(h util.Uint256) []byte {
	return append([]byte{prefixBlock}, h[:]...)
}

func logKey(seq uint64) []byte {
	return append([]byte{prefixLog}, encodeSeq(seq)...)
}

func encodeSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)

	return b
}
