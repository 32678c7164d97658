package lukchat

import (
	"bytes"

	"github.com/nspcc-dev/lukchat/crypto"
	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/pkg/errors"
)

// Block is an immutable unit of chain state. It references its parent by
// identity and is itself identified by a hash of the parent reference and
// the payload, so two blocks with the same parent and payload are the same
// block.
type Block[T Payload] struct {
	parent  *util.Uint256
	payload T
	// data is the payload encoding, it is never modified after construction.
	data []byte
	hash util.Uint256
}

// NewGenesis returns a parentless block carrying p.
func NewGenesis[T Payload](p T) (Block[T], error) {
	return newBlock(nil, p)
}

// NewBlock returns a block carrying p which extends the block with the
// parent hash.
func NewBlock[T Payload](parent util.Uint256, p T) (Block[T], error) {
	return newBlock(&parent, p)
}

func newBlock[T Payload](parent *util.Uint256, p T) (Block[T], error) {
	data, err := marshalPayload(p)
	if err != nil {
		return Block[T]{}, errors.Wrap(err, "can't marshal payload")
	}

	b := Block[T]{
		parent:  parent,
		payload: p,
		data:    data,
	}
	b.hash = crypto.Hash256(b.GetHashData())

	return b, nil
}

// marshalPayload turns a panicking MarshalBinary (e.g. of a nil pointer
// payload) into an error.
func marshalPayload[T Payload](p T) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, errors.Errorf("payload marshaling panicked: %v", r)
		}
	}()

	return p.MarshalBinary()
}

// DecodeBlock restores block from its binary representation. The hash is
// recalculated from the decoded contents. Only the canonical encoding, the
// one produced by MarshalBinary, is accepted.
func DecodeBlock[T Payload](data []byte, decode PayloadDecoder[T]) (Block[T], error) {
	r := io.NewBinReaderFromBuf(data)
	parent := r.ReadVarBytes()
	raw := r.ReadVarBytes()
	if r.Err != nil {
		return Block[T]{}, errors.Wrap(r.Err, "can't decode block")
	}

	p, err := decode(raw)
	if err != nil {
		return Block[T]{}, errors.Wrap(err, "can't decode payload")
	}

	var b Block[T]
	switch len(parent) {
	case 0:
		b, err = NewGenesis(p)
	case util.Uint256Size:
		var h util.Uint256
		copy(h[:], parent)
		b, err = NewBlock(h, p)
	default:
		return Block[T]{}, errors.Errorf("invalid parent hash length: %d", len(parent))
	}
	if err != nil {
		return Block[T]{}, err
	}

	enc, err := b.MarshalBinary()
	if err != nil {
		return Block[T]{}, err
	}
	if !bytes.Equal(enc, data) {
		return Block[T]{}, errors.New("non-canonical block encoding")
	}

	return b, nil
}

// Hash returns block identity.
func (b Block[T]) Hash() util.Uint256 {
	return b.hash
}

// Parent returns parent block hash and false for genesis block.
func (b Block[T]) Parent() (util.Uint256, bool) {
	if b.parent == nil {
		return util.Uint256{}, false
	}

	return *b.parent, true
}

// IsGenesis checks whether block has no parent.
func (b Block[T]) IsGenesis() bool {
	return b.parent == nil
}

// Payload returns a copy of block payload.
func (b Block[T]) Payload() T {
	return b.payload
}

// IsZero checks whether b is an uninitialized block.
func (b Block[T]) IsZero() bool {
	return b.data == nil && b.hash == util.Uint256{}
}

// GetHashData returns data for hashing. It must be an injection of the set
// of blocks to the set of byte slices, i.e:
// 1. It must have only one valid result for one block.
// 2. Two different blocks must have different hash data.
func (b Block[T]) GetHashData() []byte {
	w := io.NewBufBinWriter()
	b.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return nil
	}

	return w.Bytes()
}

// EncodeBinary implements io.Serializable interface.
func (b Block[T]) EncodeBinary(w *io.BinWriter) {
	if b.parent != nil {
		w.WriteVarBytes(b.parent[:])
	} else {
		w.WriteVarBytes(nil)
	}
	w.WriteVarBytes(b.data)
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (b Block[T]) MarshalBinary() ([]byte, error) {
	w := io.NewBufBinWriter()
	b.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return nil, w.Err
	}

	return w.Bytes(), nil
}
