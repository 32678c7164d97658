// Package chatmsg contains a chat message used as a block payload.
package chatmsg

import (
	"fmt"

	"github.com/nspcc-dev/lukchat"
	"github.com/nspcc-dev/lukchat/crypto"
	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/pkg/errors"
)

// MaxBodySize is the maximum length of the message body in bytes.
const MaxBodySize = 1024

// Message is a chat message signed by its author. Author is the ID of Key,
// Seq is an author-local sequence number which makes equal texts different
// messages. The zero Message is unsigned and is used as genesis payload.
type Message struct {
	Author    util.Uint160
	Key       [crypto.PublicKeySize]byte
	Seq       uint32
	Body      string
	Signature [crypto.SignatureSize]byte
}

var (
	_ lukchat.PayloadDecoder[Message] = Decode
)

// New returns a new message signed with id's private key.
func New(id lukchat.Identity, seq uint32, body string) (Message, error) {
	if len(body) > MaxBodySize {
		return Message{}, errors.Errorf("message body is too big: %d > %d", len(body), MaxBodySize)
	}
	if id.PublicKey == nil || id.PrivateKey == nil {
		return Message{}, errors.New("author identity has no keys")
	}

	key, err := id.PublicKey.MarshalBinary()
	if err != nil {
		return Message{}, errors.Wrap(err, "can't marshal author key")
	}
	if len(key) != crypto.PublicKeySize {
		return Message{}, errors.Errorf("invalid author key length: %d", len(key))
	}

	m := Message{
		Author: crypto.Hash160(key),
		Seq:    seq,
		Body:   body,
	}
	copy(m.Key[:], key)

	sig, err := id.PrivateKey.Sign(m.signedData())
	if err != nil {
		return Message{}, errors.Wrap(err, "can't sign message")
	}
	copy(m.Signature[:], sig)

	return m, nil
}

// Verify checks that Author matches Key and the signature is valid.
func (m Message) Verify() error {
	if crypto.Hash160(m.Key[:]) != m.Author {
		return errors.New("author doesn't match the key")
	}

	pub := new(crypto.ECDSAPub)
	if err := pub.UnmarshalBinary(m.Key[:]); err != nil {
		return err
	}

	return errors.Wrap(pub.Verify(m.signedData(), m.Signature[:]), "invalid message signature")
}

func (m Message) encodeSigned(w *io.BinWriter) {
	w.WriteBytes(m.Author[:])
	w.WriteBytes(m.Key[:])
	w.WriteU32LE(m.Seq)
	w.WriteVarBytes([]byte(m.Body))
}

func (m Message) signedData() []byte {
	w := io.NewBufBinWriter()
	m.encodeSigned(w.BinWriter)

	return w.Bytes()
}

// EncodeBinary implements io.Serializable interface.
func (m Message) EncodeBinary(w *io.BinWriter) {
	m.encodeSigned(w)
	w.WriteBytes(m.Signature[:])
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (m Message) MarshalBinary() ([]byte, error) {
	w := io.NewBufBinWriter()
	m.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return nil, w.Err
	}

	return w.Bytes(), nil
}

// Decode restores message from its binary representation and verifies its
// signature. Only the zero message may be unsigned.
func Decode(data []byte) (Message, error) {
	var m Message

	r := io.NewBinReaderFromBuf(data)
	r.ReadBytes(m.Author[:])
	r.ReadBytes(m.Key[:])
	m.Seq = r.ReadU32LE()
	body := r.ReadVarBytes()
	r.ReadBytes(m.Signature[:])
	if r.Err != nil {
		return Message{}, errors.Wrap(r.Err, "can't decode message")
	}
	if len(body) > MaxBodySize {
		return Message{}, errors.Errorf("message body is too big: %d > %d", len(body), MaxBodySize)
	}
	m.Body = string(body)

	if m == (Message{}) {
		return m, nil
	}
	if err := m.Verify(); err != nil {
		return Message{}, err
	}

	return m, nil
}

// String implements fmt.Stringer interface.
func (m Message) String() string {
	return fmt.Sprintf("%s#%d: %s", m.Author, m.Seq, m.Body)
}
