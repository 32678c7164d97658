package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"errors"
	"io"
	"math/big"

	"github.com/nspcc-dev/rfc6979"
)

// Sizes of ECDSA signatures and compressed public keys in bytes.
const (
	SignatureSize = 64
	PublicKeySize = 33
)

type (
	// ECDSAPub is a wrapper over *ecsda.PublicKey.
	ECDSAPub struct {
		*ecdsa.PublicKey
	}

	// ECDSAPriv is a wrapper over *ecdsa.PrivateKey.
	ECDSAPriv struct {
		*ecdsa.PrivateKey
	}
)

var (
	_ PublicKey  = (*ECDSAPub)(nil)
	_ PrivateKey = (*ECDSAPriv)(nil)
)

func generateECDSA(r io.Reader) (PrivateKey, PublicKey) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), r)
	if err != nil {
		return nil, nil
	}

	return NewECDSAPrivateKey(key), NewECDSAPublicKey(&key.PublicKey)
}

// NewECDSAPublicKey returns new PublicKey from *ecdsa.PublicKey.
func NewECDSAPublicKey(pub *ecdsa.PublicKey) PublicKey {
	return &ECDSAPub{
		PublicKey: pub,
	}
}

// NewECDSAPrivateKey returns new PrivateKey from *ecdsa.PrivateKey.
func NewECDSAPrivateKey(key *ecdsa.PrivateKey) PrivateKey {
	return &ECDSAPriv{
		PrivateKey: key,
	}
}

// Public returns public part of the key.
func (e ECDSAPriv) Public() PublicKey {
	return NewECDSAPublicKey(&e.PrivateKey.PublicKey)
}

// Sign signs message using P-256 curve. Signatures are deterministic (RFC 6979).
func (e ECDSAPriv) Sign(msg []byte) ([]byte, error) {
	if e.PrivateKey == nil {
		return nil, errors.New("empty private key")
	}

	h := sha256.Sum256(msg)
	r, s := rfc6979.SignECDSA(e.PrivateKey, h[:], sha256.New)

	sig := make([]byte, SignatureSize)
	_ = r.FillBytes(sig[:32])
	_ = s.FillBytes(sig[32:])

	return sig, nil
}

// Equals checks whether both keys are the same P-256 point.
func (e *ECDSAPub) Equals(other PublicKey) bool {
	o, ok := other.(*ECDSAPub)
	if !ok || o.PublicKey == nil || e.PublicKey == nil {
		return false
	}

	return e.Equal(o.PublicKey)
}

// MarshalBinary implements encoding.BinaryMarshaler interface.
func (e ECDSAPub) MarshalBinary() ([]byte, error) {
	if e.PublicKey == nil {
		return nil, errors.New("empty public key")
	}

	return elliptic.MarshalCompressed(e.PublicKey.Curve, e.PublicKey.X, e.PublicKey.Y), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler interface.
func (e *ECDSAPub) UnmarshalBinary(data []byte) error {
	e.PublicKey = new(ecdsa.PublicKey)
	e.PublicKey.Curve = elliptic.P256()
	e.PublicKey.X, e.PublicKey.Y = elliptic.UnmarshalCompressed(e.PublicKey.Curve, data)
	if e.PublicKey.X == nil {
		return errors.New("can't unmarshal ECDSA public key")
	}

	return nil
}

// Verify verifies signature using P-256 curve.
func (e ECDSAPub) Verify(msg, sig []byte) error {
	if len(sig) != SignatureSize {
		return errors.New("invalid signature length")
	}

	h := sha256.Sum256(msg)
	rBytes := new(big.Int).SetBytes(sig[0:32])
	sBytes := new(big.Int).SetBytes(sig[32:64])
	res := ecdsa.Verify(e.PublicKey, h[:], rBytes, sBytes)
	if !res {
		return errors.New("bad signature")
	}
	return nil
}
