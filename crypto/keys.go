package crypto

import (
	neofscrypto "github.com/nspcc-dev/neofs-crypto"
	"github.com/pkg/errors"
)

// LoadKey loads ECDSA private key from val. It can be a WIF string,
// a hex-encoded key or a path to a file holding the binary key.
func LoadKey(val string) (PrivateKey, PublicKey, error) {
	key, err := neofscrypto.LoadPrivateKey(val)
	if err != nil {
		return nil, nil, errors.Wrap(err, "can't load private key")
	}

	return NewECDSAPrivateKey(key), NewECDSAPublicKey(&key.PublicKey), nil
}

// EncodeWIF returns WIF representation of the private key generated
// by this package.
func EncodeWIF(priv PrivateKey) (string, error) {
	k, ok := priv.(*ECDSAPriv)
	if !ok || k.PrivateKey == nil {
		return "", errors.New("unsupported private key")
	}

	return neofscrypto.WIFEncode(k.PrivateKey)
}
