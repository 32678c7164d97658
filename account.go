package lukchat

import (
	"strings"

	"github.com/nspcc-dev/lukchat/crypto"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/pkg/errors"
)

// Role is a role of the account in the network.
type Role byte

const (
	// RoleUser participates in the network without producing blocks.
	RoleUser Role = iota
	// RoleMiner produces genesis and new blocks.
	RoleMiner
)

// String implements fmt.Stringer interface.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleMiner:
		return "miner"
	default:
		return "unknown"
	}
}

// ParseRole parses role name as returned by Role.String.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "user":
		return RoleUser, nil
	case "miner":
		return RoleMiner, nil
	default:
		return 0, errors.Errorf("unknown role: %q", s)
	}
}

// Profile contains node settings which are exposed to other participants.
type Profile struct {
	// Name is a human-readable node name.
	Name string `yaml:"name"`
	// ListenAddress is an address peers connect to.
	ListenAddress string `yaml:"listen_address"`
	// LookupAddress is an address of the lookup service.
	LookupAddress string `yaml:"lookup_address"`
	// DataDir is a directory for node files.
	DataDir string `yaml:"data_dir"`
}

// Identity is a persistent key pair of the node together with its ID.
type Identity struct {
	ID         util.Uint160
	PublicKey  crypto.PublicKey
	PrivateKey crypto.PrivateKey
}

// NewIdentity returns identity for the key pair, ID is derived from the
// public key.
func NewIdentity(priv crypto.PrivateKey, pub crypto.PublicKey) (Identity, error) {
	if priv == nil || pub == nil {
		return Identity{}, errors.New("empty key pair")
	}

	id, err := crypto.KeyID(pub)
	if err != nil {
		return Identity{}, errors.Wrap(err, "can't derive node ID")
	}

	return Identity{
		ID:         id,
		PublicKey:  pub,
		PrivateKey: priv,
	}, nil
}

// Account is an immutable description of the node owner.
type Account struct {
	Role    Role
	Profile Profile
	Identity
}

// NewAccount returns a new account.
func NewAccount(role Role, profile Profile, id Identity) Account {
	return Account{
		Role:     role,
		Profile:  profile,
		Identity: id,
	}
}
