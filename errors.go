package lukchat

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/pkg/errors"
)

var (
	// ErrValidation is returned when a block doesn't link to the chain tail.
	ErrValidation = errors.New("block validation failed")
	// ErrPersistence is returned when a block can't be durably written.
	ErrPersistence = errors.New("block persistence failed")
	// ErrRole is returned when an operation requires another account role.
	ErrRole = errors.New("operation is not permitted for the role")
)

// PersistenceError wraps an error returned by SyncJob. errors.Is reports it
// as ErrPersistence while Unwrap returns the job error itself.
type PersistenceError struct {
	Block util.Uint256
	Err   error
}

// Error implements error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: block %s: %v", ErrPersistence, e.Block.String(), e.Err)
}

// Unwrap returns the sync job error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is makes PersistenceError match ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "other"
	}
}
