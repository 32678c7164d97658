package lukchat

import (
	"context"
)

// SyncJob is a durable write path for accepted blocks. WriteBlock must not
// return before the block is durably recorded, a nil error is treated as an
// irrevocable commit. Implementations must tolerate concurrent calls with
// different blocks, a single job can be shared by many nodes.
type SyncJob[T Payload] interface {
	WriteBlock(ctx context.Context, b Block[T]) error
}

// SyncJobFunc is an adapter to allow the use of ordinary functions as SyncJob.
type SyncJobFunc[T Payload] func(ctx context.Context, b Block[T]) error

// WriteBlock implements SyncJob interface.
func (f SyncJobFunc[T]) WriteBlock(ctx context.Context, b Block[T]) error {
	return f(ctx, b)
}
