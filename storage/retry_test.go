package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nspcc-dev/lukchat"
	"github.com/stretchr/testify/require"
)

type flakyJob struct {
	failures int
	calls    int
	cancel   context.CancelFunc
}

var errFlaky = errors.New("temporary failure")

func (j *flakyJob) WriteBlock(ctx context.Context, _ lukchat.Block[testPayload]) error {
	j.calls++
	if j.cancel != nil {
		j.cancel()
		return ctx.Err()
	}
	if j.calls <= j.failures {
		return errFlaky
	}

	return nil
}

func TestRetryingJob(t *testing.T) {
	b := testChain(t, 0)[0]
	interval := WithInterval(time.Millisecond, 5*time.Millisecond)

	t.Run("recovers", func(t *testing.T) {
		inner := &flakyJob{failures: 2}
		job := NewRetryingJob[testPayload](inner, nil, interval)

		require.NoError(t, job.WriteBlock(context.Background(), b))
		require.Equal(t, 3, inner.calls)
	})

	t.Run("gives up", func(t *testing.T) {
		inner := &flakyJob{failures: 100}
		job := NewRetryingJob[testPayload](inner, nil, interval, WithMaxRetries(3))

		err := job.WriteBlock(context.Background(), b)
		require.ErrorIs(t, err, errFlaky)
		require.Equal(t, 4, inner.calls)
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		inner := &flakyJob{cancel: cancel}
		job := NewRetryingJob[testPayload](inner, nil, interval)

		err := job.WriteBlock(ctx, b)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 1, inner.calls)
	})

	t.Run("as node sync job", func(t *testing.T) {
		inner := &flakyJob{failures: 1}
		c := lukchat.NewChain[testPayload]()

		err := c.Append(context.Background(), b, NewRetryingJob[testPayload](inner, nil, interval))
		require.NoError(t, err)
		require.Equal(t, 1, c.Len())
	})
}
