package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nspcc-dev/lukchat"
	"go.uber.org/zap"
)

type (
	// RetryingJob is a lukchat.SyncJob decorator which retries failed writes
	// with exponential backoff. It stops as soon as the context is done.
	RetryingJob[T lukchat.Payload] struct {
		job lukchat.SyncJob[T]
		cfg retryConfig
		log *zap.Logger
	}

	retryConfig struct {
		maxRetries      uint64
		initialInterval time.Duration
		maxInterval     time.Duration
	}

	// RetryOption is a functional RetryingJob setter.
	RetryOption func(*retryConfig)
)

const (
	defaultMaxRetries      = 5
	defaultInitialInterval = 100 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
)

// NewRetryingJob wraps job.
func NewRetryingJob[T lukchat.Payload](job lukchat.SyncJob[T], log *zap.Logger, opts ...RetryOption) *RetryingJob[T] {
	cfg := retryConfig{
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
	}
	for _, o := range opts {
		o(&cfg)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &RetryingJob[T]{
		job: job,
		cfg: cfg,
		log: log,
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n uint64) RetryOption {
	return func(c *retryConfig) {
		c.maxRetries = n
	}
}

// WithInterval sets initial and maximum delays between attempts.
func WithInterval(initial, maxInterval time.Duration) RetryOption {
	return func(c *retryConfig) {
		c.initialInterval = initial
		c.maxInterval = maxInterval
	}
}

// WriteBlock implements lukchat.SyncJob interface.
func (r *RetryingJob[T]) WriteBlock(ctx context.Context, b lukchat.Block[T]) error {
	var attempt int

	op := func() error {
		attempt++

		err := r.job.WriteBlock(ctx, b)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		r.log.Warn("can't write block, retrying",
			zap.Stringer("hash", b.Hash()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		return err
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.cfg.maxRetries), ctx))
}

func (r *RetryingJob[T]) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.initialInterval
	b.MaxInterval = r.cfg.maxInterval
	b.MaxElapsedTime = 0

	return b
}
