package lukchat

import (
	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"
)

type (
	// Config contains initialization and working parameters for Node.
	Config[T Payload] struct {
		// Logger
		Logger *zap.Logger
		// Clock is used for event timestamps.
		Clock clock.Clock
		// Metrics receives node activity notifications.
		Metrics Metrics
		// GenesisPayload is a payload of the genesis block created by Genesis.
		GenesisPayload T
		// ForkChoice decides whether a peer chain is preferable, see
		// Node.PreferRemote. Node never switches chains on its own.
		ForkChoice ForkChoice[T]
		// ProcessBlock is called every time new block is accepted. It is
		// called without any node lock held.
		ProcessBlock func(b Block[T])
	}

	// Option is a functional Config setter.
	Option[T Payload] func(cfg *Config[T])

	// ForkChoice reports whether remote chain is preferable over local
	// given the overlap of local with remote.
	ForkChoice[T Payload] func(local, remote *Chain[T], overlap float64) bool
)

// defaultMinOverlap is a minimal share of local blocks which must be present
// in a longer remote chain for it to be preferred.
const defaultMinOverlap = 0.5

func defaultConfig[T Payload]() *Config[T] {
	return &Config[T]{
		Logger:       zap.NewNop(),
		Clock:        clock.NewDefaultClock(),
		Metrics:      nopMetrics{},
		ForkChoice:   LongerChain[T](defaultMinOverlap),
		ProcessBlock: func(Block[T]) {},
	}
}

func newConfig[T Payload](options []Option[T]) *Config[T] {
	cfg := defaultConfig[T]()
	for _, option := range options {
		option(cfg)
	}

	return cfg
}

// LongerChain prefers a remote chain which is longer than the local one
// and contains at least minOverlap of local blocks.
func LongerChain[T Payload](minOverlap float64) ForkChoice[T] {
	return func(local, remote *Chain[T], overlap float64) bool {
		return remote.Len() > local.Len() && overlap >= minOverlap
	}
}

// WithLogger sets Logger.
func WithLogger[T Payload](log *zap.Logger) Option[T] {
	return func(cfg *Config[T]) {
		cfg.Logger = log
	}
}

// WithClock sets Clock.
func WithClock[T Payload](c clock.Clock) Option[T] {
	return func(cfg *Config[T]) {
		cfg.Clock = c
	}
}

// WithMetrics sets Metrics.
func WithMetrics[T Payload](m Metrics) Option[T] {
	return func(cfg *Config[T]) {
		cfg.Metrics = m
	}
}

// WithGenesisPayload sets GenesisPayload.
func WithGenesisPayload[T Payload](p T) Option[T] {
	return func(cfg *Config[T]) {
		cfg.GenesisPayload = p
	}
}

// WithForkChoice sets ForkChoice.
func WithForkChoice[T Payload](f ForkChoice[T]) Option[T] {
	return func(cfg *Config[T]) {
		cfg.ForkChoice = f
	}
}

// WithProcessBlock sets ProcessBlock.
func WithProcessBlock[T Payload](f func(b Block[T])) Option[T] {
	return func(cfg *Config[T]) {
		cfg.ProcessBlock = f
	}
}
