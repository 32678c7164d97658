package lukchat

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Node is a participant's local state: an immutable account, a chain and a
// set of loose events. The chain and the events are guarded by independent
// locks, no method holds both of them at the same time. Node methods are
// the only sanctioned way to access its chain.
type Node[T Payload] struct {
	account Account

	chainLock sync.RWMutex
	chain     *Chain[T]

	eventsLock sync.RWMutex
	events     *eventPool[T]

	cfg *Config[T]
	log *zap.Logger
}

// New returns a node with an empty chain. It performs no I/O.
func New[T Payload](role Role, profile Profile, id Identity, options ...Option[T]) *Node[T] {
	return newNode(NewAccount(role, profile, id), NewChain[T](), newConfig(options))
}

// Genesis returns a miner node which chain contains a single genesis block.
// The block is written via job first, no node is returned if it fails.
// The genesis payload defaults to the zero value of T, pointer payloads
// must set it with WithGenesisPayload or Genesis returns an error.
func Genesis[T Payload](ctx context.Context, profile Profile, job SyncJob[T], id Identity, options ...Option[T]) (*Node[T], error) {
	cfg := newConfig(options)

	genesis, err := NewGenesis(cfg.GenesisPayload)
	if err != nil {
		return nil, err
	}

	chain := NewChain[T]()
	if err := chain.Append(ctx, genesis, job); err != nil {
		return nil, err
	}

	n := newNode(NewAccount(RoleMiner, profile, id), chain, cfg)
	n.log.Info("genesis block created", zap.Stringer("hash", genesis.Hash()))
	n.cfg.Metrics.BlockAccepted(chain.Len())
	n.accept(genesis, chain.Len())

	return n, nil
}

// Restore returns a node over a copy of an already persisted chain, e.g. the
// one replayed from storage. Later changes of chain don't affect the node.
func Restore[T Payload](role Role, profile Profile, id Identity, chain *Chain[T], options ...Option[T]) *Node[T] {
	own := NewChain[T]()
	if chain != nil {
		own = chain.Clone()
	}

	return newNode(NewAccount(role, profile, id), own, newConfig(options))
}

func newNode[T Payload](acc Account, chain *Chain[T], cfg *Config[T]) *Node[T] {
	return &Node[T]{
		account: acc,
		chain:   chain,
		events:  newEventPool[T](),
		cfg:     cfg,
		log: cfg.Logger.With(
			zap.Stringer("node", acc.ID),
			zap.Stringer("role", acc.Role)),
	}
}

// Account returns node account.
func (n *Node[T]) Account() Account {
	return n.account
}

// Len returns the length of the node's chain.
func (n *Node[T]) Len() int {
	n.chainLock.RLock()
	defer n.chainLock.RUnlock()

	return n.chain.Len()
}

// ChainOverlap returns the fraction of the node's chain blocks present in
// the remote chain.
func (n *Node[T]) ChainOverlap(remote *Chain[T]) float64 {
	n.chainLock.RLock()
	score := n.chain.ChainOverlap(remote)
	n.chainLock.RUnlock()

	n.cfg.Metrics.Overlap(score)

	return score
}

// InChain checks whether b is present in the node's chain.
func (n *Node[T]) InChain(b Block[T]) bool {
	n.chainLock.RLock()
	defer n.chainLock.RUnlock()

	return n.chain.InChain(b)
}

// Tail returns the last block of the node's chain.
func (n *Node[T]) Tail() (Block[T], bool) {
	n.chainLock.RLock()
	defer n.chainLock.RUnlock()

	return n.chain.Tail()
}

// Snapshot returns a consistent copy of the node's chain, e.g. to send it
// to a peer.
func (n *Node[T]) Snapshot() *Chain[T] {
	n.chainLock.RLock()
	defer n.chainLock.RUnlock()

	return n.chain.Clone()
}

// AddBlock appends b to the node's chain writing it via job. At most one
// append happens at a time and readers never see a partially appended chain.
// Both validation and persistence errors are returned, the node remains
// usable after either.
func (n *Node[T]) AddBlock(ctx context.Context, b Block[T], job SyncJob[T]) error {
	n.chainLock.Lock()
	err := n.chain.Append(ctx, b, job)
	height := n.chain.Len()
	if err == nil {
		n.cfg.Metrics.BlockAccepted(height)
	}
	n.chainLock.Unlock()

	if err != nil {
		n.reject(b, err)
		return err
	}

	n.accept(b, height)

	return nil
}

// Propose builds a block carrying p on top of the current tail and appends
// it. The tail can't change between building and appending. Only miners
// can propose blocks.
func (n *Node[T]) Propose(ctx context.Context, p T, job SyncJob[T]) (Block[T], error) {
	if n.account.Role != RoleMiner {
		return Block[T]{}, errors.Wrapf(ErrRole, "%s can't propose blocks", n.account.Role)
	}

	n.chainLock.Lock()
	b, height, err := n.propose(ctx, p, job)
	n.chainLock.Unlock()

	if err != nil {
		if !b.IsZero() {
			n.reject(b, err)
		}
		return Block[T]{}, err
	}

	n.accept(b, height)

	return b, nil
}

// propose must be called with the chain lock held. The height is reported
// under the lock so that the gauge never goes backwards.
func (n *Node[T]) propose(ctx context.Context, p T, job SyncJob[T]) (Block[T], int, error) {
	var (
		b   Block[T]
		err error
	)

	if tail, ok := n.chain.Tail(); ok {
		b, err = NewBlock(tail.Hash(), p)
	} else {
		b, err = NewGenesis(p)
	}
	if err != nil {
		return Block[T]{}, 0, err
	}

	if err := n.chain.Append(ctx, b, job); err != nil {
		return b, 0, err
	}

	height := n.chain.Len()
	n.cfg.Metrics.BlockAccepted(height)

	return b, height, nil
}

// PreferRemote reports whether remote chain is preferable according to the
// configured ForkChoice. It never modifies the node's chain.
func (n *Node[T]) PreferRemote(remote *Chain[T]) bool {
	if remote == nil {
		return false
	}

	local := n.Snapshot()
	overlap := local.ChainOverlap(remote)
	n.cfg.Metrics.Overlap(overlap)

	return n.cfg.ForkChoice(local, remote, overlap)
}

// AddEvent adds a loose event carrying p. It returns false if an event with
// the same payload is already pending.
func (n *Node[T]) AddEvent(p T) (Event[T], bool, error) {
	e, err := NewEvent(p, n.cfg.Clock.Now())
	if err != nil {
		return Event[T]{}, false, err
	}

	n.eventsLock.Lock()
	added, err := n.events.add(e)
	pending := n.events.len()
	n.eventsLock.Unlock()

	if err != nil || !added {
		return Event[T]{}, false, err
	}

	n.cfg.Metrics.EventsPending(pending)

	return e, true, nil
}

// LooseEvents returns a copy of pending events in insertion order.
func (n *Node[T]) LooseEvents() []Event[T] {
	n.eventsLock.RLock()
	defer n.eventsLock.RUnlock()

	return n.events.list()
}

// TakeEvents removes and returns all pending events.
func (n *Node[T]) TakeEvents() []Event[T] {
	n.eventsLock.Lock()
	res := n.events.drain()
	n.eventsLock.Unlock()

	n.cfg.Metrics.EventsPending(0)

	return res
}

// PendingEvents returns the number of pending events.
func (n *Node[T]) PendingEvents() int {
	n.eventsLock.RLock()
	defer n.eventsLock.RUnlock()

	return n.events.len()
}

// accept runs post-append hooks, the height is reported to metrics by the
// caller under the chain lock.
func (n *Node[T]) accept(b Block[T], height int) {
	n.log.Debug("block accepted",
		zap.Stringer("hash", b.Hash()),
		zap.Int("height", height))

	n.eventsLock.Lock()
	removed := n.events.remove(b.Payload())
	pending := n.events.len()
	n.eventsLock.Unlock()

	if removed != 0 {
		n.cfg.Metrics.EventsPending(pending)
	}

	n.cfg.ProcessBlock(b)
}

func (n *Node[T]) reject(b Block[T], err error) {
	kind := errorKind(err)
	n.cfg.Metrics.BlockRejected(kind)

	switch kind {
	case "validation":
		n.log.Warn("block discarded",
			zap.Stringer("hash", b.Hash()),
			zap.Error(err))
	default:
		n.log.Error("can't persist block",
			zap.Stringer("hash", b.Hash()),
			zap.Error(err))
	}
}
