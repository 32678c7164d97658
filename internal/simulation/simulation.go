// Package simulation runs a cluster of in-process nodes exchanging chat
// message blocks.
package simulation

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"github.com/nspcc-dev/lukchat"
	"github.com/nspcc-dev/lukchat/crypto"
	"github.com/nspcc-dev/lukchat/internal/chatmsg"
	"github.com/nspcc-dev/lukchat/storage"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type (
	// Options describe a simulation run.
	Options struct {
		// Nodes is the cluster size, the first Miners nodes are miners.
		Nodes  int
		Miners int
		// Interval is a delay between blocks proposed by every miner.
		Interval time.Duration
		// Job is shared by all nodes. An in-memory storage.Job is used if
		// it is nil.
		Job lukchat.SyncJob[chatmsg.Message]
		// Metrics returns metrics for the named node, it is optional.
		Metrics func(name string) lukchat.Metrics
		Logger  *zap.Logger
	}

	// Result is a node state after the simulation.
	Result struct {
		Name  string
		Role  lukchat.Role
		Chain *lukchat.Chain[chatmsg.Message]
		// Rejected is the number of received blocks which didn't extend
		// the node's chain.
		Rejected int
		// Switches is the number of times the node adopted a peer chain.
		Switches int
	}

	simNode struct {
		id      int
		name    string
		role    lukchat.Role
		ident   lukchat.Identity
		node    *lukchat.Node[chatmsg.Message]
		opts    []lukchat.Option[chatmsg.Message]
		job     lukchat.SyncJob[chatmsg.Message]
		blocks  chan announce
		cluster []*simNode
		ticker  ticker.Ticker
		log     *zap.Logger

		seq      uint32
		rejected int
		switches int
	}

	// announce is a block together with the sender's chain right after
	// the block was accepted. The chain is shared by all receivers and
	// must not be modified.
	announce struct {
		from  int
		block lukchat.Block[chatmsg.Message]
		chain *lukchat.Chain[chatmsg.Message]
	}
)

const defaultChanSize = 100

// Run starts the cluster and blocks until ctx is done. An error is returned
// if some node fails to persist a block.
func Run(ctx context.Context, o Options) ([]Result, error) {
	if o.Nodes <= 0 || o.Miners <= 0 || o.Miners > o.Nodes {
		return nil, errors.Errorf("invalid cluster: %d miners of %d nodes", o.Miners, o.Nodes)
	}
	if o.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Job == nil {
		o.Job = storage.NewJob[chatmsg.Message](storage.NewMemoryStore(), chatmsg.Decode, o.Logger)
	}

	nodes := make([]*simNode, o.Nodes)
	if err := initNodes(ctx, nodes, o); err != nil {
		return nil, err
	}

	eg, ctx := errgroup.WithContext(ctx)
	for i := range nodes {
		eg.Go(func() error {
			return nodes[i].Run(ctx)
		})
	}

	err := eg.Wait()

	res := make([]Result, len(nodes))
	for i, n := range nodes {
		res[i] = Result{
			Name:     n.name,
			Role:     n.role,
			Chain:    n.node.Snapshot(),
			Rejected: n.rejected,
			Switches: n.switches,
		}
	}

	return res, err
}

func initNodes(ctx context.Context, nodes []*simNode, o Options) error {
	var genesis lukchat.Block[chatmsg.Message]

	for i := range nodes {
		priv, pub := crypto.Generate(rand.Reader)
		id, err := lukchat.NewIdentity(priv, pub)
		if err != nil {
			return err
		}

		n := &simNode{
			id:      i,
			name:    fmt.Sprintf("node-%d", i),
			role:    lukchat.RoleUser,
			ident:   id,
			job:     o.Job,
			blocks:  make(chan announce, defaultChanSize),
			cluster: nodes,
		}
		if i < o.Miners {
			n.role = lukchat.RoleMiner
			n.ticker = ticker.New(o.Interval)
		}
		n.log = o.Logger.With(zap.String("name", n.name))

		n.opts = []lukchat.Option[chatmsg.Message]{lukchat.WithLogger[chatmsg.Message](n.log)}
		if o.Metrics != nil {
			n.opts = append(n.opts, lukchat.WithMetrics[chatmsg.Message](o.Metrics(n.name)))
		}

		profile := lukchat.Profile{Name: n.name}
		if n.role == lukchat.RoleMiner {
			n.node, err = lukchat.Genesis(ctx, profile, n.job, id, n.opts...)
			if err != nil {
				return errors.Wrapf(err, "can't create %s", n.name)
			}
			genesis, _ = n.node.Tail()
		} else {
			n.node = lukchat.New(n.role, profile, id, n.opts...)
			if err := n.node.AddBlock(ctx, genesis, n.job); err != nil {
				return errors.Wrapf(err, "can't add genesis to %s", n.name)
			}
		}

		nodes[i] = n
	}

	return nil
}

// Run implements simple event loop.
func (n *simNode) Run(ctx context.Context) error {
	var ticks <-chan time.Time
	if n.ticker != nil {
		n.ticker.Resume()
		defer n.ticker.Stop()
		ticks = n.ticker.Ticks()
	}

	for {
		select {
		case <-ctx.Done():
			n.log.Info("context cancelled", zap.Int("height", n.node.Len()))
			return nil
		case <-ticks:
			if err := n.mine(ctx); err != nil {
				return err
			}
		case a := <-n.blocks:
			if err := n.receive(ctx, a); err != nil {
				return err
			}
		}
	}
}

func (n *simNode) mine(ctx context.Context) error {
	n.seq++
	msg, err := chatmsg.New(n.ident, n.seq, fmt.Sprintf("message %d from %s", n.seq, n.name))
	if err != nil {
		return err
	}

	if _, _, err := n.node.AddEvent(msg); err != nil {
		return err
	}

	b, err := n.node.Propose(ctx, msg, n.job)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrapf(err, "%s can't propose block", n.name)
	}

	n.Broadcast(b)

	return nil
}

func (n *simNode) receive(ctx context.Context, a announce) error {
	err := n.node.AddBlock(ctx, a.block, n.job)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lukchat.ErrValidation):
		n.rejected++
	case ctx.Err() != nil:
		return nil
	default:
		return errors.Wrapf(err, "%s can't add block", n.name)
	}

	if n.node.PreferRemote(a.chain) {
		n.adopt(a)
	}

	return nil
}

// adopt replaces the node with the one built over the peer chain. All
// blocks of the peer chain are already written by the shared job.
func (n *simNode) adopt(a announce) {
	events := n.node.LooseEvents()

	n.node = lukchat.Restore(n.role, n.node.Account().Profile, n.ident, a.chain, n.opts...)
	for _, e := range events {
		if !containsPayload(a.chain, e.Payload) {
			_, _, _ = n.node.AddEvent(e.Payload)
		}
	}
	n.switches++

	n.log.Info("switched to peer chain",
		zap.String("peer", n.cluster[a.from].name),
		zap.Int("height", a.chain.Len()))
}

// Broadcast sends b with the node's chain to all other nodes.
func (n *simNode) Broadcast(b lukchat.Block[chatmsg.Message]) {
	a := announce{
		from:  n.id,
		block: b,
		chain: n.node.Snapshot(),
	}

	for i, node := range n.cluster {
		if i != n.id {
			select {
			case node.blocks <- a:
			default:
				n.log.Warn("can't broadcast block: channel is full")
			}
		}
	}
}

func containsPayload(c *lukchat.Chain[chatmsg.Message], m chatmsg.Message) bool {
	for _, b := range c.Blocks() {
		if b.Payload() == m {
			return true
		}
	}

	return false
}
