// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"context"
	"fmt"
	"sync"

	golog "github.com/luxfi/log"

	harnesslog "github.com/luxfi/bft-harness/log"
	"github.com/luxfi/bft-harness/metrics"
)

// StorageGenerator produces a per-node_id storage handle, the Go rendition
// of the original's I::Storage generator slot threaded through add_nodes's
// construction pipeline (spec.md §4.3, SPEC_FULL §12's "per-node storage
// generator" supplement). The produced value is opaque to the harness;
// persistent storage itself is out of scope (spec.md §1).
type StorageGenerator = Generator[any]

// node is one (node_id, handle) pair plus the exchange membership
// add_node_with_config registered it under, kept together so Shutdown can
// retire a replica from its quorum/committee exchanges as well as drop its
// handle.
type node[Txn any, StateCommit any, Deltas any, Leaf comparable] struct {
	id        uint64
	handle    ConsensusHandle[Txn, StateCommit, Deltas, Leaf]
	keys      KeyPair
	quorum    *Exchange
	committee *Exchange
}

// TestRunner is the orchestrator of spec.md §3/§4.3/§4.4: it owns every
// replica's consensus handle, the three construction-time generators, and
// the active Round pipeline, and drives rounds against the cluster.
//
// A TestRunner is not safe for concurrent round execution (spec.md §5):
// callers must not invoke ExecuteRound/ExecuteRounds concurrently on the
// same runner. Node lifecycle (AddNodes/Shutdown) is guarded by mu so it
// can safely run between rounds even from a different goroutine than the
// one driving rounds, but spec.md §4.3 notes shutdowns are not concurrent
// with round execution — callers must still serialize the two.
type TestRunner[Txn any, StateCommit any, Deltas any, Leaf comparable] struct {
	log golog.Logger

	mu         sync.Mutex
	nodes      []*node[Txn, StateCommit, Deltas, Leaf]
	nextNodeID uint64

	quorumGen    Generator[*Exchange]
	committeeGen Generator[*Exchange]
	storageGen   StorageGenerator

	defaultNodeConfig any
	genesis           any
	constructor       Constructor[Txn, StateCommit, Deltas, Leaf]
	txnGen            TransactionGenerator[Txn, Leaf]

	round Round[Txn, StateCommit, Deltas, Leaf]

	metricsReg    metrics.Registry
	roundDuration metrics.Averager
	roundFailures metrics.Counter
}

// AddNodes allocates `count` fresh replicas with the runner's default
// config, networks and storage (spec.md §4.3): for each, it invokes the
// three generators, generates a fresh random test key pair, registers the
// node in both the quorum and committee exchanges, and hands everything to
// the Constructor. Returns the allocated node ids in creation order.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) AddNodes(ctx context.Context, count int) ([]uint64, error) {
	ids := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		id, err := r.AddNodeWithConfig(ctx, r.quorumGen, r.committeeGen, r.storageGen, r.defaultNodeConfig, r.genesis)
		if err != nil {
			return ids, fmt.Errorf("add_nodes: node %d of %d: %w", i, count, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AddNodeWithConfig is the explicit form add_node_with_config of spec.md
// §4.3: it lets a caller override the generators, config or genesis
// initializer for one replica, and is what AddNodes calls internally with
// the runner's defaults. It allocates the next node_id (never reused,
// even across Shutdown), invokes the supplied generators exactly once,
// derives the node's test key pair, registers it in both exchanges, and
// constructs the replica's consensus handle.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) AddNodeWithConfig(
	ctx context.Context,
	quorumGen Generator[*Exchange],
	committeeGen Generator[*Exchange],
	storageGen StorageGenerator,
	nodeConfig any,
	genesis any,
) (uint64, error) {
	r.mu.Lock()
	id := r.nextNodeID
	r.nextNodeID++
	r.mu.Unlock()

	quorum := quorumGen(id)
	committee := committeeGen(id)
	storage := storageGen(id)

	keys, err := deriveTestKeyPair(id)
	if err != nil {
		return id, fmt.Errorf("deriving keys for node %d: %w", id, err)
	}
	if err := quorum.Register(keys.PeerID, keys); err != nil {
		return id, fmt.Errorf("registering node %d in quorum exchange: %w", id, err)
	}
	if err := committee.Register(keys.PeerID, keys); err != nil {
		return id, fmt.Errorf("registering node %d in committee exchange: %w", id, err)
	}

	handle, err := r.constructor(ctx, id, keys, quorum, committee, storage, nodeConfig, genesis)
	if err != nil {
		return id, fmt.Errorf("constructing consensus handle for node %d: %w", id, err)
	}

	r.mu.Lock()
	r.nodes = append(r.nodes, &node[Txn, StateCommit, Deltas, Leaf]{
		id:        id,
		handle:    handle,
		keys:      keys,
		quorum:    quorum,
		committee: committee,
	})
	r.mu.Unlock()

	r.log.Debug("node added", golog.Int("node_id", int(id)))
	return id, nil
}

// NextNodeID returns the node_id that the next AddNodeWithConfig call
// would allocate, without allocating it.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) NextNodeID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextNodeID
}

// IDs returns the current node ids in insertion order (spec.md §4.3, §8).
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) IDs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint64, len(r.nodes))
	for i, n := range r.nodes {
		ids[i] = n.id
	}
	return ids
}

// GetHandle returns the requested node's consensus handle, or false if no
// node with that id exists (spec.md §4.3's get_handle).
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) GetHandle(id uint64) (ConsensusHandle[Txn, StateCommit, Deltas, Leaf], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.id == id {
			return n.handle, true
		}
	}
	var zero ConsensusHandle[Txn, StateCommit, Deltas, Leaf]
	return zero, false
}

// NumNodes returns the number of replicas currently held by the runner.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) NumNodes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// Shutdown finds node_id, removes it from the runner (preserving the
// order of the rest) and awaits its graceful shutdown, also retiring it
// from both exchanges. Fails with ErrNoSuchNode wrapping the full id list
// if node_id is absent (spec.md §4.3, §7).
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) Shutdown(ctx context.Context, nodeID uint64) error {
	r.mu.Lock()
	idx := -1
	for i, n := range r.nodes {
		if n.id == nodeID {
			idx = i
			break
		}
	}
	if idx == -1 {
		ids := make([]uint64, len(r.nodes))
		for i, n := range r.nodes {
			ids[i] = n.id
		}
		r.mu.Unlock()
		return errNoSuchNode(ids, nodeID)
	}
	n := r.nodes[idx]
	r.nodes = append(r.nodes[:idx:idx], r.nodes[idx+1:]...)
	r.mu.Unlock()

	if err := n.quorum.Remove(n.keys.PeerID); err != nil {
		r.log.Warn("removing node from quorum exchange", golog.Int("node_id", int(nodeID)), golog.Err(err))
	}
	if err := n.committee.Remove(n.keys.PeerID); err != nil {
		r.log.Warn("removing node from committee exchange", golog.Int("node_id", int(nodeID)), golog.Err(err))
	}
	return n.handle.ShutDown(ctx)
}

// ShutdownAll awaits the graceful shutdown of every held node, the Go
// rendition of shutdown_all; unlike the Rust original it does not consume
// the runner (Go has no move semantics), but leaves it with an empty node
// list, matching the idempotence spec.md §8 requires.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) ShutdownAll(ctx context.Context) error {
	r.mu.Lock()
	nodes := r.nodes
	r.nodes = nil
	r.mu.Unlock()

	var firstErr error
	for _, n := range nodes {
		if err := n.handle.ShutDown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.log.Debug("all nodes shut down")
	return firstErr
}

// WithRound replaces the active Round pipeline (spec.md §4.3's
// with_round).
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) WithRound(round Round[Txn, StateCommit, Deltas, Leaf]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.round = round
}

func newNoOpLog() golog.Logger {
	return harnesslog.NewNoOpLogger()
}
