// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runner implements the round pipeline and test-runner lifecycle of
// spec.md §4.3/§5: launching a cluster of consensus replicas behind
// ConsensusHandle, driving rounds through a three-stage safety-check / setup /
// safety-check pipeline, and tearing replicas down individually or in bulk.
// Grounded on testing/src/lib.rs (original_source) for control flow, and on
// the pack's validators/crypto packages for the domain stack it drives.
package runner

import (
	"context"
	"fmt"

	"github.com/luxfi/bft-harness/choices"
)

// Generator produces a per-node_id value of T, the Go rendition of the
// original's Generator<T> = Box<dyn Fn(u64) -> T>. Used for the three
// construction-time generators a Launcher accepts (quorum network,
// committee network, storage).
type Generator[T any] func(nodeID uint64) T

// NodeOutcome is what a replica produced for a round it participated in
// successfully: the committed state commitment and the deltas that
// produced it, the Go rendition of StateAndBlock<S, B> (original's
// (Vec<S>, Vec<B>) tuple collapsed to one outcome per node per round).
// Status is runOneRound's own addition, not the replica's: every outcome
// reaching SuccessNodes is by definition choices.Accepted, letting
// RoundPostSafetyCheck hooks and test assertions use the teacher's own
// choices.Status vocabulary instead of inferring "decided" from map
// membership.
type NodeOutcome[StateCommit any, Deltas any] struct {
	StateCommit StateCommit
	Deltas      Deltas
	Status      choices.Status
}

// RoundResult is what run_one_round produces: every transaction submitted
// that round, a per-node outcome or failure, and an overall success flag.
// Success is len(FailedNodes) <= the cluster's tolerated Byzantine fault
// bound f = floor((n-1)/3), resolving the original's literal
// `success: nll_todo()` placeholder (spec.md §13).
type RoundResult[Txn any, StateCommit any, Deltas any] struct {
	Txns         []Txn
	SuccessNodes map[uint64]NodeOutcome[StateCommit, Deltas]
	FailedNodes  map[uint64]error
	Success      bool
}

// RoundCtx accumulates state across repeated execute_round calls: how many
// rounds have run and failed, and the full result history so a
// RoundSetup/RoundPostSafetyCheck can make decisions conditioned on prior
// rounds (e.g. "stop submitting transactions once 3 rounds have
// succeeded").
type RoundCtx[Txn any, StateCommit any, Deltas any] struct {
	PriorRoundResults  []RoundResult[Txn, StateCommit, Deltas]
	ViewsSinceProgress int
	TotalFailedViews   int
}

// RoundPreSafetyCheck runs before a round is set up, to assert the cluster
// is in a state consensus can legitimately be attempted from.
type RoundPreSafetyCheck[Txn any, StateCommit any, Deltas any, Leaf comparable] func(ctx context.Context, r *TestRunner[Txn, StateCommit, Deltas, Leaf], rc *RoundCtx[Txn, StateCommit, Deltas]) error

// RoundSetup prepares a round: submitting transactions, spinning nodes up
// or down, and returning the transactions that run_one_round should expect
// replicas to decide on.
type RoundSetup[Txn any, StateCommit any, Deltas any, Leaf comparable] func(ctx context.Context, r *TestRunner[Txn, StateCommit, Deltas, Leaf], rc *RoundCtx[Txn, StateCommit, Deltas]) ([]Txn, error)

// RoundPostSafetyCheck runs after a round completes, to assert the result
// meets whatever custom definition of success the test cares about.
type RoundPostSafetyCheck[Txn any, StateCommit any, Deltas any, Leaf comparable] func(ctx context.Context, r *TestRunner[Txn, StateCommit, Deltas, Leaf], rc *RoundCtx[Txn, StateCommit, Deltas], result RoundResult[Txn, StateCommit, Deltas]) error

// Round bundles the three-stage pipeline a TestRunner drives each
// execute_round call through: pre safety check, setup, post safety check
// (spec.md §4.3, original's control-flow comment on struct Round).
type Round[Txn any, StateCommit any, Deltas any, Leaf comparable] struct {
	SafetyCheckPre RoundPreSafetyCheck[Txn, StateCommit, Deltas, Leaf]
	SetupRound     RoundSetup[Txn, StateCommit, Deltas, Leaf]
	SafetyCheckPost RoundPostSafetyCheck[Txn, StateCommit, Deltas, Leaf]
}

// DefaultRound returns a Round whose three stages are all no-ops: the
// safety checks always pass and setup submits nothing, mirroring
// default_safety_check_pre / default_setup_round / default_safety_check_post.
func DefaultRound[Txn any, StateCommit any, Deltas any, Leaf comparable]() Round[Txn, StateCommit, Deltas, Leaf] {
	return Round[Txn, StateCommit, Deltas, Leaf]{
		SafetyCheckPre: func(context.Context, *TestRunner[Txn, StateCommit, Deltas, Leaf], *RoundCtx[Txn, StateCommit, Deltas]) error {
			return nil
		},
		SetupRound: func(context.Context, *TestRunner[Txn, StateCommit, Deltas, Leaf], *RoundCtx[Txn, StateCommit, Deltas]) ([]Txn, error) {
			return nil, nil
		},
		SafetyCheckPost: func(context.Context, *TestRunner[Txn, StateCommit, Deltas, Leaf], *RoundCtx[Txn, StateCommit, Deltas], RoundResult[Txn, StateCommit, Deltas]) error {
			return nil
		},
	}
}

// ConsensusHandle is the narrow surface the runner drives per replica: the
// Go rendition of HotShotHandle's methods actually called from
// testing/src/lib.rs (start_one_round, collect_round_events,
// get_decided_leaf, submit_transaction, shut_down). The external consensus
// engine is responsible for satisfying this; the harness never looks
// inside it.
type ConsensusHandle[Txn any, StateCommit any, Deltas any, Leaf comparable] interface {
	// StartOneRound unpauses the replica for one view of consensus.
	StartOneRound(ctx context.Context) error
	// CollectRoundEvents blocks until the replica has either committed a
	// new state/deltas pair or failed the round.
	CollectRoundEvents(ctx context.Context) (NodeOutcome[StateCommit, Deltas], error)
	// GetDecidedLeaf returns the replica's current decided leaf.
	GetDecidedLeaf(ctx context.Context) (Leaf, error)
	// SubmitTransaction proposes txn to this replica.
	SubmitTransaction(ctx context.Context, txn Txn) error
	// ShutDown releases this replica's resources.
	ShutDown(ctx context.Context) error
}

// Constructor models the external consensus engine's init(...) entry
// point (HotShot::init in the original): given a node's identity, derived
// key pair, node id, quorum/committee exchanges, storage and a genesis
// initializer, it produces a ConsensusHandle or an error. storage,
// nodeConfig and genesis are passed through opaquely, the Go rendition of
// I::Storage / HotShotConfig<...> / HotShotInitializer (spec.md §4.3
// treats all three as caller-owned).
type Constructor[Txn any, StateCommit any, Deltas any, Leaf comparable] func(
	ctx context.Context,
	nodeID uint64,
	keys KeyPair,
	quorum *Exchange,
	committee *Exchange,
	storage any,
	nodeConfig any,
	genesis any,
) (ConsensusHandle[Txn, StateCommit, Deltas, Leaf], error)

// errNoSuchNode builds the ErrNoSuchNode error Shutdown returns for an
// unknown or already-removed node id, listing the ids still held.
func errNoSuchNode(nodeIDs []uint64, requested uint64) error {
	return fmt.Errorf("%w: requested %d, have %v", ErrNoSuchNode, requested, nodeIDs)
}
