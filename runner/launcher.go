// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	golog "github.com/luxfi/log"

	"github.com/luxfi/bft-harness/metrics"
)

// Launcher is the builder that accumulates generators and configuration
// before Launch() turns it into a TestRunner, restoring the original's
// TestLauncher (SPEC_FULL §12): "This launcher can be configured to have a
// custom networking layer, initial state, etc. Calling
// TestLauncher::launch() will turn this launcher into a TestRunner."
// Matches the teacher's heavy use of the builder pattern
// (config/builder.go-style chained With* methods).
type Launcher[Txn any, StateCommit any, Deltas any, Leaf comparable] struct {
	quorumGen    Generator[*Exchange]
	committeeGen Generator[*Exchange]
	storageGen   StorageGenerator

	defaultNodeConfig any
	genesis           any
	constructor       Constructor[Txn, StateCommit, Deltas, Leaf]
	txnGen            TransactionGenerator[Txn, Leaf]
	round             Round[Txn, StateCommit, Deltas, Leaf]

	log        golog.Logger
	metricsReg metrics.Registry
}

// NewLauncher returns a Launcher with the default Round pipeline
// (no-op / empty-txn-list / accept), a shared quorum and committee
// exchange reused across every node (the common case: one synthetic
// subnet per TestRunner instance), and a no-op storage generator. The
// constructor is the one required piece — it is the external collaborator
// spec.md §6 names (HotShot::init's Go rendition).
func NewLauncher[Txn any, StateCommit any, Deltas any, Leaf comparable](constructor Constructor[Txn, StateCommit, Deltas, Leaf]) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	sharedQuorum := NewExchange()
	sharedCommittee := NewExchange()
	return &Launcher[Txn, StateCommit, Deltas, Leaf]{
		quorumGen:    func(uint64) *Exchange { return sharedQuorum },
		committeeGen: func(uint64) *Exchange { return sharedCommittee },
		storageGen:   func(uint64) any { return nil },
		constructor:  constructor,
		round:        DefaultRound[Txn, StateCommit, Deltas, Leaf](),
	}
}

// WithQuorumNetworkGenerator overrides the per-node_id quorum exchange
// generator (spec.md §4.3's first generator).
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithQuorumNetworkGenerator(gen Generator[*Exchange]) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.quorumGen = gen
	return l
}

// WithCommitteeNetworkGenerator overrides the per-node_id committee
// exchange generator (spec.md §4.3's second generator).
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithCommitteeNetworkGenerator(gen Generator[*Exchange]) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.committeeGen = gen
	return l
}

// WithStorageGenerator overrides the per-node_id storage generator
// (spec.md §4.3's third generator, SPEC_FULL §12's supplement).
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithStorageGenerator(gen StorageGenerator) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.storageGen = gen
	return l
}

// WithDefaultNodeConfig sets the base configuration AddNodes clones into
// each new replica (spec.md §3's default_node_config).
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithDefaultNodeConfig(cfg any) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.defaultNodeConfig = cfg
	return l
}

// WithGenesisInitializer sets the genesis initializer handed to the
// Constructor for every node (spec.md §4.3: "a genesis initializer").
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithGenesisInitializer(genesis any) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.genesis = genesis
	return l
}

// WithTransactionGenerator sets the collaborator AddRandomTransaction uses
// to manufacture a transaction against a leaf (spec.md §4.5).
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithTransactionGenerator(gen TransactionGenerator[Txn, Leaf]) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.txnGen = gen
	return l
}

// WithRound sets the Round pipeline (pre-check/setup/post-check) the
// launched TestRunner starts with.
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithRound(round Round[Txn, StateCommit, Deltas, Leaf]) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.round = round
	return l
}

// WithLogger sets the logger every component of the launched TestRunner
// uses.
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithLogger(log golog.Logger) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.log = log
	return l
}

// WithMetrics sets the metrics.Registry the launched TestRunner registers
// its round-duration and round-failure instruments against (SPEC_FULL §10:
// the harness threads a metrics gatherer through the same way HotShot::init
// threads a NoMetrics placeholder). Defaults to a fresh in-process registry
// when unset, so callers don't need a Prometheus registry to run tests.
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) WithMetrics(reg metrics.Registry) *Launcher[Txn, StateCommit, Deltas, Leaf] {
	l.metricsReg = reg
	return l
}

// Launch turns this Launcher into a TestRunner (original's
// TestLauncher::launch()). The returned runner holds no nodes yet; call
// AddNodes to populate it.
func (l *Launcher[Txn, StateCommit, Deltas, Leaf]) Launch() *TestRunner[Txn, StateCommit, Deltas, Leaf] {
	log := l.log
	if log == nil {
		log = newNoOpLog()
	}
	reg := l.metricsReg
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &TestRunner[Txn, StateCommit, Deltas, Leaf]{
		log:               log,
		quorumGen:         l.quorumGen,
		committeeGen:      l.committeeGen,
		storageGen:        l.storageGen,
		defaultNodeConfig: l.defaultNodeConfig,
		genesis:           l.genesis,
		constructor:       l.constructor,
		txnGen:            l.txnGen,
		round:             l.round,
		metricsReg:        reg,
		roundDuration:     reg.NewAverager("round_duration_seconds"),
		roundFailures:     reg.NewCounter("round_failures_total"),
	}
}
