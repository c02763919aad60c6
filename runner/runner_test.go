// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner_test

import (
	"context"
	"sync"

	"github.com/luxfi/bft-harness/runner"
)

// fakeHandle is a hand-rolled stand-in for runner.ConsensusHandle used by
// the lifecycle and round-execution tests that need many cheaply
// configurable replicas rather than gomock's call-expectation ceremony
// (runnermock.MockConsensusHandle is reserved for the tests that actually
// assert on call sequencing/counts).
type fakeHandle struct {
	mu sync.Mutex

	leaf    string
	leafErr error

	startErr     error
	startCalls   int
	collectErr   error
	collectCalls int
	outcome      runner.NodeOutcome[string, []string]

	submitErr  error
	submitted  []string
	shutdownErr error
	shutdownCalls int
}

func (f *fakeHandle) StartOneRound(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	return f.startErr
}

func (f *fakeHandle) CollectRoundEvents(context.Context) (runner.NodeOutcome[string, []string], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collectCalls++
	return f.outcome, f.collectErr
}

func (f *fakeHandle) GetDecidedLeaf(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leaf, f.leafErr
}

func (f *fakeHandle) SubmitTransaction(_ context.Context, txn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, txn)
	return nil
}

func (f *fakeHandle) ShutDown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdownCalls++
	return f.shutdownErr
}

var _ runner.ConsensusHandle[string, string, []string, string] = (*fakeHandle)(nil)

// newFakeRunner launches a TestRunner[string, string, []string, string]
// whose Constructor hands back a *fakeHandle per node, recorded in the
// returned map keyed by node_id so tests can script each replica's
// behaviour after AddNodes.
func newFakeRunner() (*runner.TestRunner[string, string, []string, string], map[uint64]*fakeHandle) {
	handles := make(map[uint64]*fakeHandle)
	var mu sync.Mutex

	constructor := func(
		_ context.Context,
		nodeID uint64,
		_ runner.KeyPair,
		_ *runner.Exchange,
		_ *runner.Exchange,
		_ any,
		_ any,
		_ any,
	) (runner.ConsensusHandle[string, string, []string, string], error) {
		h := &fakeHandle{leaf: "genesis"}
		mu.Lock()
		handles[nodeID] = h
		mu.Unlock()
		return h, nil
	}

	r := runner.NewLauncher[string, string, []string, string](constructor).Launch()
	return r, handles
}
