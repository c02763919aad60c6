// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"context"
	"fmt"
	"time"

	golog "github.com/luxfi/log"

	"github.com/luxfi/bft-harness/choices"
)

// RoundState names the per-round state machine of spec.md §4.4:
// Pending -> PreChecking -> SettingUp -> Running -> PostChecking ->
// {Decided, Failed}. Transitions are sequential; failure in any state
// except Running is terminal for the round. Running is terminal only once
// every handle has returned from CollectRoundEvents — partial per-node
// failures are carried forward into PostChecking as part of the
// RoundResult rather than failing the round outright.
type RoundState uint8

const (
	RoundPending RoundState = iota
	RoundPreChecking
	RoundSettingUp
	RoundRunning
	RoundPostChecking
	RoundDecided
	RoundFailed
)

func (s RoundState) String() string {
	switch s {
	case RoundPending:
		return "pending"
	case RoundPreChecking:
		return "pre_checking"
	case RoundSettingUp:
		return "setting_up"
	case RoundRunning:
		return "running"
	case RoundPostChecking:
		return "post_checking"
	case RoundDecided:
		return "decided"
	case RoundFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExecuteRounds drives a fixed budget of num_success + fail_threshold
// round attempts (spec.md §4.4). A round-level failure (an error from any
// pipeline stage) increments the fail counter; exceeding fail_threshold
// returns ErrTooManyFailures immediately. Successful rounds are not
// counted toward early termination — the loop always runs the full budget
// unless the fail threshold is exceeded, matching the original's
// execute_rounds exactly.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) ExecuteRounds(ctx context.Context, numSuccess, failThreshold int) error {
	numFails := 0
	rctx := &RoundCtx[Txn, StateCommit, Deltas]{}
	for i := 0; i < numSuccess+failThreshold; i++ {
		if err := r.ExecuteRound(ctx, rctx); err != nil {
			numFails++
			r.log.Error("round failed", golog.Int("round", i), golog.Err(err))
			if numFails > failThreshold {
				r.log.Error("too many failures, aborting")
				return ErrTooManyFailures
			}
		}
	}
	return nil
}

// ExecuteRound runs the four-stage pipeline of spec.md §4.4 once:
// pre-check, setup, execution (run_one_round), post-check. A failure in
// pre-check or setup short-circuits the round without attempting
// execution; a failure in post-check is reported after the round has
// already executed to completion.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) ExecuteRound(ctx context.Context, rctx *RoundCtx[Txn, StateCommit, Deltas]) error {
	r.mu.Lock()
	round := r.round
	r.mu.Unlock()

	start := time.Now()
	defer func() {
		if r.roundDuration != nil {
			r.roundDuration.Observe(time.Since(start).Seconds())
		}
	}()

	state := RoundPreChecking
	if err := round.SafetyCheckPre(ctx, r, rctx); err != nil {
		r.log.Debug("round failed", golog.String("state", state.String()), golog.Err(err))
		r.recordRoundFailure()
		return fmt.Errorf("%w: pre-check: %v", ErrSafetyFailed, err)
	}

	state = RoundSettingUp
	txns, err := round.SetupRound(ctx, r, rctx)
	if err != nil {
		r.log.Debug("round failed", golog.String("state", state.String()), golog.Err(err))
		r.recordRoundFailure()
		return fmt.Errorf("round setup: %w", err)
	}

	state = RoundRunning
	result := r.runOneRound(ctx, txns)

	state = RoundPostChecking
	if err := round.SafetyCheckPost(ctx, r, rctx, result); err != nil {
		state = RoundFailed
		r.log.Debug("round failed", golog.String("state", state.String()), golog.Err(err))
		rctx.PriorRoundResults = append(rctx.PriorRoundResults, result)
		rctx.TotalFailedViews++
		rctx.ViewsSinceProgress++
		r.recordRoundFailure()
		return fmt.Errorf("%w: post-check: %v", ErrSafetyFailed, err)
	}

	state = RoundDecided
	rctx.PriorRoundResults = append(rctx.PriorRoundResults, result)
	if len(result.SuccessNodes) > 0 {
		rctx.ViewsSinceProgress = 0
	} else {
		rctx.ViewsSinceProgress++
	}
	r.log.Debug("round complete", golog.String("state", state.String()))
	return nil
}

// recordRoundFailure increments the round-failure counter if this runner
// was launched with a metrics registry (it always is via Launcher.Launch,
// but stays nil-safe for runners built by hand in tests).
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) recordRoundFailure() {
	if r.roundFailures != nil {
		r.roundFailures.Inc()
	}
}

// runOneRound unpauses every replica for one view and waits for it to
// complete, the Go rendition of run_one_round (spec.md §4.4): it triggers
// StartOneRound on every node with no ordering guarantee across nodes,
// then awaits CollectRoundEvents in node-insertion order so success/failed
// maps are populated deterministically given deterministic replica
// outcomes. The round runs to completion even if some nodes fail.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) runOneRound(ctx context.Context, txns []Txn) RoundResult[Txn, StateCommit, Deltas] {
	r.mu.Lock()
	nodes := make([]*node[Txn, StateCommit, Deltas, Leaf], len(r.nodes))
	copy(nodes, r.nodes)
	r.mu.Unlock()

	r.log.Info("running one round", golog.Int("num_nodes", len(nodes)))
	for _, n := range nodes {
		if err := n.handle.StartOneRound(ctx); err != nil {
			r.log.Warn("start_one_round failed", golog.Int("node_id", int(n.id)), golog.Err(err))
		}
	}

	successNodes := make(map[uint64]NodeOutcome[StateCommit, Deltas], len(nodes))
	failedNodes := make(map[uint64]error)
	for _, n := range nodes {
		outcome, err := n.handle.CollectRoundEvents(ctx)
		if err != nil {
			failedNodes[n.id] = err
			continue
		}
		outcome.Status = choices.Accepted
		successNodes[n.id] = outcome
	}
	r.log.Info("round complete", golog.Int("succeeded", len(successNodes)), golog.Int("failed", len(failedNodes)))

	f := byzantineFaultBound(len(nodes))
	return RoundResult[Txn, StateCommit, Deltas]{
		Txns:         txns,
		SuccessNodes: successNodes,
		FailedNodes:  failedNodes,
		Success:      len(failedNodes) <= f,
	}
}

// byzantineFaultBound is f = floor((n-1)/3), the Byzantine fault tolerance
// bound spec.md's GLOSSARY and §4.4's resolved open question define.
func byzantineFaultBound(n int) int {
	if n == 0 {
		return 0
	}
	return (n - 1) / 3
}
