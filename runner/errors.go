// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import "errors"

// ConsensusFailedError variants, the Go rendition of the original's
// ConsensusFailedError enum (testing/src/lib.rs). Go has no tagged-union
// errors, so each variant is its own sentinel; callers that need the
// structured detail (node_ids, requested_id) get it via fmt.Errorf
// wrapping, inspectable with errors.Is/errors.As as usual.
var (
	ErrSafetyFailed              = errors.New("runner: safety condition failed")
	ErrNoSuchNode                = errors.New("runner: no such node")
	ErrTimedOutWithoutAnyLeader  = errors.New("runner: view timed out without any leader")
	ErrNoTransactionsSubmitted  = errors.New("runner: no transactions submitted")
	ErrReplicasTimedOut          = errors.New("runner: replicas timed out")
	ErrInconsistentAfterTxn      = errors.New("runner: states inconsistent after transaction")
	ErrTooManyConsecutiveFailures = errors.New("runner: too many consecutive failures")
	ErrTooManyViewFailures       = errors.New("runner: too many view failures")
	ErrInconsistentLeaves        = errors.New("runner: inconsistent leaves")
	ErrInconsistentStates        = errors.New("runner: inconsistent states")
	ErrInconsistentBlocks        = errors.New("runner: inconsistent blocks")

	// ErrTooManyFailures is ConsensusTestError::TooManyFailures, returned by
	// ExecuteRounds once num_fails exceeds fail_threshold.
	ErrTooManyFailures = errors.New("runner: too many failed rounds")
)

// Transaction-related errors, the Go rendition of TransactionError.
var (
	ErrNoNodes       = errors.New("runner: no valid nodes online")
	ErrNoValidBalance = errors.New("runner: no valid balance available")
	ErrInvalidNode    = errors.New("runner: requested node does not exist")
)
