// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/bft-harness/metrics"
	"github.com/luxfi/bft-harness/runner"
)

func TestExecuteRoundRecordsMetrics(t *testing.T) {
	handles := make(map[uint64]*fakeHandle)
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
		handles[nodeID] = h
		return h, nil
	}

	reg := metrics.NewRegistry()
	r := runner.NewLauncher[string, string, []string, string](constructor).
		WithMetrics(reg).
		Launch()

	_, err := r.AddNodes(context.Background(), 3)
	require.NoError(t, err)

	rctx := &runner.RoundCtx[string, string, []string]{}
	require.NoError(t, r.ExecuteRound(context.Background(), rctx))

	duration, err := reg.GetAverager("round_duration_seconds")
	require.NoError(t, err)
	require.GreaterOrEqual(t, duration.Read(), 0.0)

	failures, err := reg.GetCounter("round_failures_total")
	require.NoError(t, err)
	require.Equal(t, int64(0), failures.Read())

	always := runner.DefaultRound[string, string, []string, string]()
	always.SafetyCheckPost = func(context.Context, *runner.TestRunner[string, string, []string, string], *runner.RoundCtx[string, string, []string], runner.RoundResult[string, string, []string]) error {
		return errors.New("always fails")
	}
	r.WithRound(always)

	require.Error(t, r.ExecuteRound(context.Background(), rctx))
	require.Equal(t, int64(1), failures.Read())
}
