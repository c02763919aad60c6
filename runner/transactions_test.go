// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/bft-harness/runner"
)

func newFakeRunnerWithTxnGen() (*runner.TestRunner[string, string, []string, string], map[uint64]*fakeHandle) {
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
	r := runner.NewLauncher[string, string, []string, string](constructor).
		WithTransactionGenerator(func(_ context.Context, leaf string) (string, error) {
			return "txn-against-" + leaf, nil
		}).
		Launch()
	return r, handles
}

func TestAddRandomTransactionTargetsExplicitNode(t *testing.T) {
	r, handles := newFakeRunnerWithTxnGen()
	ids, err := r.AddNodes(context.Background(), 3)
	require.NoError(t, err)

	target := ids[2]
	txn, err := r.AddRandomTransaction(context.Background(), &target)
	require.NoError(t, err)
	require.Equal(t, "txn-against-genesis", txn)
	require.Equal(t, []string{txn}, handles[target].submitted)
	require.Empty(t, handles[ids[0]].submitted)
	require.Empty(t, handles[ids[1]].submitted)
}

func TestAddRandomTransactionPicksSomeNodeWhenUnspecified(t *testing.T) {
	r, handles := newFakeRunnerWithTxnGen()
	ids, err := r.AddNodes(context.Background(), 5)
	require.NoError(t, err)

	txn, err := r.AddRandomTransaction(context.Background(), nil)
	require.NoError(t, err)

	submittedTo := 0
	for _, id := range ids {
		submittedTo += len(handles[id].submitted)
	}
	require.Equal(t, 1, submittedTo)
	require.Equal(t, "txn-against-genesis", txn)
}

func TestAddRandomTransactionsAccumulatesResults(t *testing.T) {
	r, _ := newFakeRunnerWithTxnGen()
	_, err := r.AddNodes(context.Background(), 2)
	require.NoError(t, err)

	txns, err := r.AddRandomTransactions(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, txns, 5)
}

func TestAddRandomTransactionPanicsWithNoNodes(t *testing.T) {
	r, _ := newFakeRunnerWithTxnGen()

	require.Panics(t, func() {
		_, _ = r.AddRandomTransaction(context.Background(), nil)
	})
}
