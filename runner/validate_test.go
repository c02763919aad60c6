// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/bft-harness/runner"
)

func setLeaves(t *testing.T, handles map[uint64]*fakeHandle, ids []uint64, leaves []string) {
	t.Helper()
	require.Len(t, leaves, len(ids))
	for i, id := range ids {
		handles[id].leaf = leaves[i]
	}
}

func TestValidateNodeStatesAcceptsUnanimousAgreement(t *testing.T) {
	r, handles := newFakeRunner()
	ids, err := r.AddNodes(context.Background(), 4)
	require.NoError(t, err)
	setLeaves(t, handles, ids, []string{"L", "L", "L", "L"})

	require.NoError(t, r.ValidateNodeStates(context.Background()))
}

func TestValidateNodeStatesAcceptsSingleMismatch(t *testing.T) {
	r, handles := newFakeRunner()
	ids, err := r.AddNodes(context.Background(), 4)
	require.NoError(t, err)
	setLeaves(t, handles, ids, []string{"L", "L", "L", "X"})

	require.NoError(t, r.ValidateNodeStates(context.Background()))
}

func TestValidateNodeStatesPanicsWhenRemainingNodesAgreeAgainstFirst(t *testing.T) {
	r, handles := newFakeRunner()
	ids, err := r.AddNodes(context.Background(), 4)
	require.NoError(t, err)
	setLeaves(t, handles, ids, []string{"Z", "L", "L", "L"})

	require.Panics(t, func() {
		_ = r.ValidateNodeStates(context.Background())
	})
}

func TestValidateNodeStatesAcceptsFirstNodeAsOutlierAmongScatteredRemainder(t *testing.T) {
	r, handles := newFakeRunner()
	ids, err := r.AddNodes(context.Background(), 3)
	require.NoError(t, err)
	setLeaves(t, handles, ids, []string{"L", "X", "Y"})

	require.NoError(t, r.ValidateNodeStates(context.Background()))
}

func TestValidateNodesFindsCollectiveLeafWithinTolerance(t *testing.T) {
	r, handles := newFakeRunner()
	ids, err := r.AddNodes(context.Background(), 4)
	require.NoError(t, err)
	setLeaves(t, handles, ids, []string{"L", "L", "L", "X"})

	leaf, found, err := r.ValidateNodes(context.Background(), runner.RoundCheckDescription{CheckLeaf: true, NumOutOfSync: 1})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "L", leaf)
}

func TestValidateNodesSkippedWhenCheckLeafFalse(t *testing.T) {
	r, handles := newFakeRunner()
	ids, err := r.AddNodes(context.Background(), 4)
	require.NoError(t, err)
	setLeaves(t, handles, ids, []string{"L", "L", "L", "X"})

	leaf, found, err := r.ValidateNodes(context.Background(), runner.RoundCheckDescription{CheckLeaf: false})
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, leaf)
}
