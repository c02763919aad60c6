// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/bft-harness/runner"
)

func TestAddNodesAllocatesSequentialIDs(t *testing.T) {
	r, _ := newFakeRunner()

	ids, err := r.AddNodes(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1, 2}, ids)
	require.Equal(t, uint64(3), r.NextNodeID())
	require.Equal(t, 3, r.NumNodes())
}

func TestNodeIDsNeverReusedAfterShutdown(t *testing.T) {
	r, _ := newFakeRunner()

	_, err := r.AddNodes(context.Background(), 3)
	require.NoError(t, err)

	require.NoError(t, r.Shutdown(context.Background(), 1))
	require.Equal(t, []uint64{0, 2}, r.IDs())

	ids, err := r.AddNodes(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, ids)
	require.Equal(t, uint64(4), r.NextNodeID())
}

func TestShutdownUnknownNodeReturnsNoSuchNodeWithFullList(t *testing.T) {
	r, _ := newFakeRunner()

	_, err := r.AddNodes(context.Background(), 3)
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background(), 1))

	err = r.Shutdown(context.Background(), 1)
	require.ErrorIs(t, err, runner.ErrNoSuchNode)
	require.ErrorContains(t, err, "[0 2]")
}

func TestGetHandleReturnsFalseAfterShutdown(t *testing.T) {
	r, handles := newFakeRunner()

	ids, err := r.AddNodes(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background(), ids[0]))

	_, ok := r.GetHandle(ids[0])
	require.False(t, ok)

	h, ok := r.GetHandle(ids[1])
	require.True(t, ok)
	require.Same(t, handles[ids[1]], h)
}

func TestShutdownAllClearsNodesAndIsIdempotent(t *testing.T) {
	r, handles := newFakeRunner()

	_, err := r.AddNodes(context.Background(), 3)
	require.NoError(t, err)

	require.NoError(t, r.ShutdownAll(context.Background()))
	require.Equal(t, 0, r.NumNodes())
	for _, h := range handles {
		require.Equal(t, 1, h.shutdownCalls)
	}

	require.NoError(t, r.ShutdownAll(context.Background()))
}
