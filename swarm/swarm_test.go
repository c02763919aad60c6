// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package swarm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/bft-harness/node"
	"github.com/luxfi/bft-harness/swarm"
)

type replicaState struct{}

// Scenario 1 from spec.md §8: happy cluster formation.
func TestSpinUpHappyClusterFormation(t *testing.T) {
	require := require.New(t)
	cluster := node.NewSimCluster(10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sw, err := swarm.SpinUp[replicaState](ctx, cluster.Factory(), 4, 1, 30*time.Second, nil)
	require.NoError(err)
	require.Len(sw.Handles, 4)

	for _, h := range sw.Handles {
		cs := h.ConnectionState()
		require.GreaterOrEqual(len(cs.ConnectedPeers), 3)
		require.GreaterOrEqual(len(cs.KnownPeers), 3)
	}
}

// Scenario 2 from spec.md §8: undersized cluster times out.
func TestSpinUpUndersizedClusterTimesOut(t *testing.T) {
	require := require.New(t)
	cluster := node.NewSimCluster(11)
	cluster.SetDropRate(1.0) // never deliver a connectivity update

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := swarm.SpinUp[replicaState](ctx, cluster.Factory(), 4, 1, 100*time.Millisecond, nil)
	require.ErrorIs(err, swarm.ErrTimeout)
}

// Boundary case from spec.md §8: all-bootstrap cluster still runs waiters.
func TestSpinUpAllBootstrap(t *testing.T) {
	require := require.New(t)
	cluster := node.NewSimCluster(12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sw, err := swarm.SpinUp[replicaState](ctx, cluster.Factory(), 4, 4, 5*time.Second, nil)
	require.NoError(err)
	require.Len(sw.Handles, 4)
}

// Boundary case from spec.md §8: a zero timeout hits TimeoutError trivially,
// since no waiter can observe a connectivity update before the deadline.
func TestSpinUpZeroTimeoutTimesOutTrivially(t *testing.T) {
	require := require.New(t)
	cluster := node.NewSimCluster(13)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := swarm.SpinUp[replicaState](ctx, cluster.Factory(), 4, 1, 0, nil)
	require.ErrorIs(err, swarm.ErrTimeout)
}

// A genuinely empty cluster request (0 nodes) has no waiters to join and
// succeeds vacuously regardless of the timeout.
func TestSpinUpEmptyClusterSucceedsVacuously(t *testing.T) {
	require := require.New(t)
	cluster := node.NewSimCluster(14)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sw, err := swarm.SpinUp[replicaState](ctx, cluster.Factory(), 0, 0, 50*time.Millisecond, nil)
	require.NoError(err)
	require.Empty(sw.Handles)
}

func TestRandomHandlePanicsOnEmptySlice(t *testing.T) {
	require := require.New(t)
	require.Panics(func() {
		swarm.RandomHandle[replicaState](nil)
	})
}
