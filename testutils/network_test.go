// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutils_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"

	"github.com/luxfi/bft-harness/testutils"
)

// TestNetworkDeliversMessagesBetweenNodes exercises the basic send/route
// path: a message placed on one node's Outbox shows up on the recipient's
// Inbox once the simulated network has had time to route it.
func TestNetworkDeliversMessagesBetweenNodes(t *testing.T) {
	net := testutils.NewNetwork(1)
	a := net.AddNode(ids.GenerateTestNodeID(), time.Millisecond)
	b := net.AddNode(ids.GenerateTestNodeID(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	net.Start(ctx)

	net.SendAsync(ctx, &testutils.Message{From: a.ID, To: b.ID, Type: "ping"})

	select {
	case msg := <-b.Inbox:
		require.Equal(t, "ping", msg.Type)
		require.Equal(t, a.ID, msg.From)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

// TestNetworkPartitionBlocksCrossGroupDelivery exercises Partition/Heal:
// while two nodes are in different partitions, messages between them are
// dropped; once healed, delivery resumes.
func TestNetworkPartitionBlocksCrossGroupDelivery(t *testing.T) {
	net := testutils.NewNetwork(2)
	a := net.AddNode(ids.GenerateTestNodeID(), time.Millisecond)
	b := net.AddNode(ids.GenerateTestNodeID(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	net.Start(ctx)

	net.Partition([]ids.NodeID{a.ID}, []ids.NodeID{b.ID})
	net.SendAsync(ctx, &testutils.Message{From: a.ID, To: b.ID, Type: "ping"})

	select {
	case <-b.Inbox:
		t.Fatal("message should have been dropped across the partition")
	case <-time.After(50 * time.Millisecond):
	}

	net.Heal()
	net.SendAsync(ctx, &testutils.Message{From: a.ID, To: b.ID, Type: "ping-again"})

	select {
	case msg := <-b.Inbox:
		require.Equal(t, "ping-again", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered after heal")
	}
}

// TestNetworkDropRateCanSuppressAllTraffic pins SetDropRate(1.0) as total
// message loss, the same knob node.SimCluster's drop-rate restoration
// (node/simnode.go) and runner.ChaosReliability both model.
func TestNetworkDropRateCanSuppressAllTraffic(t *testing.T) {
	net := testutils.NewNetwork(3)
	a := net.AddNode(ids.GenerateTestNodeID(), time.Millisecond)
	b := net.AddNode(ids.GenerateTestNodeID(), time.Millisecond)
	net.SetDropRate(1.0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	net.Start(ctx)

	net.SendAsync(ctx, &testutils.Message{From: a.ID, To: b.ID, Type: "ping"})

	select {
	case <-b.Inbox:
		t.Fatal("message should have been dropped by the 100% drop rate")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestNetworkSetLatencyDelaysDelivery exercises the per-edge latency map:
// an explicit SetLatency between two nodes overrides their default.
func TestNetworkSetLatencyDelaysDelivery(t *testing.T) {
	net := testutils.NewNetwork(4)
	a := net.AddNode(ids.GenerateTestNodeID(), 0)
	b := net.AddNode(ids.GenerateTestNodeID(), 0)
	net.SetLatency(a.ID, b.ID, 20)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	net.Start(ctx)

	start := time.Now()
	net.SendAsync(ctx, &testutils.Message{From: a.ID, To: b.ID, Type: "ping"})

	select {
	case <-b.Inbox:
		require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}
