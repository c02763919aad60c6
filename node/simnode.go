// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/luxfi/ids"
)

// SimCluster is the in-memory NetworkNode implementation the harness uses in
// its own tests, adapted from the teacher's in-memory Network simulator
// (testutils/network.go) to the NetworkNode contract of spec.md §6 instead
// of that file's ad hoc Message/Inbox/Outbox shape. Nodes introduced to one
// another (directly or transitively, via the bootstrap seed list) converge
// to full mesh connectivity, mirroring what a real libp2p swarm achieves
// once gossip has had time to run — which is what spin_up_swarms's
// connectivity waiter is actually waiting for.
type SimCluster struct {
	mu       sync.Mutex
	nodes    map[ids.NodeID]*simEndpoint
	adj      map[ids.NodeID]map[ids.NodeID]struct{}
	dropRate float64
	rng      *rand.Rand
}

type simEndpoint struct {
	events chan NetworkEvent
	closed bool
}

// NewSimCluster creates an empty simulated overlay. seed drives the
// drop-rate draws made in recompute; node identities come from
// ids.GenerateTestNodeID and addresses are derived from them, so neither
// depends on seed.
func NewSimCluster(seed int64) *SimCluster {
	return &SimCluster{
		nodes: make(map[ids.NodeID]*simEndpoint),
		adj:   make(map[ids.NodeID]map[ids.NodeID]struct{}),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// SetDropRate sets the probability (0.0-1.0) that a connectivity update is
// suppressed for one round, used to model a lossy overlay in tests (restores
// the teacher simulator's dropRate knob for this package's own domain).
func (c *SimCluster) SetDropRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropRate = rate
}

// Factory returns a node.Factory bound to this cluster, suitable for
// node.New's factory argument.
func (c *SimCluster) Factory() Factory {
	return func(cfg Config) (NetworkNode, error) {
		return &SimNode{
			id:      ids.GenerateTestNodeID(),
			cluster: c,
		}, nil
	}
}

// SimNode is one endpoint in a SimCluster.
type SimNode struct {
	id      ids.NodeID
	cluster *SimCluster
}

func (n *SimNode) PeerID() ids.NodeID { return n.id }

// Start registers this node in the cluster and wires an edge to every known
// peer, then recomputes reachability for the whole affected component.
func (n *SimNode) Start(_ context.Context, listenAddr string, knownAddrs []PeerAddr) (string, error) {
	if listenAddr == "" {
		listenAddr = fmt.Sprintf("sim://%s", n.id)
	}

	c := n.cluster
	c.mu.Lock()
	if c.adj[n.id] == nil {
		c.adj[n.id] = make(map[ids.NodeID]struct{})
	}
	for _, peer := range knownAddrs {
		c.adj[n.id][peer.PeerID] = struct{}{}
		if c.adj[peer.PeerID] == nil {
			c.adj[peer.PeerID] = make(map[ids.NodeID]struct{})
		}
		c.adj[peer.PeerID][n.id] = struct{}{}
	}
	c.mu.Unlock()

	c.recompute()
	return listenAddr, nil
}

// SpawnListeners registers this node's event/command channels and returns
// them to the Handle. The command loop honors Subscribe (no-op; the
// simulator has a single implicit "global" topic) and Shutdown (deregisters
// the node, which is the simulator's equivalent of tearing down the swarm).
func (n *SimNode) SpawnListeners(ctx context.Context) (chan<- ClientRequest, <-chan NetworkEvent, error) {
	cmds := make(chan ClientRequest, 16)
	events := make(chan NetworkEvent, 64)

	c := n.cluster
	c.mu.Lock()
	c.nodes[n.id] = &simEndpoint{events: events}
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case req, ok := <-cmds:
				if !ok {
					return
				}
				switch req.Kind {
				case Shutdown:
					c.removeNode(n.id)
					return
				case Subscribe:
					// single implicit topic; nothing to route on.
				}
			}
		}
	}()

	// Re-broadcast the current view now that this node is listening, so a
	// node that joined after its peers already converged still hears about
	// them.
	c.recompute()

	return cmds, events, nil
}

// removeNode tears down a node's bookkeeping and closes its event channel
// exactly once, regardless of how many times Shutdown arrives.
func (c *SimCluster) removeNode(id ids.NodeID) {
	c.mu.Lock()
	ep, ok := c.nodes[id]
	if ok && !ep.closed {
		ep.closed = true
		close(ep.events)
	}
	delete(c.nodes, id)
	delete(c.adj, id)
	for _, peers := range c.adj {
		delete(peers, id)
	}
	c.mu.Unlock()
}

// recompute walks the adjacency graph's transitive closure per node and
// pushes fresh UpdateConnectedPeers/UpdateKnownPeers events to every
// registered node (unless the drop rate suppresses that node's pair this
// pass), whether or not its peer set changed. The simulator treats "connected" and
// "known" identically: both are the set of peers reachable via the
// introduction graph, since nothing in this in-memory model models a
// connected-but-not-yet-known or known-but-not-yet-connected state.
func (c *SimCluster) recompute() {
	c.mu.Lock()
	reach := make(map[ids.NodeID][]ids.NodeID, len(c.nodes))
	for id := range c.nodes {
		reach[id] = bfs(c.adj, id)
	}
	drop := c.dropRate
	rng := c.rng
	endpoints := make(map[ids.NodeID]*simEndpoint, len(c.nodes))
	for id, ep := range c.nodes {
		endpoints[id] = ep
	}
	c.mu.Unlock()

	for id, peers := range reach {
		if drop > 0 && rng.Float64() < drop {
			continue
		}
		ep := endpoints[id]
		if ep == nil {
			continue
		}
		send(ep, NetworkEvent{Kind: UpdateConnectedPeers, Peers: peers})
		send(ep, NetworkEvent{Kind: UpdateKnownPeers, Peers: peers})
	}
}

func send(ep *simEndpoint, ev NetworkEvent) {
	defer func() { recover() }() // swallow send-on-closed-channel races on shutdown
	select {
	case ep.events <- ev:
	default:
		// slow consumer: drop rather than block the recompute pass
		// (best-effort delivery; unlike testutils/network.go, whose SendAsync
		// blocks on a full outbox until its context is done).
	}
}

func bfs(adj map[ids.NodeID]map[ids.NodeID]struct{}, start ids.NodeID) []ids.NodeID {
	visited := map[ids.NodeID]struct{}{start: {}}
	queue := []ids.NodeID{start}
	var out []ids.NodeID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range adj[cur] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}
