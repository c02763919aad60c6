// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"

	"github.com/luxfi/ids"
	"github.com/luxfi/p2p"

	"github.com/luxfi/bft-harness/utils/set"
)

// AppSender re-exports p2p.Sender, the same alias the teacher's VM package
// keeps for callers bridging a NetworkNode to a real gossip transport
// instead of SimNode (spec.md §6 leaves the overlay network out of scope,
// but a caller wiring one in still needs a name for the send-side contract).
type AppSender = p2p.Sender

// PeerAddr pairs a stable identity with an opaque overlay address, the Go
// analogue of the Rust (PeerId, Multiaddr) seed-list entries (spec.md §6).
// The address string is never parsed by the harness.
type PeerAddr struct {
	PeerID ids.NodeID
	Addr   string
}

// RequestKind enumerates the ClientRequest variants spec.md §6 recognizes.
type RequestKind uint8

const (
	Subscribe RequestKind = iota
	Shutdown
)

// ClientRequest is a command sent to the network node over send_network.
type ClientRequest struct {
	Kind  RequestKind
	Topic string // populated for Subscribe
}

// EventKind enumerates the NetworkEvent variants the connectivity waiter
// inspects; other variants round-trip through as EventOther and are ignored,
// matching the Rust "_ => {}" arm in wait_to_connect.
type EventKind uint8

const (
	UpdateConnectedPeers EventKind = iota
	UpdateKnownPeers
	EventOther
)

// NetworkEvent is a notification received over recv_network.
type NetworkEvent struct {
	Kind  EventKind
	Peers []ids.NodeID // the wholesale peer set reported by this event
}

// ConnectionData is the monotonically-overwritten view of the overlay a
// Handle keeps: connected_peers is who it currently has sessions open to,
// known_peers is everyone it has ever learned about (spec.md §3: both are
// modeled as set<PeerId>, so the harness uses the pack's own set.Set[T]
// rather than a bare slice).
type ConnectionData struct {
	ConnectedPeers set.Set[ids.NodeID]
	KnownPeers     set.Set[ids.NodeID]
}

// NetworkNode is the external overlay-network contract consumed by Handle
// (spec.md §6): one object per handle, owning exactly one overlay endpoint.
// Out of scope per spec.md §1 — a real implementation would bind this to a
// libp2p-style host; the harness ships only the in-memory SimNode (below),
// adapted from the teacher's Network test simulator.
type NetworkNode interface {
	// PeerID returns this endpoint's stable identity, available as soon as
	// the node object is constructed (before Start is called).
	PeerID() ids.NodeID
	// Start binds the local endpoint and dials the given known peers,
	// returning the address actually bound.
	Start(ctx context.Context, listenAddr string, knownAddrs []PeerAddr) (string, error)
	// SpawnListeners starts the node's internal listener task and returns
	// the command sender / event receiver pair the Handle will own.
	SpawnListeners(ctx context.Context) (chan<- ClientRequest, <-chan NetworkEvent, error)
}

// Factory constructs a NetworkNode for the given Config; the harness calls
// it once per Handle, analogous to NetworkNode::new(config) in the Rust
// original.
type Factory func(Config) (NetworkNode, error)
