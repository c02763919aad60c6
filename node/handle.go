// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/luxfi/ids"
	golog "github.com/luxfi/log"

	harnesslog "github.com/luxfi/bft-harness/log"
	"github.com/luxfi/bft-harness/utils/set"
)

// Handle is the per-replica supervisor of spec.md §3/§4.1: it owns the
// channels to one NetworkNode, tracks connectivity, and guards a piece of
// user-defined replica state behind a mutex plus a change-notification
// primitive. S is the Rust NetworkNodeHandle<S>'s state type parameter.
type Handle[S any] struct {
	log golog.Logger

	listenAddr string
	peerID     ids.NodeID

	sendNetwork chan<- ClientRequest
	recvNetwork <-chan NetworkEvent

	killSwitch chan struct{}
	killOnce   sync.Once
	killMu     sync.Mutex
	killed     bool
	done       chan struct{}

	stateMu sync.RWMutex
	state   S

	stateChanged *stateWatch

	connMu          sync.RWMutex
	connectionState ConnectionData

	cfg Config

	lastHandlerErr error
}

// New constructs a Handle: builds the network node via factory, starts it
// listening on an OS-assigned port, spawns its listener task, allocates the
// one-shot kill switch, and subscribes to cfg.Topic — mirroring
// NetworkNodeHandle::new (network_node_handle.rs) exactly, including its
// error taxonomy (spec.md §4.1, §7).
func New[S any](ctx context.Context, knownAddrs []PeerAddr, cfg Config, factory Factory, log golog.Logger) (*Handle[S], error) {
	if log == nil {
		log = harnesslog.NewNoOpLogger()
	}
	cfg = cfg.withDefaultTopic()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	network, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing network node: %v", ErrNetwork, err)
	}

	listenAddr, err := network.Start(ctx, "", knownAddrs)
	if err != nil {
		return nil, fmt.Errorf("%w: starting network node: %v", ErrNetwork, err)
	}

	sendChan, recvChan, err := network.SpawnListeners(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: spawning listeners: %v", ErrNetwork, err)
	}

	h := &Handle[S]{
		log:          log,
		listenAddr:   listenAddr,
		peerID:       network.PeerID(),
		sendNetwork:  sendChan,
		recvNetwork:  recvChan,
		killSwitch:   make(chan struct{}),
		done:         make(chan struct{}),
		stateChanged: newStateWatch(),
		cfg:          cfg,
	}

	select {
	case h.sendNetwork <- ClientRequest{Kind: Subscribe, Topic: cfg.Topic}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: subscribing to %q: %v", ErrSend, cfg.Topic, ctx.Err())
	}

	log.Debug("node handle constructed", golog.Stringer("peer_id", h.peerID), golog.String("listen_addr", listenAddr))
	return h, nil
}

// PeerID returns the stable cryptographic identity of this endpoint.
func (h *Handle[S]) PeerID() ids.NodeID { return h.peerID }

// ListenAddr returns the local overlay address actually bound.
func (h *Handle[S]) ListenAddr() string { return h.listenAddr }

// Config returns the configuration this handle was constructed with.
func (h *Handle[S]) Config() Config { return h.cfg }

// RecvNetwork exposes the event-stream consumer end, as the Rust source
// clones recv_network into both spawn_handler's task and the connectivity
// waiter; flume receivers are MPMC-cloneable, a Go channel is inherently
// shared among readers, so no cloning step is needed.
func (h *Handle[S]) RecvNetwork() <-chan NetworkEvent { return h.recvNetwork }

// KillSwitch exposes the kill-signal channel; it closes exactly once.
func (h *Handle[S]) KillSwitch() <-chan struct{} { return h.killSwitch }

// State returns a copy of the user-defined replica state under the shared
// mutex.
func (h *Handle[S]) State() S {
	h.stateMu.RLock()
	defer h.stateMu.RUnlock()
	return h.state
}

// UpdateState mutates the replica state under the shared mutex and notifies
// anyone blocked in WaitForStateChange.
func (h *Handle[S]) UpdateState(fn func(*S)) {
	h.stateMu.Lock()
	fn(&h.state)
	h.stateMu.Unlock()
	h.stateChanged.notify()
}

// WaitForStateChange blocks until the state is next mutated via UpdateState,
// or ctx is done — the Go rendition of the Rust Condvar wait.
func (h *Handle[S]) WaitForStateChange(ctx context.Context) error {
	return h.stateChanged.wait(ctx)
}

// ConnectionState returns a snapshot of the connectivity view.
func (h *Handle[S]) ConnectionState() ConnectionData {
	h.connMu.RLock()
	defer h.connMu.RUnlock()
	return h.connectionState
}

// SetConnectedPeers overwrites connected_peers wholesale, as every
// UpdateConnectedPeers event does (spec.md §3).
func (h *Handle[S]) SetConnectedPeers(peers []ids.NodeID) {
	h.connMu.Lock()
	h.connectionState.ConnectedPeers = set.Of(peers...)
	h.connMu.Unlock()
}

// SetKnownPeers overwrites known_peers wholesale.
func (h *Handle[S]) SetKnownPeers(peers []ids.NodeID) {
	h.connMu.Lock()
	h.connectionState.KnownPeers = set.Of(peers...)
	h.connMu.Unlock()
}

// Kill sends Shutdown on the command channel and then signals the kill
// switch (spec.md §4.1). Any call after the first returns ErrStreamClosed
// without sending anything — kill is idempotent at the network-node level,
// so a second call simply observes "already gone". If ctx ends before
// Shutdown is enqueued, the error wraps ErrStreamClosed and the kill switch
// is not signalled.
func (h *Handle[S]) Kill(ctx context.Context) error {
	h.killMu.Lock()
	alreadyKilled := h.killed
	h.killed = true
	h.killMu.Unlock()

	if alreadyKilled {
		return ErrStreamClosed
	}

	select {
	case h.sendNetwork <- ClientRequest{Kind: Shutdown}:
	case <-ctx.Done():
		return fmt.Errorf("%w: sending shutdown: %v", ErrStreamClosed, ctx.Err())
	}

	h.killOnce.Do(func() { close(h.killSwitch) })
	return nil
}

// Done returns a channel closed once this handle's spawned event-handler
// task (started by SpawnHandler) has exited.
func (h *Handle[S]) Done() <-chan struct{} { return h.done }

// EventHandler processes one network event for a handle whose lifetime
// bounds the task (spec.md §3 invariant).
type EventHandler[S any] func(ctx context.Context, ev NetworkEvent, h *Handle[S]) error

// SpawnHandler starts the long-running task that cooperatively multiplexes
// the kill switch and the event stream (spec.md §4.1): on a kill signal it
// exits; on each event it invokes eventHandler and awaits completion before
// consuming the next one, preserving FIFO delivery order. A failed handler
// invocation ends the task; the error is logged (the Rust version propagates
// it out of the spawned task, which Go cannot do across goroutines without a
// result channel, so the task's last error surfaces via LastHandlerError).
func SpawnHandler[S any](ctx context.Context, h *Handle[S], eventHandler EventHandler[S]) {
	go func() {
		defer close(h.done)
		for {
			select {
			case <-h.killSwitch:
				return
			case ev, ok := <-h.recvNetwork:
				if !ok {
					return
				}
				if err := eventHandler(ctx, ev, h); err != nil {
					h.log.Warn("event handler failed, stopping task", golog.Stringer("peer_id", h.peerID), golog.Err(err))
					h.recordHandlerErr(err)
					return
				}
			}
		}
	}()
}

func (h *Handle[S]) recordHandlerErr(err error) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	h.lastHandlerErr = err
}

// LastHandlerError returns the error that terminated the spawned handler
// task, if any.
func (h *Handle[S]) LastHandlerError() error {
	h.stateMu.RLock()
	defer h.stateMu.RUnlock()
	return h.lastHandlerErr
}
