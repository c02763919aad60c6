// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package swarm builds a mesh of node.Handles and waits for it to converge,
// the Go rendition of spin_up_swarms / wait_to_connect
// (network_node_handle.rs, spec.md §4.2).
package swarm

import (
	"context"
	"fmt"
	"time"

	golog "github.com/luxfi/log"
	"golang.org/x/sync/errgroup"

	harnesslog "github.com/luxfi/bft-harness/log"
	"github.com/luxfi/bft-harness/node"
	"github.com/luxfi/bft-harness/utils/sampler"
	"github.com/luxfi/bft-harness/utils/wrappers"
)

// ErrTimeout is returned when the connectivity waiters do not all converge
// before the caller-supplied deadline (spec.md §4.2, §7).
var ErrTimeout = fmt.Errorf("swarm: timed out waiting for cluster to connect")

// Swarm is the set of handles produced by SpinUp, parameterized over the
// same replica-state type every Handle in the cluster shares.
type Swarm[S any] struct {
	Handles []*node.Handle[S]
}

// connectivityThreshold is ⌈3·numOfNodes/4⌉, the empirical mesh-convergence
// target used throughout spec.md (§4.2, §8, GLOSSARY).
func connectivityThreshold(numOfNodes int) int {
	return (3*numOfNodes + 3) / 4
}

// SpinUp builds a numOfNodes-node mesh with numBootstrap seed nodes in two
// phases (spec.md §4.2):
//
//  1. Bootstrap phase: each new bootstrap node is seeded with every
//     previously created bootstrap node's (peer_id, listen_addr).
//  2. Regular phase: the rest are created with the fixed regular
//     configuration (min 10 / max 15 peers), each seeded with the full
//     bootstrap list.
//
// Every created handle gets a connectivity waiter; the whole batch is
// joined under timeoutLen. Any single node's construction failure aborts
// the whole cluster (already-created handles are killed).
func SpinUp[S any](ctx context.Context, factory node.Factory, numOfNodes, numBootstrap int, timeoutLen time.Duration, log golog.Logger) (*Swarm[S], error) {
	if log == nil {
		log = harnesslog.NewNoOpLogger()
	}

	handles := make([]*node.Handle[S], 0, numOfNodes)
	bootstrapAddrs := make([]node.PeerAddr, 0, numBootstrap)

	abort := func(cause error) (*Swarm[S], error) {
		killCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var killErrs wrappers.Errs
		for _, h := range handles {
			killErrs.Add(h.Kill(killCtx))
		}
		if killErrs.Errored() {
			log.Warn("errors tearing down partially-formed swarm", golog.String("errors", killErrs.String()))
		}
		return nil, cause
	}

	for i := 0; i < numBootstrap; i++ {
		h, err := node.New[S](ctx, bootstrapAddrs, node.BootstrapDefaults(), factory, log)
		if err != nil {
			return abort(fmt.Errorf("bootstrap node %d: %w", i, err))
		}
		bootstrapAddrs = append(bootstrapAddrs, node.PeerAddr{PeerID: h.PeerID(), Addr: h.ListenAddr()})
		handles = append(handles, h)
	}

	regularCfg := node.RegularDefaults()
	for j := 0; j < numOfNodes-numBootstrap; j++ {
		h, err := node.New[S](ctx, bootstrapAddrs, regularCfg, factory, log)
		if err != nil {
			return abort(fmt.Errorf("regular node %d: %w", numBootstrap+j, err))
		}
		handles = append(handles, h)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeoutLen)
	defer cancel()

	g, gctx := errgroup.WithContext(waitCtx)
	for idx, h := range handles {
		h, idx := h, idx
		g.Go(func() error {
			return waitToConnect(gctx, h, numOfNodes, idx)
		})
	}
	if err := g.Wait(); err != nil {
		return abort(fmt.Errorf("%w: %v", ErrTimeout, err))
	}

	log.Info("swarm connected", golog.Int("num_nodes", numOfNodes), golog.Int("num_bootstrap", numBootstrap))
	return &Swarm[S]{Handles: handles}, nil
}

// waitToConnect drains a handle's event stream until both connected_peers
// and known_peers have reported a set of size ≥ connectivityThreshold,
// updating connection_state on every relevant event regardless of whether
// the threshold has been met yet (spec.md §4.2).
func waitToConnect[S any](ctx context.Context, h *node.Handle[S], numOfNodes, nodeIdx int) error {
	threshold := connectivityThreshold(numOfNodes)
	connectedOK := false
	knownOK := false

	for !(connectedOK && knownOK) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("node %d: %w", nodeIdx, ctx.Err())
		case ev, ok := <-h.RecvNetwork():
			if !ok {
				return fmt.Errorf("node %d: %w", nodeIdx, node.ErrStreamClosed)
			}
			switch ev.Kind {
			case node.UpdateConnectedPeers:
				h.SetConnectedPeers(ev.Peers)
				if len(ev.Peers) >= threshold {
					connectedOK = true
				}
			case node.UpdateKnownPeers:
				h.SetKnownPeers(ev.Peers)
				if len(ev.Peers) >= threshold {
					knownOK = true
				}
			}
		}
	}
	return nil
}

// RandomHandle picks a uniformly random handle from the slice, restoring
// get_random_handle (network_node_handle.rs) — panics on an empty slice, as
// the original does.
func RandomHandle[S any](handles []*node.Handle[S]) *node.Handle[S] {
	u := sampler.NewUniform()
	if err := u.Initialize(len(handles)); err != nil {
		panic(err)
	}
	indices, _ := u.Sample(1)
	return handles[indices[0]]
}
