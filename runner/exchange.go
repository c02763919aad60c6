// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/validators"
)

// Exchange is the membership list a node consults to learn who else is in
// its quorum (or committee) and with what weight, the Go rendition of the
// original's QuorumNetworkGenerator / CommitteeNetworkGenerator output
// (spec.md §4.3, §11). It is a thin wrapper over validators.Manager scoped
// to one synthetic "subnet" per TestRunner instance, grounded on
// validator/validators.go's re-export surface (Manager, NewManager,
// ValidatorImpl) and validators/validators_consensus_test.go's
// AddStaker/TotalWeight/GetWeight usage.
type Exchange struct {
	manager validators.Manager
	subnet  ids.ID
}

// NewExchange builds an empty exchange scoped to a fresh synthetic subnet
// ID, so that two TestRunners sharing a process never collide inside one
// validators.Manager.
func NewExchange() *Exchange {
	return &Exchange{
		manager: validators.NewManager(),
		subnet:  ids.GenerateTestID(),
	}
}

// Register adds node as a staker of this exchange with equal weight 1,
// mirroring the original's flat, unweighted quorum membership (no
// proof-of-stake weighting is modeled; every replica counts once, per
// spec.md's Non-goals around staking economics).
func (e *Exchange) Register(nodeID ids.NodeID, key KeyPair) error {
	if err := e.manager.AddStaker(e.subnet, nodeID, key.PublicKey, ids.Empty, 1); err != nil {
		return fmt.Errorf("registering node %s in exchange: %w", nodeID, err)
	}
	return nil
}

// Remove drops a node from the exchange, used when shutdown/shutdown_all
// removes a replica mid-test so later rounds no longer count it towards
// quorum or committee membership.
func (e *Exchange) Remove(nodeID ids.NodeID) error {
	weight := e.manager.GetWeight(e.subnet, nodeID)
	if weight == 0 {
		return nil
	}
	return e.manager.RemoveWeight(e.subnet, nodeID, weight)
}

// TotalWeight returns the current membership size of the exchange (every
// registered node counts as weight 1, so this is also the node count).
func (e *Exchange) TotalWeight() (uint64, error) {
	return e.manager.TotalWeight(e.subnet)
}

// Manager exposes the underlying validators.Manager for consumers (e.g. a
// quorum/committee network generator supplied via Launcher) that need the
// full validators.State surface rather than this package's narrow view.
func (e *Exchange) Manager() validators.Manager { return e.manager }

// Subnet returns the synthetic subnet ID this exchange's stakers are scoped
// under.
func (e *Exchange) Subnet() ids.ID { return e.subnet }
