// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/crypto/bls/signer/localsigner"
	"github.com/luxfi/ids"
)

// KeyPair is the per-node test key pair add_node_with_config generates
// before constructing the quorum/committee exchanges (spec.md §4.3). The
// key and PeerID are freshly random for each node; they are not derived
// from node_id, so the same node_id gets different keys on each run.
// Grounded on
// the localsigner.New()/PublicKey() pattern used throughout the pack's own
// test contexts (validators/validators_consensus_test.go,
// test/consensustest/context.go), feeding directly into
// validators.Manager.AddStaker's *bls.PublicKey parameter.
type KeyPair struct {
	NodeID    uint64
	PeerID    ids.NodeID
	PublicKey *bls.PublicKey

	// signer holds the concrete *localsigner.LocalSigner; kept untyped here
	// since nothing in this harness needs to sign with it directly, only to
	// construct the exchanges below with a stable, real BLS public key per
	// replica.
	signer any
}

// deriveTestKeyPair generates a fresh BLS key pair and a stable overlay
// identity for a node. Test keys are not required to be reproducible across
// process runs — only stable for the lifetime of one node_id within one
// TestRunner, matching I::generate_test_key in the original's
// add_node_with_config. PeerID is grounded on ids.GenerateTestNodeID(), the
// same pattern validators_consensus_test.go uses for synthetic validator
// identities.
func deriveTestKeyPair(nodeID uint64) (KeyPair, error) {
	sk, err := localsigner.New()
	if err != nil {
		return KeyPair{}, fmt.Errorf("deriving test key pair for node %d: %w", nodeID, err)
	}
	return KeyPair{
		NodeID:    nodeID,
		PeerID:    ids.GenerateTestNodeID(),
		PublicKey: sk.PublicKey(),
		signer:    sk,
	}, nil
}
