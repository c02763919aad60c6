// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"context"
	"fmt"

	"github.com/luxfi/bft-harness/utils/sampler"
)

// TransactionGenerator manufactures a random transaction against a leaf,
// the external collaborator add_random_transaction defers to (spec.md
// §4.5: "asks the external implementation to manufacture a random
// transaction against that leaf"; the original's
// I::leaf_create_random_transaction).
type TransactionGenerator[Txn any, Leaf any] func(ctx context.Context, leaf Leaf) (Txn, error)

// AddRandomTransaction reads node[0]'s decided leaf as context, asks the
// runner's TransactionGenerator to manufacture a transaction against it,
// picks a target node (explicit nodeID, or a uniformly random one via
// utils/sampler.Uniform) and submits the transaction via that node's
// consensus handle (spec.md §4.5). Panics if the runner holds no nodes,
// matching the original's "Tried to add transaction, but no nodes have
// been added!" and spec.md §7's TransactionError::NoNodes policy.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) AddRandomTransaction(ctx context.Context, nodeID *uint64) (Txn, error) {
	r.mu.Lock()
	nodes := r.nodes
	r.mu.Unlock()

	var zero Txn
	if len(nodes) == 0 {
		panic(fmt.Sprintf("%v: tried to add a transaction with no nodes online", ErrNoNodes))
	}

	leaf, err := nodes[0].handle.GetDecidedLeaf(ctx)
	if err != nil {
		return zero, fmt.Errorf("reading node 0's decided leaf: %w", err)
	}

	txn, err := r.txnGen(ctx, leaf)
	if err != nil {
		return zero, fmt.Errorf("generating random transaction: %w", err)
	}

	target := nodes[0]
	if nodeID != nil {
		found := false
		for _, n := range nodes {
			if n.id == *nodeID {
				target = n
				found = true
				break
			}
		}
		if !found {
			return zero, fmt.Errorf("%w: node %d", ErrInvalidNode, *nodeID)
		}
	} else if len(nodes) > 1 {
		u := sampler.NewUniform()
		if err := u.Initialize(len(nodes)); err != nil {
			return zero, fmt.Errorf("initializing node sampler: %w", err)
		}
		idx, ok := u.Sample(1)
		if !ok {
			return zero, fmt.Errorf("sampling a random node out of %d", len(nodes))
		}
		target = nodes[idx[0]]
	}

	if err := target.handle.SubmitTransaction(ctx, txn); err != nil {
		return zero, fmt.Errorf("submitting transaction to node %d: %w", target.id, err)
	}
	return txn, nil
}

// AddRandomTransactions calls AddRandomTransaction n times sequentially,
// targeting a random node each time, and returns the accumulated list of
// submitted transactions (spec.md §4.5). It stops and returns the error at
// the first failed submission, along with the transactions already
// accumulated.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) AddRandomTransactions(ctx context.Context, n int) ([]Txn, error) {
	txns := make([]Txn, 0, n)
	for i := 0; i < n; i++ {
		txn, err := r.AddRandomTransaction(ctx, nil)
		if err != nil {
			return txns, fmt.Errorf("add_random_transactions: transaction %d of %d: %w", i, n, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}
