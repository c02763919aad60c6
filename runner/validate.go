// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"context"
	"fmt"
	"strings"

	golog "github.com/luxfi/log"

	"github.com/luxfi/bft-harness/codec"
)

// RoundCheckDescription restores the original's test_description::
// RoundCheckDescription (SPEC_FULL §12): whether ValidateNodes should
// bother comparing decided leaves at all, and how many out-of-sync nodes
// it should tolerate when looking for a collective decision.
type RoundCheckDescription struct {
	CheckLeaf    bool
	NumOutOfSync int
}

// ValidateNodeStates collects every node's decided leaf and compares it to
// the first node's, tolerating up to one mismatch (spec.md §4.4):
//
//   - 0 mismatches: accept.
//   - 1 mismatch: accept with a warning (known liveness quirk — an
//     honest-but-lagging replica).
//   - n-1 mismatches: if the remaining n-1 nodes all disagree with each
//     other too (no two of them share a leaf), the first node is just one
//     more voice in an already-scattered cluster; accept with a warning.
//     But if any two of the remaining nodes agree with each other, that's
//     a real majority the first node diverges from, and ValidateNodeStates
//     panics.
//   - any other count: panics with a dump of the diverging leaves.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) ValidateNodeStates(ctx context.Context) error {
	r.mu.Lock()
	nodes := make([]*node[Txn, StateCommit, Deltas, Leaf], len(r.nodes))
	copy(nodes, r.nodes)
	r.mu.Unlock()

	if len(nodes) == 0 {
		return nil
	}

	leaves := make([]Leaf, len(nodes))
	for i, n := range nodes {
		leaf, err := n.handle.GetDecidedLeaf(ctx)
		if err != nil {
			return fmt.Errorf("reading decided leaf for node %d: %w", n.id, err)
		}
		leaves[i] = leaf
	}

	first := leaves[0]
	remaining := leaves[1:]

	mismatchCount := 0
	for _, leaf := range remaining {
		if leaf != first {
			mismatchCount++
		}
	}

	switch {
	case mismatchCount == 0:
		r.log.Info("all nodes are on the same decided leaf")
		return nil
	case mismatchCount == 1:
		r.log.Warn("one node mismatch, accepting anyway")
		return nil
	case len(remaining) > 0 && mismatchCount == len(leaves)-1:
		allOthersMatch := true
		for i := 0; i < len(remaining)-1; i++ {
			for j := i + 1; j < len(remaining); j++ {
				if remaining[i] == remaining[j] {
					allOthersMatch = false
				}
			}
		}
		if allOthersMatch {
			r.log.Warn("first node is the outlier, accepting anyway")
			return nil
		}
	}

	panic(fmt.Sprintf("%v: %s", ErrInconsistentLeaves, dumpLeaves(leaves)))
}

// dumpLeaves produces a structured, re-decodable dump of diverging leaves
// for the ValidateNodeStates panic, using the harness's own JSON codec
// rather than a plain debug format (SPEC_FULL §11 — grounded in
// codec/codec.go).
func dumpLeaves[Leaf any](leaves []Leaf) string {
	var b strings.Builder
	for i, leaf := range leaves {
		data, err := codec.Codec.Marshal(codec.CurrentVersion, leaf)
		if err != nil {
			fmt.Fprintf(&b, "node %d: <unencodable: %v>; ", i, err)
			continue
		}
		fmt.Fprintf(&b, "node %d: %s; ", i, data)
	}
	return b.String()
}

// ValidateNodes groups every node's decided leaf by equality and returns
// the leaf held by at least n - desc.NumOutOfSync nodes, if any, as the
// "collective" decision. Only invoked when desc.CheckLeaf requests it. The
// original's validate_nodes computes this grouping but never returns it
// (spec.md §9's open question); this Go rendition returns the collective
// leaf and whether one was found instead of silently discarding the
// result, a deliberate behavior improvement recorded in DESIGN.md rather
// than a guess about hidden semantics.
func (r *TestRunner[Txn, StateCommit, Deltas, Leaf]) ValidateNodes(ctx context.Context, desc RoundCheckDescription) (Leaf, bool, error) {
	var zero Leaf
	if !desc.CheckLeaf {
		return zero, false, nil
	}

	r.mu.Lock()
	nodes := make([]*node[Txn, StateCommit, Deltas, Leaf], len(r.nodes))
	copy(nodes, r.nodes)
	r.mu.Unlock()

	counts := make(map[Leaf]int, len(nodes))
	for _, n := range nodes {
		leaf, err := n.handle.GetDecidedLeaf(ctx)
		if err != nil {
			return zero, false, fmt.Errorf("reading decided leaf for node %d: %w", n.id, err)
		}
		counts[leaf]++
	}

	collective := len(nodes) - desc.NumOutOfSync
	for leaf, count := range counts {
		if count >= collective {
			r.log.Debug("found collective leaf", golog.Int("num_nodes", count))
			return leaf, true, nil
		}
	}
	return zero, false, nil
}
