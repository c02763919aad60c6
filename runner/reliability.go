// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runner

import (
	"fmt"
	"math/rand"

	"github.com/luxfi/bft-harness/utils/sampler"
)

// NetworkReliability restores the original's network_reliability module
// (SPEC_FULL §12): a pluggable unreliable-network model a Round.SetupRound
// hook may consult before submitting a transaction or otherwise driving a
// round, deciding whether a given delivery should be dropped this round.
// The harness itself never calls this — it is exposed for test authors who
// want to inject faults the way spec.md §1's "injects transactions and
// faults" describes.
type NetworkReliability interface {
	// ShouldDrop reports whether a message from `from` to `to` should be
	// dropped this round.
	ShouldDrop(from, to uint64) bool
}

// PerfectReliability never drops anything, the default used when no fault
// injection is configured.
type PerfectReliability struct{}

func (PerfectReliability) ShouldDrop(uint64, uint64) bool { return false }

// ChaosReliability drops a message with a fixed probability, grounded on
// testutils/network.go's dropRate/SetDropRate field and shouldDrop method.
type ChaosReliability struct {
	dropRate float64
	rng      *rand.Rand
}

// NewChaosReliability returns a ChaosReliability that drops messages with
// probability dropRate (0.0-1.0), seeded for reproducible test runs.
func NewChaosReliability(dropRate float64, seed int64) *ChaosReliability {
	return &ChaosReliability{
		dropRate: dropRate,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// SetDropRate adjusts the drop probability mid-test, mirroring
// testutils.Network.SetDropRate.
func (c *ChaosReliability) SetDropRate(rate float64) {
	c.dropRate = rate
}

func (c *ChaosReliability) ShouldDrop(uint64, uint64) bool {
	return c.rng.Float64() < c.dropRate
}

// WeightedReliability models a handful of flaky replicas instead of
// ChaosReliability's network-wide flat rate: deliveries addressed to one of
// targets are dropped with probability dropRate, with which target gets
// blamed on a given draw chosen by utils/sampler.WeightedWithoutReplacement
// in proportion to faultWeights (a heavier weight means that target is
// picked, and therefore penalized, more often).
type WeightedReliability struct {
	dropRate float64
	targets  []uint64
	sampler  sampler.WeightedWithoutReplacement
	rng      *rand.Rand
}

// NewWeightedReliability builds a WeightedReliability over targets, one
// faultWeight per target (same length, same order). seed drives both the
// drop-rate coin flip and the weighted target draw.
func NewWeightedReliability(targets []uint64, faultWeights []uint64, dropRate float64, seed int64) (*WeightedReliability, error) {
	if len(targets) != len(faultWeights) {
		return nil, fmt.Errorf("weighted reliability: %d targets but %d fault weights", len(targets), len(faultWeights))
	}
	s := sampler.NewWeightedWithoutReplacement(sampler.NewSource(seed))
	if err := s.Initialize(faultWeights); err != nil {
		return nil, fmt.Errorf("initializing weighted fault sampler: %w", err)
	}
	return &WeightedReliability{
		dropRate: dropRate,
		targets:  append([]uint64(nil), targets...),
		sampler:  s,
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

// ShouldDrop flips a dropRate-weighted coin, then, only on a drop, asks the
// weighted sampler which target is blamed this draw; the message is dropped
// only if that target is to.
func (w *WeightedReliability) ShouldDrop(_ uint64, to uint64) bool {
	if w.rng.Float64() >= w.dropRate {
		return false
	}
	idx, ok := w.sampler.Sample(1)
	if !ok {
		return false
	}
	return w.targets[idx[0]] == to
}
