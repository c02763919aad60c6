// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import "fmt"

// Type distinguishes a bootstrap (seed/introduction) node from a regular
// replica, mirroring NetworkNodeType in network_node_handle.rs.
type Type uint8

const (
	// Bootstrap nodes are seed peers; other nodes learn the overlay from them.
	Bootstrap Type = iota
	// Regular nodes join via the bootstrap list.
	Regular
)

func (t Type) String() string {
	switch t {
	case Bootstrap:
		return "bootstrap"
	case Regular:
		return "regular"
	default:
		return "unknown"
	}
}

// Config enumerates the node configuration surface spec.md §6 lists:
// node_type, min/max_num_peers, plus a Topic default resolving the
// "surface the hard-coded topic" open question (spec.md §9/§13).
type Config struct {
	NodeType     Type
	MinNumPeers  int
	MaxNumPeers  int
	Topic        string
}

// RegularDefaults returns the fixed regular-node configuration spin_up_swarms
// uses for the non-bootstrap phase: min peers 10, max peers 15 (spec.md §4.2).
func RegularDefaults() Config {
	return Config{
		NodeType:    Regular,
		MinNumPeers: 10,
		MaxNumPeers: 15,
		Topic:       defaultTopic,
	}
}

// BootstrapDefaults returns the configuration used for bootstrap-phase nodes.
func BootstrapDefaults() Config {
	return Config{
		NodeType: Bootstrap,
		Topic:    defaultTopic,
	}
}

const defaultTopic = "global"

// Validate checks the config is self-consistent.
func (c Config) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("%w: topic must not be empty", ErrNodeConfig)
	}
	if c.MaxNumPeers > 0 && c.MinNumPeers > c.MaxNumPeers {
		return fmt.Errorf("%w: min_num_peers (%d) exceeds max_num_peers (%d)", ErrNodeConfig, c.MinNumPeers, c.MaxNumPeers)
	}
	return nil
}

// withDefaultTopic fills the Topic field when the caller left it blank,
// matching new()'s hard-coded subscribe-to-"global" step.
func (c Config) withDefaultTopic() Config {
	if c.Topic == "" {
		c.Topic = defaultTopic
	}
	return c
}
