// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import "errors"

// Sentinel errors surfaced by Handle construction and shutdown, grounded on
// NetworkNodeHandleError (network_node_handle.rs) and mapped onto Go's
// error-kind grouping from config.ErrParametersInvalid's sentinel style.
var (
	// ErrNetwork covers endpoint creation, start, or listener-spawn failure.
	ErrNetwork = errors.New("node: network error")
	// ErrStreamClosed is returned when a send/recv hits an already-gone peer.
	ErrStreamClosed = errors.New("node: stream closed")
	// ErrNodeConfig is returned by config validation.
	ErrNodeConfig = errors.New("node: invalid node config")
	// ErrSend covers the initial subscribe command failing to enqueue.
	ErrSend = errors.New("node: send error")
)
