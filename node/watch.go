// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"sync"
)

// stateWatch is a versioned broadcast/notify primitive replacing the
// Rust Condvar paired with Arc<Mutex<S>> (spec.md §3, §9: "model as a
// broadcast channel or a versioned snapshot + notification primitive").
// Every notify() closes the current generation's channel, waking every
// waiter, then opens a fresh one.
type stateWatch struct {
	mu sync.Mutex
	ch chan struct{}
}

func newStateWatch() *stateWatch {
	return &stateWatch{ch: make(chan struct{})}
}

func (w *stateWatch) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	close(w.ch)
	w.ch = make(chan struct{})
}

// wait blocks until the next notify() or until ctx is done.
func (w *stateWatch) wait(ctx context.Context) error {
	w.mu.Lock()
	ch := w.ch
	w.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
