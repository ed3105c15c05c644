// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xsync implements some extra synchronization tools.
package xsync

import "sync"

// Latch is a signal that can be waited for until it is triggered.
// Once triggered it never changes state.
type Latch struct {
	mu   sync.Mutex
	wait chan struct{}
}

// NewLatch returns an un-triggered latch.
func NewLatch() *Latch {
	return &Latch{wait: make(chan struct{})}
}

// Trigger the latch. Triggering more than once is a no-op.
func (l *Latch) Trigger() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Test() {
		return
	}
	close(l.wait)
}

// Wait blocks until the latch is triggered.
func (l *Latch) Wait() {
	<-l.wait
}

// Test checks whether the latch has been triggered, without blocking.
func (l *Latch) Test() bool {
	select {
	case <-l.wait:
		return true
	default:
		return false
	}
}

// WaitChan returns a channel that is closed when the latch triggers, to be used in a `select`.
func (l *Latch) WaitChan() <-chan struct{} {
	return l.wait
}
