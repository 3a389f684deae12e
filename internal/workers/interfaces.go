// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers runs the background loops of the device agent: the sync
// scheduler, the stale-submission watchdog and the retention purge.
package workers

import "context"

// Worker is a background loop. Run blocks until ctx is done or the worker
// fails for good.
//
// Example implementation:
//
//	type heartbeat struct{}
//
//	func (heartbeat) Run(ctx context.Context) error {
//	    <-ctx.Done()
//	    return nil
//	}
type Worker interface {
	Run(ctx context.Context) error
}
