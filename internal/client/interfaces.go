// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client is the lifecycle of the device agent.
type Client interface {
	// Run keeps the queue in sync until ctx is done or the process is
	// asked to stop.
	Run(ctx context.Context) error

	// Close releases the local database.
	Close() error
}
