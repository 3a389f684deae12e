// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "context"

// Server is the lifecycle of a transport server.
type Server interface {
	// Run serves until ctx is cancelled or SIGINT, SIGTERM or SIGQUIT is
	// received, then shuts down. It returns the first serve or shutdown error.
	Run(ctx context.Context) error

	// Shutdown stops accepting requests and waits for in-flight ones until
	// ctx expires.
	Shutdown(ctx context.Context) error
}
