// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package server runs the sync server's HTTP and gRPC transports until a
// stop signal arrives, then shuts them down gracefully.
package server
