// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by stores to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrNotFound is returned when no record exists for the given client_id.
	ErrNotFound = errors.New("record was not found")

	// ErrStaleVersion is returned by a compare-and-update when the stored
	// updated_at no longer matches the expected value, meaning another
	// writer changed the record in between.
	ErrStaleVersion = errors.New("record was modified concurrently")

	// ErrQueueFull is returned by Enqueue when the device queue holds the
	// configured maximum of unsynced records.
	ErrQueueFull = errors.New("local queue is full")

	// ErrInvalidTransition is returned when a state change is requested from
	// a state that does not allow it (e.g. submitting a record that is
	// already in flight).
	ErrInvalidTransition = errors.New("invalid sync state transition")
)

// Low-level database operation errors.
var (
	ErrBuildingSQLQuery     = errors.New("error building sql query")
	ErrExecutingQuery       = errors.New("error executing sql query")
	ErrBeginningTransaction = errors.New("failed to begin transaction")
	ErrCommitingTransaction = errors.New("failed to commit transaction")
	ErrScanningRow          = errors.New("failed to scan row")
	ErrScanningRows         = errors.New("failed to scan rows")
	ErrEncodingPayload      = errors.New("failed to encode payload")
	ErrDecodingPayload      = errors.New("failed to decode payload")
)
