// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	ErrRecordNotFound      = errors.New("record not found")

	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrVersionIsNotSpecified   = errors.New("app version is not specified")
)

// Device-side errors.
var (
	// ErrOffline is returned by operations that need the server while it is
	// unreachable.
	ErrOffline = errors.New("sync server is unreachable")

	// ErrTransportFailed is returned by a cycle whose batch got no usable
	// answer. Submitted records are back in pending.
	ErrTransportFailed = errors.New("batch submission failed")

	// ErrCycleCrashed is returned by a cycle that panicked. Submitted records
	// were rolled back.
	ErrCycleCrashed = errors.New("sync cycle crashed")

	ErrCycleLock = errors.New("sync cycle lock unavailable")

	ErrNotInConflict          = errors.New("record is not in conflict")
	ErrNoAuthoritativeVersion = errors.New("no authoritative version known for record")
	ErrUnknownResolution      = errors.New("unknown conflict resolution")
	ErrUnauthorized           = errors.New("device token was rejected")
)
