// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

var (
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")
	ErrNoActor                  = errors.New("token carries no actor")

	// ErrMissingHash is returned when a batch arrives without the HashSHA256
	// header.
	ErrMissingHash  = errors.New("missing integrity hash")
	ErrHashMismatch = errors.New("integrity hash does not match records")
)
