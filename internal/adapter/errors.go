// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"errors"
)

var (
	// ErrTransport wraps failures where no response was received.
	ErrTransport = errors.New("transport error")

	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")
	ErrServiceUnavailable  = errors.New("service unavailable")
)

// IsRetryable reports whether a failed request may succeed later without
// any change on the device.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrTransport),
		errors.Is(err, ErrTooManyRequests),
		errors.Is(err, ErrInternalServerError),
		errors.Is(err, ErrBadGateway),
		errors.Is(err, ErrServiceUnavailable):
		return true
	}
	return false
}
