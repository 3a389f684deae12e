// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"time"

	"github.com/google/uuid"
)

// UUIDGenerator issues identifiers for records.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// ClientID returns a random UUIDv4, the device-side idempotency key.
func (g *UUIDGenerator) ClientID() string {
	return uuid.NewString()
}

// ServerID returns a time-ordered UUIDv7 for authoritative records.
func (g *UUIDGenerator) ServerID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// Clock abstracts the wall clock for components that stamp records.
type Clock interface {
	Now() time.Time
}

// SystemClock reports UTC wall-clock time truncated to microseconds, the
// precision both stores keep.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
