// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package conflict holds the pure decision rules used to reconcile a
// submitted delivery record with the authoritative copy.
//
// Nothing here performs I/O; callers supply both versions and act on the
// returned [Decision].
package conflict

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/MKhiriev/delivery-sync/models"
	"golang.org/x/crypto/blake2b"
)

// Decision is the verdict of [Decide].
type Decision int

const (
	// Accept means the incoming version may be written (or is already
	// reflected by the authoritative store).
	Accept Decision = iota
	// Conflict means the authoritative version is newer and differs.
	Conflict
)

func (d Decision) String() string {
	if d == Conflict {
		return "conflict"
	}
	return "accept"
}

// Version is the part of a record the policy looks at.
type Version struct {
	UpdatedAt   time.Time
	Fingerprint string
}

// VersionOf builds a [Version] from a payload and its modification time.
func VersionOf(payload models.DeliveryPayload, updatedAt time.Time) Version {
	return Version{UpdatedAt: updatedAt, Fingerprint: Fingerprint(payload)}
}

// Decide compares an incoming version with the authoritative one.
//
// A nil authoritative version always yields Accept. An authoritative version
// that is not newer than the incoming one yields Accept (last writer wins).
// A newer authoritative version yields Conflict only when the payloads
// differ; identical payloads are accepted and reported as duplicates.
func Decide(incoming Version, authoritative *Version) Decision {
	if authoritative == nil {
		return Accept
	}

	if !authoritative.UpdatedAt.After(incoming.UpdatedAt) {
		return Accept
	}

	if authoritative.Fingerprint == incoming.Fingerprint {
		return Accept
	}

	return Conflict
}

// Fingerprint returns the hex BLAKE2b-256 digest of the canonical JSON
// encoding of payload.
func Fingerprint(payload models.DeliveryPayload) string {
	// DeliveryPayload has only plain fields, Marshal cannot fail.
	b, _ := json.Marshal(payload)
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SamePayload reports whether two payloads are canonically equal.
func SamePayload(a, b models.DeliveryPayload) bool {
	return Fingerprint(a) == Fingerprint(b)
}
