// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncState is the position of a record in the device-side sync lifecycle.
//
//	pending -> submitted -> synced | conflict | pending
//	conflict -> synced (explicit resolution only)
type SyncState string

const (
	// StatePending marks a record that is waiting to be submitted.
	StatePending SyncState = "pending"
	// StateSubmitted marks a record that belongs to an in-flight batch.
	StateSubmitted SyncState = "submitted"
	// StateSynced marks a record acknowledged by the authoritative store.
	StateSynced SyncState = "synced"
	// StateConflict marks a record whose edit lost to a newer authoritative version.
	StateConflict SyncState = "conflict"
)

// SyncableRecord is a delivery record as tracked by the device queue.
type SyncableRecord struct {
	// ClientID is the device-generated UUID of the record. It is the
	// idempotency key for the whole pipeline and never changes.
	ClientID string `json:"client_id"`

	// ServerID is assigned by the authoritative store on first acceptance.
	ServerID *string `json:"server_id,omitempty"`

	Payload DeliveryPayload `json:"payload"`

	// CapturedAt is the device time the record was first captured.
	CapturedAt time.Time `json:"captured_at"`

	// UpdatedAt is the device time of the last local modification.
	UpdatedAt time.Time `json:"updated_at"`

	SyncState  SyncState `json:"sync_state"`
	RetryCount int       `json:"retry_count"`
	LastError  *string   `json:"last_error,omitempty"`

	// SubmittedAt is set when the record enters a batch and is used by the
	// stale-submission watchdog.
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	// SyncedAt is the device time the record reached StateSynced.
	SyncedAt *time.Time `json:"synced_at,omitempty"`

	// Parked records are skipped by batching until the user edits or
	// retries them.
	Parked bool `json:"parked"`

	// AuthoritativePayload and AuthoritativeUpdatedAt hold the winning
	// server version while the record is in StateConflict.
	AuthoritativePayload   *DeliveryPayload `json:"authoritative_payload,omitempty"`
	AuthoritativeUpdatedAt *time.Time       `json:"authoritative_updated_at,omitempty"`
}

// NeedsAttention reports whether the record requires user action before it
// can make further progress.
func (r SyncableRecord) NeedsAttention() bool {
	return r.SyncState == StateConflict || (r.SyncState == StatePending && r.Parked)
}

// AuthoritativeRecord is a delivery record as held by the central store.
type AuthoritativeRecord struct {
	ServerID   string          `json:"server_id"`
	ClientID   string          `json:"client_id"`
	Payload    DeliveryPayload `json:"payload"`
	CapturedAt time.Time       `json:"captured_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// ActorID is the authenticated actor that last wrote the record.
	ActorID string `json:"actor_id"`

	CreatedAt time.Time `json:"created_at"`
}

// QueueStats summarizes the device queue by state.
type QueueStats struct {
	Pending   int `json:"pending"`
	Submitted int `json:"submitted"`
	Synced    int `json:"synced"`
	Conflict  int `json:"conflict"`
	Parked    int `json:"parked"`
}

// Unsynced returns the number of records that still occupy queue capacity.
func (s QueueStats) Unsynced() int {
	return s.Pending + s.Submitted + s.Conflict
}
