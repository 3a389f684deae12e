// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"iter"
	"time"

	"github.com/MKhiriev/delivery-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// LocalQueue is the durable device-side queue of captured records.
//
// Every method is atomic with respect to a single record. Reads may run
// concurrently, writes are serialized.
type LocalQueue interface {
	// Enqueue stores rec as pending. A record with an existing client_id is
	// not modified; the stored copy is returned with inserted=false.
	Enqueue(ctx context.Context, rec models.SyncableRecord) (stored models.SyncableRecord, inserted bool, err error)

	// Get returns the record for clientID or ErrNotFound.
	Get(ctx context.Context, clientID string) (models.SyncableRecord, error)

	// ListPending yields up to limit pending, non-parked records that are
	// below the retry ceiling, oldest capture first. Each range re-reads the
	// queue.
	ListPending(ctx context.Context, limit int) iter.Seq2[models.SyncableRecord, error]

	// MarkSubmitted moves a record from pending to submitted.
	MarkSubmitted(ctx context.Context, clientID string) error

	// ApplyOutcome moves a submitted record to the state implied by outcome.
	ApplyOutcome(ctx context.Context, clientID string, outcome models.Outcome) error

	// RevertStale moves records submitted before olderThan back to pending.
	RevertStale(ctx context.Context, olderThan time.Time) (int64, error)

	// PurgeSynced deletes synced records whose synced_at is before olderThan.
	PurgeSynced(ctx context.Context, olderThan time.Time) (int64, error)

	// Edit replaces the payload of a pending record, bumps its updated_at,
	// unparks it and resets its retry counter. Records in any other state
	// return ErrInvalidTransition.
	Edit(ctx context.Context, clientID string, payload models.DeliveryPayload) (models.SyncableRecord, error)

	// ResolveConflict moves a conflicting record to synced, adopting the
	// final authoritative version.
	ResolveConflict(ctx context.Context, clientID string, final models.AuthoritativeRecord) error

	// Retry unparks a pending record and resets its retry counter.
	Retry(ctx context.Context, clientID string) error

	// ListAttention returns conflicting and parked records.
	ListAttention(ctx context.Context) ([]models.SyncableRecord, error)

	// Stats counts records by state.
	Stats(ctx context.Context) (models.QueueStats, error)
}

// CycleLock guards the queue against sync cycles running from several
// processes at once.
type CycleLock interface {
	// TryLock takes the lock without waiting. locked is false when another
	// holder has it.
	TryLock() (locked bool, err error)

	// Unlock releases a lock taken by TryLock.
	Unlock() error
}
