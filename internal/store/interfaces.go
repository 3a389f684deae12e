// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package store holds persistence for both sides of the sync pipeline: the
// authoritative delivery store of the server (PostgreSQL or in-memory) and
// the durable device queue (SQLite).
package store

import (
	"context"
	"time"

	"github.com/MKhiriev/delivery-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// RecordStore is the authoritative delivery store.
//
// All writes are atomic per client_id. Create never produces two records
// for the same client_id, even under concurrent callers.
type RecordStore interface {
	// Create inserts rec unless a record with the same client_id exists, in
	// which case the existing record is returned with created=false.
	Create(ctx context.Context, rec models.AuthoritativeRecord) (stored models.AuthoritativeRecord, created bool, err error)

	// Lookup returns the record for clientID or ErrNotFound.
	Lookup(ctx context.Context, clientID string) (models.AuthoritativeRecord, error)

	// CompareAndUpdate replaces payload and updated_at only if the stored
	// updated_at equals expectedUpdatedAt. Returns ErrStaleVersion otherwise
	// and ErrNotFound when the record does not exist.
	CompareAndUpdate(ctx context.Context, clientID string, expectedUpdatedAt time.Time, payload models.DeliveryPayload, updatedAt time.Time, actorID string) (models.AuthoritativeRecord, error)

	// Overwrite replaces payload and updated_at unconditionally.
	Overwrite(ctx context.Context, clientID string, payload models.DeliveryPayload, updatedAt time.Time, actorID string) (models.AuthoritativeRecord, error)
}

// AuditLog records attributed changes of authoritative records.
type AuditLog interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

// ErrorClassificator decides whether a failed store operation may succeed
// when retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
