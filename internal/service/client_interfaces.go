// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/delivery-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_service_mock.go -package=mock

// ClientSyncService drives the device queue against the sync server.
type ClientSyncService interface {
	// Capture validates payload and enqueues it as a new pending record.
	Capture(ctx context.Context, payload models.DeliveryPayload) (models.SyncableRecord, error)

	// Edit replaces the payload of a pending record.
	Edit(ctx context.Context, clientID string, payload models.DeliveryPayload) (models.SyncableRecord, error)

	// Get returns a queued record.
	Get(ctx context.Context, clientID string) (models.SyncableRecord, error)

	// Trigger runs a sync cycle, or joins the one in flight. reason is
	// recorded in the report of the cycle that actually runs.
	Trigger(ctx context.Context, reason string) (models.SyncReport, error)

	// RevertStale returns records stuck in submitted past the watchdog
	// timeout to pending.
	RevertStale(ctx context.Context) (int64, error)

	// Purge deletes synced records older than the retention age.
	Purge(ctx context.Context) (int64, error)

	// ResolveConflict settles a conflicting record either way.
	ResolveConflict(ctx context.Context, clientID string, resolution models.Resolution) (models.SyncableRecord, error)

	// Retry unparks a record.
	Retry(ctx context.Context, clientID string) error

	Status(ctx context.Context) (models.SyncStatus, error)
}

// Connectivity reports whether the sync server is reachable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// ClientSyncJob schedules sync cycles in the background.
type ClientSyncJob interface {
	// Run blocks until ctx is done. It never returns early on cycle errors.
	Run(ctx context.Context) error

	// Start runs the job in a goroutine. A running job is stopped first.
	Start(ctx context.Context)

	// Stop cancels a started job and waits for it to exit.
	Stop()

	// TriggerNow asks for a cycle as soon as possible. Requests made while
	// one is already queued are merged.
	TriggerNow(reason string)
}
