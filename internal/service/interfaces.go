// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service holds the business logic of both sides of the pipeline:
// batch ingestion and conflict overrides on the server, and the sync client,
// its scheduler and the connectivity probe on the device.
package service

import (
	"context"

	"github.com/MKhiriev/delivery-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// IngestionService applies device batches to the authoritative store.
type IngestionService interface {
	// IngestBatch processes every record independently and returns one
	// outcome per record, in request order. It never fails as a whole.
	IngestBatch(ctx context.Context, actorID string, req models.BatchRequest) models.BatchResponse

	// Lookup returns the authoritative record for clientID.
	Lookup(ctx context.Context, clientID string) (models.AuthoritativeRecord, error)

	// ResolveConflict overwrites the authoritative record regardless of
	// timestamps. The change is attributed to actorID and audited.
	ResolveConflict(ctx context.Context, actorID, clientID string, req models.ResolveRequest) (models.AuthoritativeRecord, error)
}

// AuthService issues and verifies actor tokens.
type AuthService interface {
	IssueToken(ctx context.Context, actorID string) (models.Token, error)
	ParseToken(ctx context.Context, token string) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// Notifier is told about authoritative changes. Implementations must not
// block ingestion.
type Notifier interface {
	RecordAccepted(ctx context.Context, rec models.AuthoritativeRecord)
	RecordOverridden(ctx context.Context, rec models.AuthoritativeRecord)
}
