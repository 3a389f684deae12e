// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the device-side transport to the sync server.
//
// [ServerAdapter] decouples the sync client from the protocol. The package
// ships an HTTP implementation ([NewHTTPServerAdapter]) built on resty.
//
// Non-2xx responses are mapped to the sentinel errors of errors.go so that
// callers can use [errors.Is]. Requests that never produced a response wrap
// [ErrTransport].
package adapter

import (
	"context"

	"github.com/MKhiriev/delivery-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter is the device's view of the sync server.
type ServerAdapter interface {
	// SubmitBatch sends pending records and returns one outcome per record.
	// A batch integrity hash is attached automatically.
	SubmitBatch(ctx context.Context, req models.BatchRequest) (models.BatchResponse, error)

	// FetchRecord returns the current authoritative version of a record.
	FetchRecord(ctx context.Context, clientID string) (models.AuthoritativeRecord, error)

	// ResolveConflict overwrites the authoritative record with the device
	// version and returns the stored result.
	ResolveConflict(ctx context.Context, clientID string, req models.ResolveRequest) (models.AuthoritativeRecord, error)

	// Ping checks that the server is reachable.
	Ping(ctx context.Context) error
}
