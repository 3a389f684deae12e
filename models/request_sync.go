// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// BatchRecord is the wire form of a record submitted for ingestion.
type BatchRecord struct {
	ClientID   string          `json:"client_id"`
	Payload    DeliveryPayload `json:"payload"`
	CapturedAt time.Time       `json:"captured_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// BatchRequest is sent by a device to submit pending records.
type BatchRequest struct {
	// Records holds one or more records to ingest.
	Records []BatchRecord `json:"records"`

	// Length is the total number of entries in Records.
	Length int `json:"length"`

	// Hash of serialized Records, transport integrity check. Filled from
	// the HashSHA256 header by the server.
	Hash string `json:"-"`
}

// NewBatchRequest builds the wire form of the given queue records.
func NewBatchRequest(records []SyncableRecord) BatchRequest {
	batch := make([]BatchRecord, 0, len(records))
	for _, r := range records {
		batch = append(batch, BatchRecord{
			ClientID:   r.ClientID,
			Payload:    r.Payload,
			CapturedAt: r.CapturedAt,
			UpdatedAt:  r.UpdatedAt,
		})
	}

	return BatchRequest{Records: batch, Length: len(batch)}
}

// Resolution is the choice made by a user for a record in conflict.
type Resolution string

const (
	// KeepLocal overwrites the authoritative record with the device version.
	KeepLocal Resolution = "keep_local"
	// KeepAuthoritative adopts the authoritative version on the device.
	KeepAuthoritative Resolution = "keep_authoritative"
)

// ResolveRequest asks the server to overwrite an authoritative record
// regardless of timestamps.
type ResolveRequest struct {
	Payload   DeliveryPayload `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}
