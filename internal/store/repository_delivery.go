// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/models"
)

type deliveryRepository struct {
	*DB
	logger *logger.Logger
}

// NewDeliveryRepository constructs the PostgreSQL [RecordStore].
func NewDeliveryRepository(db *DB, logger *logger.Logger) RecordStore {
	return &deliveryRepository{
		DB:     db,
		logger: logger,
	}
}

// Create relies on the unique client_id constraint: the insert is skipped
// when the key exists and the winner's row is read back instead.
func (r *deliveryRepository) Create(ctx context.Context, rec models.AuthoritativeRecord) (models.AuthoritativeRecord, bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildCreateDeliveryQuery(rec)
	if err != nil {
		log.Err(err).Str("func", "deliveryRepository.Create").Str("client_id", rec.ClientID).Msg("failed to build query")
		return models.AuthoritativeRecord{}, false, err
	}

	stored, err := scanDelivery(r.DB.QueryRowContext(ctx, query, args...))
	if err == nil {
		log.Debug().Str("func", "deliveryRepository.Create").Str("client_id", rec.ClientID).Msg("record created")
		return stored, true, nil
	}

	if !errors.Is(err, ErrNotFound) {
		log.Err(err).Str("func", "deliveryRepository.Create").Str("client_id", rec.ClientID).Msg("failed to insert record")
		return models.AuthoritativeRecord{}, false, err
	}

	existing, err := r.Lookup(ctx, rec.ClientID)
	if err != nil {
		return models.AuthoritativeRecord{}, false, err
	}

	return existing, false, nil
}

func (r *deliveryRepository) Lookup(ctx context.Context, clientID string) (models.AuthoritativeRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildLookupDeliveryQuery(clientID)
	if err != nil {
		return models.AuthoritativeRecord{}, err
	}

	rec, err := scanDelivery(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Err(err).Str("func", "deliveryRepository.Lookup").Str("client_id", clientID).Msg("failed to query record")
	}

	return rec, err
}

func (r *deliveryRepository) CompareAndUpdate(ctx context.Context, clientID string, expectedUpdatedAt time.Time, payload models.DeliveryPayload, updatedAt time.Time, actorID string) (models.AuthoritativeRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildUpdateDeliveryQuery(clientID, &expectedUpdatedAt, payload, updatedAt, actorID)
	if err != nil {
		return models.AuthoritativeRecord{}, err
	}

	rec, err := scanDelivery(r.DB.QueryRowContext(ctx, query, args...))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Err(err).Str("func", "deliveryRepository.CompareAndUpdate").Str("client_id", clientID).Msg("failed to update record")
		return models.AuthoritativeRecord{}, err
	}

	// nothing updated: either the record is gone or updated_at moved on
	if _, lookupErr := r.Lookup(ctx, clientID); lookupErr != nil {
		return models.AuthoritativeRecord{}, lookupErr
	}

	log.Warn().
		Str("func", "deliveryRepository.CompareAndUpdate").
		Str("client_id", clientID).
		Time("expected_updated_at", expectedUpdatedAt).
		Msg("compare-and-update lost the race")
	return models.AuthoritativeRecord{}, ErrStaleVersion
}

func (r *deliveryRepository) Overwrite(ctx context.Context, clientID string, payload models.DeliveryPayload, updatedAt time.Time, actorID string) (models.AuthoritativeRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildUpdateDeliveryQuery(clientID, nil, payload, updatedAt, actorID)
	if err != nil {
		return models.AuthoritativeRecord{}, err
	}

	rec, err := scanDelivery(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Err(err).Str("func", "deliveryRepository.Overwrite").Str("client_id", clientID).Msg("failed to overwrite record")
	}

	return rec, err
}

func scanDelivery(row *sql.Row) (models.AuthoritativeRecord, error) {
	var (
		rec     models.AuthoritativeRecord
		payload []byte
	)

	err := row.Scan(
		&rec.ServerID,
		&rec.ClientID,
		&payload,
		&rec.CapturedAt,
		&rec.UpdatedAt,
		&rec.ActorID,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuthoritativeRecord{}, ErrNotFound
	}
	if err != nil {
		return models.AuthoritativeRecord{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return models.AuthoritativeRecord{}, fmt.Errorf("%w: %w", ErrDecodingPayload, err)
	}

	rec.CapturedAt = rec.CapturedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()

	return rec, nil
}
