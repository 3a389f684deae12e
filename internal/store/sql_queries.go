// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/delivery-sync/internal/conflict"
	"github.com/MKhiriev/delivery-sync/models"
)

const (
	deliveriesTable = "deliveries"
	auditLogTable   = "audit_log"
)

var deliveryColumns = []string{
	"server_id",
	"client_id",
	"payload",
	"captured_at",
	"updated_at",
	"actor_id",
	"created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func returningDeliveryColumns() string {
	return "RETURNING " + strings.Join(deliveryColumns, ", ")
}

// buildCreateDeliveryQuery inserts a record and returns it, or returns no
// row when the client_id is already taken.
func buildCreateDeliveryQuery(rec models.AuthoritativeRecord) (string, []any, error) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
	}

	query, args, err := psql.Insert(deliveriesTable).
		Columns(
			"server_id", "client_id",
			"farmer_code", "station_id", "delivery_date",
			"payload", "payload_fingerprint",
			"captured_at", "updated_at", "actor_id", "created_at",
		).
		Values(
			rec.ServerID, rec.ClientID,
			rec.Payload.FarmerCode, rec.Payload.StationID, rec.Payload.DeliveryDate,
			string(payload), conflict.Fingerprint(rec.Payload),
			rec.CapturedAt, rec.UpdatedAt, rec.ActorID, rec.CreatedAt,
		).
		Suffix("ON CONFLICT (client_id) DO NOTHING " + returningDeliveryColumns()).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

func buildLookupDeliveryQuery(clientID string) (string, []any, error) {
	query, args, err := psql.Select(deliveryColumns...).
		From(deliveriesTable).
		Where(sq.Eq{"client_id": clientID}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

// buildUpdateDeliveryQuery replaces the payload of a record. When
// expectedUpdatedAt is non-nil the update only applies if the stored
// updated_at still equals it.
func buildUpdateDeliveryQuery(clientID string, expectedUpdatedAt *time.Time, payload models.DeliveryPayload, updatedAt time.Time, actorID string) (string, []any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
	}

	where := sq.And{sq.Eq{"client_id": clientID}}
	if expectedUpdatedAt != nil {
		where = append(where, sq.Eq{"updated_at": *expectedUpdatedAt})
	}

	query, args, err := psql.Update(deliveriesTable).
		Set("farmer_code", payload.FarmerCode).
		Set("station_id", payload.StationID).
		Set("delivery_date", payload.DeliveryDate).
		Set("payload", string(encoded)).
		Set("payload_fingerprint", conflict.Fingerprint(payload)).
		Set("updated_at", updatedAt).
		Set("actor_id", actorID).
		Where(where).
		Suffix(returningDeliveryColumns()).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

func buildAppendAuditQuery(entry models.AuditEntry) (string, []any, error) {
	var changes any
	if len(entry.Changes) > 0 {
		encoded, err := json.Marshal(entry.Changes)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
		}
		changes = string(encoded)
	}

	query, args, err := psql.Insert(auditLogTable).
		Columns("entity_type", "entity_id", "action", "actor_id", "changes", "created_at").
		Values(entry.EntityType, entry.EntityID, string(entry.Action), entry.ActorID, changes, entry.At).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}
