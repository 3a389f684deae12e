// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/models"
)

type auditRepository struct {
	*DB
}

// NewAuditRepository constructs the PostgreSQL [AuditLog].
func NewAuditRepository(db *DB) AuditLog {
	return &auditRepository{DB: db}
}

func (r *auditRepository) Append(ctx context.Context, entry models.AuditEntry) error {
	query, args, err := buildAppendAuditQuery(entry)
	if err != nil {
		return err
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "auditRepository.Append").
			Str("entity_id", entry.EntityID).
			Str("action", string(entry.Action)).
			Msg("failed to append audit entry")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}
