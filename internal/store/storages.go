// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
)

// Storages groups the server-side stores passed to the service layer.
type Storages struct {
	Records RecordStore
	Audit   AuditLog

	// Retryable classifies store errors for ingestion outcomes.
	Retryable func(err error) bool

	closer func() error
}

// NewStorages opens PostgreSQL and applies migrations when a DSN is
// configured, otherwise it falls back to the in-memory store.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	if cfg.DB.DSN == "" {
		log.Warn().Str("func", "NewStorages").Msg("no database configured, records are kept in memory")
		return NewMemoryStorages(NewMemoryRecordStore()), nil
	}

	log.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Records:   NewDeliveryRepository(db, log),
		Audit:     NewAuditRepository(db),
		Retryable: db.IsRetryable,
		closer:    db.Close,
	}, nil
}

// NewMemoryStorages wraps an in-memory store. Its errors are never retryable.
func NewMemoryStorages(m *MemoryRecordStore) *Storages {
	return &Storages{
		Records:   m,
		Audit:     m,
		Retryable: func(error) bool { return false },
	}
}

func (s *Storages) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
