// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
)

// ClientStorages groups the device-side stores.
type ClientStorages struct {
	// Queue is the SQLite-backed queue of captured delivery records.
	Queue LocalQueue

	// CycleLock is shared by every process that opens the same queue file.
	CycleLock CycleLock

	db *DB
}

// NewClientStorages opens (creating if needed) the SQLite file at
// cfg.DB.DSN, applies migrations and wires the queue.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, opts QueueOptions, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new client storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &ClientStorages{
		Queue:     NewLocalQueue(db, opts, logger),
		CycleLock: NewCycleLock(cfg.DB.DSN),
		db:        db,
	}, nil
}

func (s *ClientStorages) Close() error {
	return s.db.Close()
}
