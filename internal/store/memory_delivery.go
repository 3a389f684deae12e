// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/delivery-sync/models"
)

// MemoryRecordStore is an in-process [RecordStore] and [AuditLog]. The server
// uses it when no database DSN is configured.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]models.AuthoritativeRecord
	audit   []models.AuditEntry
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]models.AuthoritativeRecord),
	}
}

func (m *MemoryRecordStore) Create(ctx context.Context, rec models.AuthoritativeRecord) (models.AuthoritativeRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.AuthoritativeRecord{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.records[rec.ClientID]; ok {
		return existing, false, nil
	}

	m.records[rec.ClientID] = rec
	return rec, true, nil
}

func (m *MemoryRecordStore) Lookup(ctx context.Context, clientID string) (models.AuthoritativeRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.AuthoritativeRecord{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[clientID]
	if !ok {
		return models.AuthoritativeRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryRecordStore) CompareAndUpdate(ctx context.Context, clientID string, expectedUpdatedAt time.Time, payload models.DeliveryPayload, updatedAt time.Time, actorID string) (models.AuthoritativeRecord, error) {
	return m.update(ctx, clientID, &expectedUpdatedAt, payload, updatedAt, actorID)
}

func (m *MemoryRecordStore) Overwrite(ctx context.Context, clientID string, payload models.DeliveryPayload, updatedAt time.Time, actorID string) (models.AuthoritativeRecord, error) {
	return m.update(ctx, clientID, nil, payload, updatedAt, actorID)
}

func (m *MemoryRecordStore) update(ctx context.Context, clientID string, expected *time.Time, payload models.DeliveryPayload, updatedAt time.Time, actorID string) (models.AuthoritativeRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.AuthoritativeRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[clientID]
	if !ok {
		return models.AuthoritativeRecord{}, ErrNotFound
	}
	if expected != nil && !rec.UpdatedAt.Equal(*expected) {
		return models.AuthoritativeRecord{}, ErrStaleVersion
	}

	rec.Payload = payload
	rec.UpdatedAt = updatedAt
	rec.ActorID = actorID
	m.records[clientID] = rec

	return rec, nil
}

func (m *MemoryRecordStore) Append(ctx context.Context, entry models.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.audit = append(m.audit, entry)
	return nil
}

// AuditEntries returns a copy of the audit trail.
func (m *MemoryRecordStore) AuditEntries() []models.AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

// Len returns the number of stored records.
func (m *MemoryRecordStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
