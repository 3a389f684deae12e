// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/conflict"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/store"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/MKhiriev/delivery-sync/internal/validators"
	"github.com/MKhiriev/delivery-sync/models"
)

const deliveryEntity = "delivery"

// ingestionService applies batches to the authoritative store.
//
// Work on one client_id is serialized by locks. Lookup, decision and write
// happen under the same lock, so concurrent batches carrying the same
// record cannot both create it, and a compare-and-update never races with
// another writer of this process. Other processes sharing the database are
// caught by the store's own create-once and compare-and-update guarantees.
type ingestionService struct {
	records   store.RecordStore
	audit     store.AuditLog
	retryable func(error) bool

	validator validators.Validator
	notifier  Notifier
	ids       *utils.UUIDGenerator
	clock     utils.Clock
	locks     *keyedMutex

	logger *logger.Logger
}

// NewIngestionService wires the ingestion service over the given storages.
func NewIngestionService(storages *store.Storages, validator validators.Validator, notifier Notifier, logger *logger.Logger) IngestionService {
	retryable := storages.Retryable
	if retryable == nil {
		retryable = func(error) bool { return false }
	}

	return &ingestionService{
		records:   storages.Records,
		audit:     storages.Audit,
		retryable: retryable,
		validator: validator,
		notifier:  notifier,
		ids:       utils.NewUUIDGenerator(),
		clock:     utils.SystemClock{},
		locks:     &keyedMutex{},
		logger:    logger,
	}
}

// IngestBatch implements IngestionService.
//
// A batch that has started is always finished: records are processed on a
// context detached from the caller's cancellation, so a device that hangs
// up mid-request cannot leave half of its batch unapplied.
func (s *ingestionService) IngestBatch(ctx context.Context, actorID string, req models.BatchRequest) models.BatchResponse {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)

	resp := models.BatchResponse{Results: make([]models.Outcome, 0, len(req.Records))}
	for _, rec := range req.Records {
		resp.Add(s.ingestRecord(ctx, actorID, rec))
	}

	log.Info().
		Str("func", "ingestionService.IngestBatch").
		Str("actor_id", actorID).
		Int("total", resp.Total).
		Int("created", resp.Created).
		Int("duplicates", resp.Duplicates).
		Int("updated", resp.Updated).
		Int("conflicts", resp.Conflicts).
		Int("errors", resp.Errors).
		Msg("batch ingested")

	return resp
}

func (s *ingestionService) ingestRecord(ctx context.Context, actorID string, rec models.BatchRecord) models.Outcome {
	log := logger.FromContext(ctx).With().
		Str("func", "ingestionService.ingestRecord").
		Str("client_id", rec.ClientID).
		Logger()

	if err := s.validator.Validate(ctx, rec); err != nil {
		log.Debug().Err(err).Msg("record rejected by validation")
		return rejected(rec.ClientID, err.Error(), false)
	}

	unlock := s.locks.Lock(rec.ClientID)
	defer unlock()

	existing, err := s.records.Lookup(ctx, rec.ClientID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.create(ctx, actorID, rec)
	case err != nil:
		log.Err(err).Msg("lookup failed")
		return rejected(rec.ClientID, err.Error(), s.retryable(err))
	}

	return s.reconcile(ctx, actorID, rec, existing)
}

func (s *ingestionService) create(ctx context.Context, actorID string, rec models.BatchRecord) models.Outcome {
	log := logger.FromContext(ctx)

	now := s.clock.Now().UTC()
	stored, created, err := s.records.Create(ctx, models.AuthoritativeRecord{
		ServerID:   s.ids.ServerID(),
		ClientID:   rec.ClientID,
		Payload:    rec.Payload,
		CapturedAt: rec.CapturedAt.UTC(),
		UpdatedAt:  rec.UpdatedAt.UTC(),
		ActorID:    actorID,
		CreatedAt:  now,
	})
	if err != nil {
		log.Err(err).Str("func", "ingestionService.create").Str("client_id", rec.ClientID).Msg("create failed")
		return rejected(rec.ClientID, err.Error(), s.retryable(err))
	}

	// Another process inserted the record between lookup and create.
	if !created {
		return s.reconcile(ctx, actorID, rec, stored)
	}

	s.appendAudit(ctx, models.AuditEntry{
		EntityType: deliveryEntity,
		EntityID:   stored.ServerID,
		Action:     models.AuditCreate,
		ActorID:    actorID,
		At:         now,
	})
	s.notifier.RecordAccepted(ctx, stored)

	return accepted(rec.ClientID, models.OutcomeCreated, stored.ServerID)
}

// reconcile decides what an already stored record means for rec.
func (s *ingestionService) reconcile(ctx context.Context, actorID string, rec models.BatchRecord, existing models.AuthoritativeRecord) models.Outcome {
	log := logger.FromContext(ctx).With().
		Str("func", "ingestionService.reconcile").
		Str("client_id", rec.ClientID).
		Logger()

	incoming := conflict.VersionOf(rec.Payload, rec.UpdatedAt)
	authoritative := conflict.VersionOf(existing.Payload, existing.UpdatedAt)

	if conflict.Decide(incoming, &authoritative) == conflict.Conflict {
		log.Info().
			Time("incoming_updated_at", rec.UpdatedAt).
			Time("authoritative_updated_at", existing.UpdatedAt).
			Msg("edit conflicts with newer authoritative version")

		payload := existing.Payload
		updatedAt := existing.UpdatedAt
		serverID := existing.ServerID
		return models.Outcome{
			ClientID:               rec.ClientID,
			Status:                 models.OutcomeConflict,
			ServerID:               &serverID,
			AuthoritativePayload:   &payload,
			AuthoritativeUpdatedAt: &updatedAt,
		}
	}

	if incoming.Fingerprint == authoritative.Fingerprint {
		return accepted(rec.ClientID, models.OutcomeDuplicate, existing.ServerID)
	}

	updated, err := s.records.CompareAndUpdate(ctx, rec.ClientID, existing.UpdatedAt, rec.Payload, rec.UpdatedAt.UTC(), actorID)
	if err != nil {
		if errors.Is(err, store.ErrStaleVersion) {
			log.Warn().Msg("authoritative record changed during ingestion")
			return rejected(rec.ClientID, err.Error(), true)
		}
		log.Err(err).Msg("compare and update failed")
		return rejected(rec.ClientID, err.Error(), s.retryable(err))
	}

	s.appendAudit(ctx, models.AuditEntry{
		EntityType: deliveryEntity,
		EntityID:   updated.ServerID,
		Action:     models.AuditUpdate,
		ActorID:    actorID,
		Changes:    payloadChanges(existing.Payload, rec.Payload),
		At:         s.clock.Now().UTC(),
	})
	s.notifier.RecordAccepted(ctx, updated)

	return accepted(rec.ClientID, models.OutcomeUpdated, updated.ServerID)
}

// Lookup implements IngestionService.
func (s *ingestionService) Lookup(ctx context.Context, clientID string) (models.AuthoritativeRecord, error) {
	rec, err := s.records.Lookup(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return models.AuthoritativeRecord{}, ErrRecordNotFound
	}
	if err != nil {
		return models.AuthoritativeRecord{}, fmt.Errorf("lookup of %s failed: %w", clientID, err)
	}

	return rec, nil
}

// ResolveConflict implements IngestionService.
//
// The stored updated_at becomes the later of the requested one and now, and
// always moves past the replaced version so every device that still holds
// the old version sees the override as newer.
func (s *ingestionService) ResolveConflict(ctx context.Context, actorID, clientID string, req models.ResolveRequest) (models.AuthoritativeRecord, error) {
	log := logger.FromContext(ctx).With().
		Str("func", "ingestionService.ResolveConflict").
		Str("client_id", clientID).
		Str("actor_id", actorID).
		Logger()

	if err := s.validator.Validate(ctx, req); err != nil {
		log.Debug().Err(err).Msg("override rejected by validation")
		return models.AuthoritativeRecord{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	unlock := s.locks.Lock(clientID)
	defer unlock()

	existing, err := s.records.Lookup(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return models.AuthoritativeRecord{}, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).Msg("lookup failed")
		return models.AuthoritativeRecord{}, fmt.Errorf("override of %s failed: %w", clientID, err)
	}

	now := s.clock.Now().UTC()
	updatedAt := req.UpdatedAt.UTC()
	if updatedAt.Before(now) {
		updatedAt = now
	}
	if !updatedAt.After(existing.UpdatedAt) {
		updatedAt = existing.UpdatedAt.Add(time.Microsecond)
	}

	overwritten, err := s.records.Overwrite(ctx, clientID, req.Payload, updatedAt, actorID)
	if errors.Is(err, store.ErrNotFound) {
		return models.AuthoritativeRecord{}, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).Msg("overwrite failed")
		return models.AuthoritativeRecord{}, fmt.Errorf("override of %s failed: %w", clientID, err)
	}

	s.appendAudit(ctx, models.AuditEntry{
		EntityType: deliveryEntity,
		EntityID:   overwritten.ServerID,
		Action:     models.AuditOverride,
		ActorID:    actorID,
		Changes:    payloadChanges(existing.Payload, req.Payload),
		At:         now,
	})
	s.notifier.RecordOverridden(ctx, overwritten)

	log.Info().Time("updated_at", overwritten.UpdatedAt).Msg("authoritative record overridden")
	return overwritten, nil
}

// appendAudit writes entry and only logs failures; the record change it
// describes is already committed.
func (s *ingestionService) appendAudit(ctx context.Context, entry models.AuditEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "ingestionService.appendAudit").
			Str("entity_id", entry.EntityID).
			Str("action", string(entry.Action)).
			Msg("audit append failed")
	}
}

func accepted(clientID string, status models.OutcomeStatus, serverID string) models.Outcome {
	return models.Outcome{ClientID: clientID, Status: status, ServerID: &serverID}
}

func rejected(clientID, reason string, retryable bool) models.Outcome {
	return models.Outcome{
		ClientID:  clientID,
		Status:    models.OutcomeError,
		Reason:    reason,
		Retryable: retryable,
	}
}

// payloadChanges returns the fields that differ between two payloads, keyed
// by their JSON name.
func payloadChanges(before, after models.DeliveryPayload) map[string][2]any {
	old, cur := payloadFields(before), payloadFields(after)

	changes := make(map[string][2]any)
	for name, value := range cur {
		if prev, ok := old[name]; !ok || !jsonEqual(prev, value) {
			changes[name] = [2]any{old[name], value}
		}
	}
	for name, prev := range old {
		if _, ok := cur[name]; !ok {
			changes[name] = [2]any{prev, nil}
		}
	}

	return changes
}

func payloadFields(p models.DeliveryPayload) map[string]any {
	b, _ := json.Marshal(p)

	fields := make(map[string]any)
	_ = json.Unmarshal(b, &fields)
	return fields
}

func jsonEqual(a, b any) bool {
	ab, _ := json.Marshal(a)
	bb, _ := json.Marshal(b)
	return string(ab) == string(bb)
}
