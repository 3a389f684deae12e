// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/adapter"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/store"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/MKhiriev/delivery-sync/internal/validators"
	"github.com/MKhiriev/delivery-sync/models"
	"golang.org/x/sync/singleflight"
)

const (
	cycleKey = "sync"

	// rollbackTimeout bounds the queue writes that finish a cycle after its
	// caller has gone away.
	rollbackTimeout = 10 * time.Second

	reasonMissingResult = "record missing from server response"
	reasonCycleAborted  = "sync cycle aborted"
)

// SyncOptions tunes a clientSyncService.
type SyncOptions struct {
	BatchSize       int
	WatchdogTimeout time.Duration
	RetentionAge    time.Duration
	Clock           utils.Clock

	// Lock is taken around every cycle. Nil disables cross-process
	// exclusion.
	Lock store.CycleLock
}

// clientSyncService drives the device queue against the sync server.
//
// At most one cycle runs at a time. Trigger calls that arrive while a cycle
// is in flight wait for it and share its report. A cycle started while
// another process holds the queue's cycle lock ends as busy.
type clientSyncService struct {
	queue        store.LocalQueue
	adapter      adapter.ServerAdapter
	connectivity Connectivity
	validator    validators.Validator
	lock         store.CycleLock
	ids          *utils.UUIDGenerator
	clock        utils.Clock

	batchSize       int
	watchdogTimeout time.Duration
	retentionAge    time.Duration

	group singleflight.Group

	mu         sync.RWMutex
	lastReport *models.SyncReport

	logger *logger.Logger
}

// NewClientSyncService wires the sync service. A zero clock selects the
// system clock.
func NewClientSyncService(
	queue store.LocalQueue,
	serverAdapter adapter.ServerAdapter,
	connectivity Connectivity,
	validator validators.Validator,
	opts SyncOptions,
	logger *logger.Logger,
) ClientSyncService {
	clock := opts.Clock
	if clock == nil {
		clock = utils.SystemClock{}
	}

	return &clientSyncService{
		queue:           queue,
		adapter:         serverAdapter,
		connectivity:    connectivity,
		validator:       validator,
		lock:            opts.Lock,
		ids:             utils.NewUUIDGenerator(),
		clock:           clock,
		batchSize:       opts.BatchSize,
		watchdogTimeout: opts.WatchdogTimeout,
		retentionAge:    opts.RetentionAge,
		logger:          logger,
	}
}

// Capture implements ClientSyncService.
func (s *clientSyncService) Capture(ctx context.Context, payload models.DeliveryPayload) (models.SyncableRecord, error) {
	if err := s.validator.Validate(ctx, payload); err != nil {
		return models.SyncableRecord{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	now := s.clock.Now().UTC()
	rec, _, err := s.queue.Enqueue(ctx, models.SyncableRecord{
		ClientID:   s.ids.ClientID(),
		Payload:    payload,
		CapturedAt: now,
		UpdatedAt:  now,
		SyncState:  models.StatePending,
	})
	if err != nil {
		return models.SyncableRecord{}, fmt.Errorf("capture failed: %w", err)
	}

	s.logger.Info().Str("func", "clientSyncService.Capture").Str("client_id", rec.ClientID).Msg("delivery captured")
	return rec, nil
}

// Edit implements ClientSyncService.
func (s *clientSyncService) Edit(ctx context.Context, clientID string, payload models.DeliveryPayload) (models.SyncableRecord, error) {
	if err := s.validator.Validate(ctx, payload); err != nil {
		return models.SyncableRecord{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	rec, err := s.queue.Edit(ctx, clientID, payload)
	if err != nil {
		return models.SyncableRecord{}, fmt.Errorf("edit of %s failed: %w", clientID, err)
	}

	return rec, nil
}

// Trigger implements ClientSyncService.
//
// The cycle runs under ctx of the caller that started it. Cancelling that
// ctx aborts the submission and rolls the batch back to pending. Callers that
// joined a running cycle only stop waiting when their own ctx is done.
func (s *clientSyncService) Trigger(ctx context.Context, reason string) (models.SyncReport, error) {
	ch := s.group.DoChan(cycleKey, func() (any, error) {
		report, err := s.lockedCycle(ctx, reason)
		return report, err
	})

	select {
	case <-ctx.Done():
		return models.SyncReport{Reason: reason, Result: models.CycleAborted}, ctx.Err()
	case res := <-ch:
		report, _ := res.Val.(models.SyncReport)
		return report, res.Err
	}
}

// lockedCycle runs a cycle under the queue's cycle lock. The lock is held
// until runCycle has rolled back or settled every record it submitted.
func (s *clientSyncService) lockedCycle(ctx context.Context, reason string) (models.SyncReport, error) {
	if s.lock == nil {
		return s.runCycle(ctx, reason)
	}

	log := s.logger.With().Str("func", "clientSyncService.lockedCycle").Str("reason", reason).Logger()
	report := models.SyncReport{Reason: reason, StartedAt: s.clock.Now()}

	locked, err := s.lock.TryLock()
	if err != nil {
		log.Err(err).Msg("taking cycle lock failed")
		report.Result = models.CycleAborted
		s.remember(report)
		return report, fmt.Errorf("%w: %w", ErrCycleLock, err)
	}
	if !locked {
		log.Info().Msg("another process is syncing this queue, cycle skipped")
		report.Result = models.CycleBusy
		s.remember(report)
		return report, nil
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			log.Err(err).Msg("releasing cycle lock failed")
		}
	}()

	return s.runCycle(ctx, reason)
}

// runCycle submits one batch and applies its outcomes. It never leaves a
// record in submitted: every record it marked is either given a server
// verdict or rolled back to pending before it returns, including on panic.
func (s *clientSyncService) runCycle(ctx context.Context, reason string) (report models.SyncReport, err error) {
	log := s.logger.With().Str("func", "clientSyncService.runCycle").Str("reason", reason).Logger()

	started := s.clock.Now()
	report = models.SyncReport{Reason: reason, StartedAt: started}

	var marked []string
	defer func() {
		if p := recover(); p != nil {
			log.Error().Any("panic", p).Int("marked", len(marked)).Msg("sync cycle crashed")
			s.rollback(marked, reasonCycleAborted)

			report.Result = models.CycleAborted
			report.Failed = len(marked)
			err = fmt.Errorf("%w: %v", ErrCycleCrashed, p)
		}

		report.Duration = s.clock.Now().Sub(started)
		s.remember(report)
	}()

	if !s.connectivity.Online(ctx) {
		log.Debug().Msg("server unreachable, cycle skipped")
		report.Result = models.CycleOffline
		return report, nil
	}

	var batch []models.SyncableRecord
	for rec, err := range s.queue.ListPending(ctx, s.batchSize) {
		if err != nil {
			return report, fmt.Errorf("listing pending records failed: %w", err)
		}
		batch = append(batch, rec)
	}

	if len(batch) == 0 {
		report.Result = models.CycleIdle
		return report, nil
	}

	submitted := batch[:0]
	for _, rec := range batch {
		err := s.queue.MarkSubmitted(ctx, rec.ClientID)
		switch {
		case err == nil:
			marked = append(marked, rec.ClientID)
			submitted = append(submitted, rec)
		case errors.Is(err, store.ErrInvalidTransition), errors.Is(err, store.ErrNotFound):
			// Edited, retried or purged since it was listed.
			log.Debug().Err(err).Str("client_id", rec.ClientID).Msg("record left the batch")
		default:
			s.rollback(marked, reasonCycleAborted)
			report.Result = models.CycleAborted
			report.Failed = len(marked)
			return report, fmt.Errorf("marking %s submitted failed: %w", rec.ClientID, err)
		}
	}

	if len(submitted) == 0 {
		report.Result = models.CycleIdle
		return report, nil
	}
	report.Submitted = len(submitted)

	resp, err := s.adapter.SubmitBatch(ctx, models.NewBatchRequest(submitted))
	if err != nil {
		log.Warn().Err(err).Int("submitted", len(submitted)).Msg("batch submission failed")
		s.rollback(marked, err.Error())

		report.Failed = len(marked)
		report.Result = models.CycleTransportFailed
		if ctx.Err() != nil {
			report.Result = models.CycleAborted
		}
		return report, fmt.Errorf("%w: %w", ErrTransportFailed, err)
	}

	outcomes := make(map[string]models.Outcome, len(resp.Results))
	for _, o := range resp.Results {
		outcomes[o.ClientID] = o
	}

	applyCtx, cancel := detached(ctx)
	defer cancel()

	for _, rec := range submitted {
		outcome, ok := outcomes[rec.ClientID]
		if !ok {
			outcome = models.TransportFailure(rec.ClientID, reasonMissingResult)
		}

		if err := s.queue.ApplyOutcome(applyCtx, rec.ClientID, outcome); err != nil {
			log.Err(err).Str("client_id", rec.ClientID).Str("status", string(outcome.Status)).Msg("applying outcome failed")
			report.Failed++
			continue
		}

		switch {
		case outcome.Accepted():
			report.Synced++
		case outcome.Status == models.OutcomeConflict:
			report.Conflicts++
		default:
			report.Failed++
		}
	}
	marked = nil

	report.Result = models.CycleCompleted
	log.Info().
		Int("submitted", report.Submitted).
		Int("synced", report.Synced).
		Int("conflicts", report.Conflicts).
		Int("failed", report.Failed).
		Msg("sync cycle completed")

	return report, nil
}

// rollback returns submitted records to pending as failed transmissions.
func (s *clientSyncService) rollback(clientIDs []string, reason string) {
	if len(clientIDs) == 0 {
		return
	}

	ctx, cancel := detached(context.Background())
	defer cancel()

	for _, id := range clientIDs {
		err := s.queue.ApplyOutcome(ctx, id, models.TransportFailure(id, reason))
		if err != nil && !errors.Is(err, store.ErrInvalidTransition) {
			s.logger.Err(err).Str("func", "clientSyncService.rollback").Str("client_id", id).Msg("rollback failed")
		}
	}
}

func (s *clientSyncService) remember(report models.SyncReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReport = &report
}

// RevertStale implements ClientSyncService.
func (s *clientSyncService) RevertStale(ctx context.Context) (int64, error) {
	n, err := s.queue.RevertStale(ctx, s.clock.Now().Add(-s.watchdogTimeout))
	if err != nil {
		return 0, fmt.Errorf("reverting stale submissions failed: %w", err)
	}
	if n > 0 {
		s.logger.Warn().Str("func", "clientSyncService.RevertStale").Int64("reverted", n).Msg("stale submissions reverted to pending")
	}

	return n, nil
}

// Purge implements ClientSyncService.
func (s *clientSyncService) Purge(ctx context.Context) (int64, error) {
	n, err := s.queue.PurgeSynced(ctx, s.clock.Now().Add(-s.retentionAge))
	if err != nil {
		return 0, fmt.Errorf("purging synced records failed: %w", err)
	}
	if n > 0 {
		s.logger.Info().Str("func", "clientSyncService.Purge").Int64("purged", n).Msg("synced records purged")
	}

	return n, nil
}

// ResolveConflict implements ClientSyncService.
//
// KeepLocal overrides the server and needs it reachable. KeepAuthoritative
// prefers the server's current version and falls back to the one stored
// with the conflict when offline.
func (s *clientSyncService) ResolveConflict(ctx context.Context, clientID string, resolution models.Resolution) (models.SyncableRecord, error) {
	rec, err := s.queue.Get(ctx, clientID)
	if err != nil {
		return models.SyncableRecord{}, fmt.Errorf("loading %s failed: %w", clientID, err)
	}
	if rec.SyncState != models.StateConflict {
		return models.SyncableRecord{}, ErrNotInConflict
	}

	var final models.AuthoritativeRecord
	switch resolution {
	case models.KeepLocal:
		if !s.connectivity.Online(ctx) {
			return models.SyncableRecord{}, ErrOffline
		}

		final, err = s.adapter.ResolveConflict(ctx, clientID, models.ResolveRequest{
			Payload:   rec.Payload,
			UpdatedAt: s.clock.Now().UTC(),
		})
		if err != nil {
			return models.SyncableRecord{}, mapAdapterError(err)
		}

	case models.KeepAuthoritative:
		final, err = s.authoritativeVersion(ctx, rec)
		if err != nil {
			return models.SyncableRecord{}, err
		}

	default:
		return models.SyncableRecord{}, fmt.Errorf("%w: %q", ErrUnknownResolution, resolution)
	}

	if err := s.queue.ResolveConflict(ctx, clientID, final); err != nil {
		return models.SyncableRecord{}, fmt.Errorf("resolving %s failed: %w", clientID, err)
	}

	s.logger.Info().
		Str("func", "clientSyncService.ResolveConflict").
		Str("client_id", clientID).
		Str("resolution", string(resolution)).
		Msg("conflict resolved")

	return s.queue.Get(ctx, clientID)
}

func (s *clientSyncService) authoritativeVersion(ctx context.Context, rec models.SyncableRecord) (models.AuthoritativeRecord, error) {
	if s.connectivity.Online(ctx) {
		final, err := s.adapter.FetchRecord(ctx, rec.ClientID)
		if err == nil {
			return final, nil
		}
		s.logger.Warn().Err(err).Str("client_id", rec.ClientID).Msg("fetching authoritative version failed, using stored copy")
	}

	if rec.AuthoritativePayload == nil || rec.AuthoritativeUpdatedAt == nil {
		return models.AuthoritativeRecord{}, ErrNoAuthoritativeVersion
	}

	final := models.AuthoritativeRecord{
		ClientID:   rec.ClientID,
		Payload:    *rec.AuthoritativePayload,
		CapturedAt: rec.CapturedAt,
		UpdatedAt:  *rec.AuthoritativeUpdatedAt,
	}
	if rec.ServerID != nil {
		final.ServerID = *rec.ServerID
	}

	return final, nil
}

// Get implements ClientSyncService.
func (s *clientSyncService) Get(ctx context.Context, clientID string) (models.SyncableRecord, error) {
	rec, err := s.queue.Get(ctx, clientID)
	if err != nil {
		return models.SyncableRecord{}, fmt.Errorf("reading record %s failed: %w", clientID, err)
	}
	return rec, nil
}

// Retry implements ClientSyncService.
func (s *clientSyncService) Retry(ctx context.Context, clientID string) error {
	if err := s.queue.Retry(ctx, clientID); err != nil {
		return fmt.Errorf("retry of %s failed: %w", clientID, err)
	}

	return nil
}

// Status implements ClientSyncService.
func (s *clientSyncService) Status(ctx context.Context) (models.SyncStatus, error) {
	stats, err := s.queue.Stats(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("reading queue stats failed: %w", err)
	}

	attention, err := s.queue.ListAttention(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("listing records needing attention failed: %w", err)
	}

	status := models.SyncStatus{
		Stats:     stats,
		Attention: attention,
		Online:    s.connectivity.Online(ctx),
	}

	s.mu.RLock()
	if s.lastReport != nil {
		report := *s.lastReport
		status.LastReport = &report
	}
	s.mu.RUnlock()

	return status, nil
}

// detached returns a context that survives cancellation of parent but is
// bounded by rollbackTimeout.
func detached(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), rollbackTimeout)
}
