// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/conflict"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/MKhiriev/delivery-sync/models"
)

// QueueOptions tune the device queue.
type QueueOptions struct {
	// Capacity caps the number of unsynced records. Zero means no cap.
	Capacity int
	// MaxRetries is the retry ceiling after which a record is parked. Zero
	// disables the ceiling.
	MaxRetries int
	// EditWindow limits how long after capture a record may be edited.
	EditWindow time.Duration
	Clock      utils.Clock
}

type localQueue struct {
	*DB
	// mu serializes writers in this process; SQLite serializes across
	// processes.
	mu         sync.RWMutex
	capacity   int
	maxRetries int
	editWindow conflict.EditWindow
	clock      utils.Clock
	logger     *logger.Logger
}

// NewLocalQueue constructs the SQLite [LocalQueue]. The schema must already
// be migrated.
func NewLocalQueue(db *DB, opts QueueOptions, logger *logger.Logger) LocalQueue {
	clock := opts.Clock
	if clock == nil {
		clock = utils.SystemClock{}
	}

	return &localQueue{
		DB:         db,
		capacity:   opts.Capacity,
		maxRetries: opts.MaxRetries,
		editWindow: conflict.EditWindow(opts.EditWindow),
		clock:      clock,
		logger:     logger,
	}
}

func (q *localQueue) Enqueue(ctx context.Context, rec models.SyncableRecord) (models.SyncableRecord, bool, error) {
	log := logger.FromContext(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CapturedAt
	}
	rec.ServerID = nil
	rec.SyncState = models.StatePending
	rec.RetryCount = 0
	rec.LastError = nil
	rec.SubmittedAt = nil
	rec.SyncedAt = nil
	rec.Parked = false
	rec.AuthoritativePayload = nil
	rec.AuthoritativeUpdatedAt = nil

	var (
		stored   models.SyncableRecord
		inserted bool
	)
	err := q.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := q.load(ctx, tx, rec.ClientID)
		if err == nil {
			stored = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		if q.capacity > 0 {
			unsynced, err := q.countUnsynced(ctx, tx)
			if err != nil {
				return err
			}
			if unsynced >= q.capacity {
				return ErrQueueFull
			}
		}

		query, args, err := buildInsertQueueQuery(rec)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}

		stored, inserted = rec, true
		return nil
	})
	if err != nil {
		log.Err(err).Str("func", "localQueue.Enqueue").Str("client_id", rec.ClientID).Msg("failed to enqueue record")
		return models.SyncableRecord{}, false, err
	}

	if !inserted {
		log.Debug().Str("func", "localQueue.Enqueue").Str("client_id", rec.ClientID).Msg("record already queued")
	}
	return stored, inserted, nil
}

func (q *localQueue) Get(ctx context.Context, clientID string) (models.SyncableRecord, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return q.load(ctx, q.DB.DB, clientID)
}

// ListPending runs its query on every range, without holding the writer
// lock, so the sequence may be ranged again after the queue changed.
func (q *localQueue) ListPending(ctx context.Context, limit int) iter.Seq2[models.SyncableRecord, error] {
	return func(yield func(models.SyncableRecord, error) bool) {
		if limit <= 0 {
			return
		}

		query, args, err := buildListPendingQuery(limit, q.maxRetries)
		if err != nil {
			yield(models.SyncableRecord{}, err)
			return
		}

		rows, err := q.DB.QueryContext(ctx, query, args...)
		if err != nil {
			logger.FromContext(ctx).Err(err).Str("func", "localQueue.ListPending").Msg("failed to query pending records")
			yield(models.SyncableRecord{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanQueueRow(rows)
			if err != nil {
				yield(models.SyncableRecord{}, fmt.Errorf("%w: %w", ErrScanningRows, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(models.SyncableRecord{}, fmt.Errorf("%w: %w", ErrScanningRows, err))
		}
	}
}

func (q *localQueue) MarkSubmitted(ctx context.Context, clientID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	query, args, err := buildMarkSubmittedQuery(clientID, q.clock.Now())
	if err != nil {
		return err
	}

	res, err := q.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localQueue.MarkSubmitted").Str("client_id", clientID).Msg("failed to mark record submitted")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := q.load(ctx, q.DB.DB, clientID); err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (q *localQueue) ApplyOutcome(ctx context.Context, clientID string, outcome models.Outcome) error {
	log := logger.FromContext(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.mutate(ctx, clientID, func(rec *models.SyncableRecord) (bool, error) {
		switch {
		case rec.SyncState == models.StateSynced && outcome.Accepted():
			// the same verdict delivered twice
			return false, nil
		case rec.SyncState != models.StateSubmitted:
			return false, fmt.Errorf("%w: %s record cannot take a %s outcome", ErrInvalidTransition, rec.SyncState, outcome.Status)
		}

		now := q.clock.Now()
		rec.SubmittedAt = nil

		switch outcome.Status {
		case models.OutcomeCreated, models.OutcomeDuplicate, models.OutcomeUpdated:
			if rec.ServerID == nil && outcome.ServerID != nil {
				rec.ServerID = outcome.ServerID
			}
			rec.SyncState = models.StateSynced
			rec.SyncedAt = &now
			rec.LastError = nil
			rec.Parked = false

		case models.OutcomeConflict:
			if rec.ServerID == nil && outcome.ServerID != nil {
				rec.ServerID = outcome.ServerID
			}
			rec.SyncState = models.StateConflict
			rec.AuthoritativePayload = outcome.AuthoritativePayload
			rec.AuthoritativeUpdatedAt = outcome.AuthoritativeUpdatedAt
			rec.LastError = nil

		case models.OutcomeError, models.OutcomeTransportError:
			reason := outcome.Reason
			rec.SyncState = models.StatePending
			rec.LastError = &reason
			if outcome.Retryable {
				rec.RetryCount++
				rec.Parked = q.maxRetries > 0 && rec.RetryCount >= q.maxRetries
			} else {
				rec.Parked = true
			}

		default:
			return false, fmt.Errorf("%w: unknown outcome %q", ErrInvalidTransition, outcome.Status)
		}

		return true, nil
	})
	if err != nil {
		log.Err(err).
			Str("func", "localQueue.ApplyOutcome").
			Str("client_id", clientID).
			Str("status", string(outcome.Status)).
			Msg("failed to apply outcome")
		return err
	}

	return nil
}

func (q *localQueue) RevertStale(ctx context.Context, olderThan time.Time) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	query, args, err := buildRevertStaleQuery(olderThan, q.maxRetries)
	if err != nil {
		return 0, err
	}

	return q.exec(ctx, "localQueue.RevertStale", query, args)
}

func (q *localQueue) PurgeSynced(ctx context.Context, olderThan time.Time) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	query, args, err := buildPurgeSyncedQuery(olderThan)
	if err != nil {
		return 0, err
	}

	return q.exec(ctx, "localQueue.PurgeSynced", query, args)
}

// Edit is allowed only while a record has not been acknowledged, so a
// record carrying a server_id is never pending again.
func (q *localQueue) Edit(ctx context.Context, clientID string, payload models.DeliveryPayload) (models.SyncableRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var edited models.SyncableRecord
	err := q.mutate(ctx, clientID, func(rec *models.SyncableRecord) (bool, error) {
		if rec.SyncState != models.StatePending {
			return false, fmt.Errorf("%w: %s record cannot be edited", ErrInvalidTransition, rec.SyncState)
		}

		now := q.clock.Now()
		if err := q.editWindow.Check(rec.CapturedAt, now); err != nil {
			return false, err
		}

		// updated_at must strictly increase even if the clock stalls
		updatedAt := now
		if !updatedAt.After(rec.UpdatedAt) {
			updatedAt = rec.UpdatedAt.Add(time.Microsecond)
		}

		rec.Payload = payload
		rec.UpdatedAt = updatedAt
		rec.RetryCount = 0
		rec.LastError = nil
		rec.Parked = false

		edited = *rec
		return true, nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localQueue.Edit").Str("client_id", clientID).Msg("failed to edit record")
		return models.SyncableRecord{}, err
	}

	return edited, nil
}

func (q *localQueue) ResolveConflict(ctx context.Context, clientID string, final models.AuthoritativeRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.mutate(ctx, clientID, func(rec *models.SyncableRecord) (bool, error) {
		if rec.SyncState != models.StateConflict {
			return false, fmt.Errorf("%w: %s record has no conflict to resolve", ErrInvalidTransition, rec.SyncState)
		}

		now := q.clock.Now()
		serverID := final.ServerID
		if serverID != "" {
			rec.ServerID = &serverID
		}
		rec.Payload = final.Payload
		rec.UpdatedAt = final.UpdatedAt.UTC()
		rec.SyncState = models.StateSynced
		rec.SyncedAt = &now
		rec.RetryCount = 0
		rec.LastError = nil
		rec.Parked = false
		rec.AuthoritativePayload = nil
		rec.AuthoritativeUpdatedAt = nil

		return true, nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localQueue.ResolveConflict").Str("client_id", clientID).Msg("failed to resolve conflict")
	}

	return err
}

func (q *localQueue) Retry(ctx context.Context, clientID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.mutate(ctx, clientID, func(rec *models.SyncableRecord) (bool, error) {
		if rec.SyncState != models.StatePending {
			return false, fmt.Errorf("%w: only pending records can be retried", ErrInvalidTransition)
		}

		rec.Parked = false
		rec.RetryCount = 0
		rec.LastError = nil
		return true, nil
	})
}

func (q *localQueue) ListAttention(ctx context.Context) ([]models.SyncableRecord, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	query, args, err := buildAttentionQuery()
	if err != nil {
		return nil, err
	}

	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localQueue.ListAttention").Msg("failed to query records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.SyncableRecord
	for rows.Next() {
		rec, err := scanQueueRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func (q *localQueue) Stats(ctx context.Context) (models.QueueStats, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	query, args, err := buildStatsQuery()
	if err != nil {
		return models.QueueStats{}, err
	}

	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return models.QueueStats{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var stats models.QueueStats
	for rows.Next() {
		var (
			state  string
			parked bool
			count  int
		)
		if err := rows.Scan(&state, &parked, &count); err != nil {
			return models.QueueStats{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		switch models.SyncState(state) {
		case models.StatePending:
			stats.Pending += count
			if parked {
				stats.Parked += count
			}
		case models.StateSubmitted:
			stats.Submitted += count
		case models.StateSynced:
			stats.Synced += count
		case models.StateConflict:
			stats.Conflict += count
		}
	}
	if err := rows.Err(); err != nil {
		return models.QueueStats{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return stats, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (q *localQueue) load(ctx context.Context, db querier, clientID string) (models.SyncableRecord, error) {
	query, args, err := buildGetQueueQuery(clientID)
	if err != nil {
		return models.SyncableRecord{}, err
	}

	rec, err := scanQueueRow(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncableRecord{}, ErrNotFound
	}
	if err != nil {
		return models.SyncableRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return rec, nil
}

// mutate loads a record, applies fn and saves the result in one transaction.
// Nothing is written when fn reports no change.
func (q *localQueue) mutate(ctx context.Context, clientID string, fn func(rec *models.SyncableRecord) (bool, error)) error {
	return q.withTx(ctx, func(tx *sql.Tx) error {
		rec, err := q.load(ctx, tx, clientID)
		if err != nil {
			return err
		}

		changed, err := fn(&rec)
		if err != nil || !changed {
			return err
		}

		query, args, err := buildSaveQueueQuery(rec)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		return nil
	})
}

func (q *localQueue) countUnsynced(ctx context.Context, tx *sql.Tx) (int, error) {
	query, args, err := buildCountUnsyncedQuery()
	if err != nil {
		return 0, err
	}

	var n int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return n, nil
}

func (q *localQueue) exec(ctx context.Context, fn, query string, args []any) (int64, error) {
	res, err := q.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", fn).Msg("failed to execute query")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return affected, nil
}

func (q *localQueue) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := q.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}
