// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/delivery-sync/models"
)

const queueTable = "sync_queue"

var queueColumns = []string{
	"client_id",
	"server_id",
	"payload",
	"captured_at",
	"updated_at",
	"sync_state",
	"retry_count",
	"last_error",
	"submitted_at",
	"synced_at",
	"parked",
	"authoritative_payload",
	"authoritative_updated_at",
}

var sqlite = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// queueRow is the column-level form of a queue record. Timestamps are Unix
// microseconds, payloads are JSON text.
type queueRow struct {
	clientID               string
	serverID               sql.NullString
	payload                string
	capturedAt             int64
	updatedAt              int64
	syncState              string
	retryCount             int
	lastError              sql.NullString
	submittedAt            sql.NullInt64
	syncedAt               sql.NullInt64
	parked                 bool
	authoritativePayload   sql.NullString
	authoritativeUpdatedAt sql.NullInt64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueRow(s rowScanner) (models.SyncableRecord, error) {
	var r queueRow
	err := s.Scan(
		&r.clientID,
		&r.serverID,
		&r.payload,
		&r.capturedAt,
		&r.updatedAt,
		&r.syncState,
		&r.retryCount,
		&r.lastError,
		&r.submittedAt,
		&r.syncedAt,
		&r.parked,
		&r.authoritativePayload,
		&r.authoritativeUpdatedAt,
	)
	if err != nil {
		return models.SyncableRecord{}, err
	}

	return r.toRecord()
}

func (r queueRow) toRecord() (models.SyncableRecord, error) {
	rec := models.SyncableRecord{
		ClientID:   r.clientID,
		CapturedAt: fromMicros(r.capturedAt),
		UpdatedAt:  fromMicros(r.updatedAt),
		SyncState:  models.SyncState(r.syncState),
		RetryCount: r.retryCount,
		Parked:     r.parked,
	}

	if err := json.Unmarshal([]byte(r.payload), &rec.Payload); err != nil {
		return models.SyncableRecord{}, fmt.Errorf("%w: %w", ErrDecodingPayload, err)
	}

	if r.serverID.Valid {
		rec.ServerID = &r.serverID.String
	}
	if r.lastError.Valid {
		rec.LastError = &r.lastError.String
	}
	rec.SubmittedAt = nullableTime(r.submittedAt)
	rec.SyncedAt = nullableTime(r.syncedAt)
	rec.AuthoritativeUpdatedAt = nullableTime(r.authoritativeUpdatedAt)

	if r.authoritativePayload.Valid {
		var p models.DeliveryPayload
		if err := json.Unmarshal([]byte(r.authoritativePayload.String), &p); err != nil {
			return models.SyncableRecord{}, fmt.Errorf("%w: %w", ErrDecodingPayload, err)
		}
		rec.AuthoritativePayload = &p
	}

	return rec, nil
}

// queueValues maps a record to its column values in queueColumns order.
func queueValues(rec models.SyncableRecord) ([]any, error) {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
	}

	var authoritative any
	if rec.AuthoritativePayload != nil {
		encoded, err := json.Marshal(rec.AuthoritativePayload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodingPayload, err)
		}
		authoritative = string(encoded)
	}

	return []any{
		rec.ClientID,
		nullableString(rec.ServerID),
		string(payload),
		toMicros(rec.CapturedAt),
		toMicros(rec.UpdatedAt),
		string(rec.SyncState),
		rec.RetryCount,
		nullableString(rec.LastError),
		nullableMicros(rec.SubmittedAt),
		nullableMicros(rec.SyncedAt),
		rec.Parked,
		authoritative,
		nullableMicros(rec.AuthoritativeUpdatedAt),
	}, nil
}

func buildInsertQueueQuery(rec models.SyncableRecord) (string, []any, error) {
	values, err := queueValues(rec)
	if err != nil {
		return "", nil, err
	}

	query, args, err := sqlite.Insert(queueTable).Columns(queueColumns...).Values(values...).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildSaveQueueQuery writes every mutable column of rec.
func buildSaveQueueQuery(rec models.SyncableRecord) (string, []any, error) {
	values, err := queueValues(rec)
	if err != nil {
		return "", nil, err
	}

	update := sqlite.Update(queueTable)
	// skip client_id, it is the key
	for i, col := range queueColumns[1:] {
		update = update.Set(col, values[i+1])
	}

	query, args, err := update.Where(sq.Eq{"client_id": rec.ClientID}).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildGetQueueQuery(clientID string) (string, []any, error) {
	query, args, err := sqlite.Select(queueColumns...).
		From(queueTable).
		Where(sq.Eq{"client_id": clientID}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildListPendingQuery(limit, maxRetries int) (string, []any, error) {
	where := sq.And{
		sq.Eq{"sync_state": string(models.StatePending)},
		sq.Eq{"parked": false},
	}
	if maxRetries > 0 {
		where = append(where, sq.Lt{"retry_count": maxRetries})
	}

	query, args, err := sqlite.Select(queueColumns...).
		From(queueTable).
		Where(where).
		OrderBy("captured_at ASC", "client_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildMarkSubmittedQuery(clientID string, at time.Time) (string, []any, error) {
	query, args, err := sqlite.Update(queueTable).
		Set("sync_state", string(models.StateSubmitted)).
		Set("submitted_at", toMicros(at)).
		Where(sq.Eq{
			"client_id":  clientID,
			"sync_state": string(models.StatePending),
			"parked":     false,
		}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildRevertStaleQuery reverts records stuck in submitted, counting the
// lost submission as a failed attempt.
func buildRevertStaleQuery(olderThan time.Time, maxRetries int) (string, []any, error) {
	update := sqlite.Update(queueTable).
		Set("sync_state", string(models.StatePending)).
		Set("submitted_at", nil).
		Set("retry_count", sq.Expr("retry_count + 1")).
		Set("last_error", "no response observed before watchdog timeout")
	if maxRetries > 0 {
		update = update.Set("parked", sq.Expr("CASE WHEN retry_count + 1 >= ? THEN 1 ELSE parked END", maxRetries))
	}

	query, args, err := update.
		Where(sq.Eq{"sync_state": string(models.StateSubmitted)}).
		Where(sq.Lt{"submitted_at": toMicros(olderThan)}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildPurgeSyncedQuery(olderThan time.Time) (string, []any, error) {
	query, args, err := sqlite.Delete(queueTable).
		Where(sq.Eq{"sync_state": string(models.StateSynced)}).
		Where(sq.Lt{"synced_at": toMicros(olderThan)}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildAttentionQuery() (string, []any, error) {
	query, args, err := sqlite.Select(queueColumns...).
		From(queueTable).
		Where(sq.Or{
			sq.Eq{"sync_state": string(models.StateConflict)},
			sq.And{sq.Eq{"sync_state": string(models.StatePending)}, sq.Eq{"parked": true}},
		}).
		OrderBy("captured_at ASC").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildStatsQuery() (string, []any, error) {
	query, args, err := sqlite.Select("sync_state", "parked", "COUNT(*)").
		From(queueTable).
		GroupBy("sync_state", "parked").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildCountUnsyncedQuery() (string, []any, error) {
	query, args, err := sqlite.Select("COUNT(*)").
		From(queueTable).
		Where(sq.NotEq{"sync_state": string(models.StateSynced)}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func toMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

func nullableTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicros(v.Int64)
	return &t
}

func nullableMicros(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMicros(*t)
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
