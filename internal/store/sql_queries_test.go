// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/delivery-sync/internal/conflict"
	"github.com/MKhiriev/delivery-sync/models"
)

func Test_buildCreateDeliveryQuery(t *testing.T) {
	rec := testAuthoritative()

	query, args, err := buildCreateDeliveryQuery(rec)
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.Contains(t, q, "insert into deliveries")
	require.Contains(t, q, "on conflict (client_id) do nothing")
	require.Contains(t, q, "returning server_id, client_id, payload")
	require.Contains(t, query, "$11")

	require.Len(t, args, 11)
	require.Equal(t, rec.ServerID, args[0])
	require.Equal(t, rec.ClientID, args[1])
	require.Equal(t, conflict.Fingerprint(rec.Payload), args[6])
}

func Test_buildUpdateDeliveryQuery(t *testing.T) {
	at := time.Now()

	guarded, args, err := buildUpdateDeliveryQuery("c1", &at, testPayload(1), at, "a")
	require.NoError(t, err)
	require.Contains(t, guarded, "updated_at = $")
	require.Equal(t, at, args[len(args)-1])

	plain, _, err := buildUpdateDeliveryQuery("c1", nil, testPayload(1), at, "a")
	require.NoError(t, err)
	require.NotContains(t, strings.SplitN(plain, "WHERE", 2)[1], "updated_at = $")
}

func Test_buildListPendingQuery(t *testing.T) {
	query, args, err := buildListPendingQuery(25, 10)
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.Contains(t, q, "from sync_queue")
	require.Contains(t, q, "sync_state = ?")
	require.Contains(t, q, "parked = ?")
	require.Contains(t, q, "retry_count < ?")
	require.Contains(t, q, "order by captured_at asc, client_id asc")
	require.Contains(t, q, "limit 25")
	require.NotContains(t, query, "$")
	require.Equal(t, []any{string(models.StatePending), false, 10}, args)

	unbounded, args, err := buildListPendingQuery(5, 0)
	require.NoError(t, err)
	require.NotContains(t, unbounded, "retry_count")
	require.Len(t, args, 2)
}

func Test_buildSaveQueueQuery_UpdatesEveryColumnButKey(t *testing.T) {
	rec := models.SyncableRecord{ClientID: "c1", Payload: testPayload(1), SyncState: models.StateSynced}

	query, args, err := buildSaveQueueQuery(rec)
	require.NoError(t, err)

	for _, col := range queueColumns[1:] {
		require.Contains(t, query, col+" = ?")
	}
	require.Len(t, args, len(queueColumns))
	require.Equal(t, "c1", args[len(args)-1])
}

func Test_buildRevertStaleQuery(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := buildRevertStaleQuery(cutoff, 3)
	require.NoError(t, err)
	require.Contains(t, query, "retry_count = retry_count + 1")
	require.Contains(t, query, "CASE WHEN retry_count + 1 >= ?")
	require.Contains(t, args, cutoff.UnixMicro())
	require.Contains(t, args, 3)
}

func TestMicrosRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 6, 30, 0, 123456000, time.FixedZone("EAT", 3*3600))
	got := fromMicros(toMicros(at))

	require.True(t, at.Equal(got))
	require.Equal(t, time.UTC, got.Location())
}
