// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/mock"
	"github.com/MKhiriev/delivery-sync/internal/store"
	"github.com/MKhiriev/delivery-sync/internal/validators"
	"github.com/MKhiriev/delivery-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testActor    = "officer-17"
	testClientID = "0b4c6f7e-3f1a-4c1e-9a55-2d7f3b8e6a10"
)

var (
	t0           = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	errTransient = errors.New("connection reset")
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testPayload(liters float64) models.DeliveryPayload {
	return models.DeliveryPayload{
		FarmerCode:     "F-100",
		StationID:      "ST-1",
		DeliveryDate:   "2026-03-01",
		QuantityLiters: liters,
		QualityGrade:   models.GradeA,
		Source:         models.SourceMobile,
	}
}

func batchRecord(clientID string, liters float64, updatedAt time.Time) models.BatchRecord {
	return models.BatchRecord{
		ClientID:   clientID,
		Payload:    testPayload(liters),
		CapturedAt: t0,
		UpdatedAt:  updatedAt,
	}
}

func batchOf(records ...models.BatchRecord) models.BatchRequest {
	return models.BatchRequest{Records: records, Length: len(records)}
}

// newMemoryIngestion builds an ingestion service over the in-memory store.
// Notifications are accepted silently.
func newMemoryIngestion(t *testing.T) (*ingestionService, *store.MemoryRecordStore) {
	t.Helper()
	ctrl := gomock.NewController(t)

	notifier := mock.NewMockNotifier(ctrl)
	notifier.EXPECT().RecordAccepted(gomock.Any(), gomock.Any()).AnyTimes()
	notifier.EXPECT().RecordOverridden(gomock.Any(), gomock.Any()).AnyTimes()

	mem := store.NewMemoryRecordStore()
	svc := NewIngestionService(store.NewMemoryStorages(mem), validators.NewDeliveryValidator(0, 100), notifier, logger.Nop()).(*ingestionService)
	svc.clock = fixedClock{now: t0.Add(time.Hour)}

	return svc, mem
}

// newMockIngestion builds an ingestion service over mocked storages.
func newMockIngestion(t *testing.T, ctrl *gomock.Controller) (*ingestionService, *mock.MockRecordStore, *mock.MockAuditLog, *mock.MockNotifier) {
	t.Helper()

	records := mock.NewMockRecordStore(ctrl)
	audit := mock.NewMockAuditLog(ctrl)
	notifier := mock.NewMockNotifier(ctrl)

	storages := &store.Storages{
		Records:   records,
		Audit:     audit,
		Retryable: func(err error) bool { return errors.Is(err, errTransient) },
	}
	svc := NewIngestionService(storages, validators.NewDeliveryValidator(0, 100), notifier, logger.Nop()).(*ingestionService)
	svc.clock = fixedClock{now: t0.Add(time.Hour)}

	return svc, records, audit, notifier
}

// ── IngestBatch ──────────────────────────────────────────────────────────────

func TestIngestBatch_CreateThenDuplicate(t *testing.T) {
	svc, mem := newMemoryIngestion(t)
	ctx := context.Background()
	req := batchOf(batchRecord(testClientID, 12.5, t0))

	first := svc.IngestBatch(ctx, testActor, req)
	require.Len(t, first.Results, 1)
	assert.Equal(t, models.OutcomeCreated, first.Results[0].Status)
	require.NotNil(t, first.Results[0].ServerID)

	second := svc.IngestBatch(ctx, testActor, req)
	require.Len(t, second.Results, 1)
	assert.Equal(t, models.OutcomeDuplicate, second.Results[0].Status)
	assert.Equal(t, *first.Results[0].ServerID, *second.Results[0].ServerID)

	assert.Equal(t, 1, mem.Len())

	entries := mem.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditCreate, entries[0].Action)
	assert.Equal(t, testActor, entries[0].ActorID)
	assert.Equal(t, *first.Results[0].ServerID, entries[0].EntityID)

	stored, err := svc.Lookup(ctx, testClientID)
	require.NoError(t, err)
	assert.Equal(t, testActor, stored.ActorID)
	assert.Equal(t, t0.Add(time.Hour), stored.CreatedAt)
}

func TestIngestBatch_RepeatedOverlappingSubmissionsCreateOnce(t *testing.T) {
	svc, mem := newMemoryIngestion(t)
	ctx := context.Background()

	const (
		idA = "5b1d2c3e-0000-4000-8000-00000000000a"
		idB = "5b1d2c3e-0000-4000-8000-00000000000b"
		idC = "5b1d2c3e-0000-4000-8000-00000000000c"
	)
	recs := map[string]models.BatchRecord{
		idA: batchRecord(idA, 10, t0),
		idB: batchRecord(idB, 11, t0),
		idC: batchRecord(idC, 12, t0),
	}

	// Retries after lost responses arrive in new batches with a different
	// mix and order.
	submissions := [][]string{
		{idA},
		{idB, idA},
		{idA, idC, idB},
		{idC, idA},
		{idA, idB, idC},
	}

	created := map[string]int{}
	duplicates := map[string]int{}
	serverIDs := map[string]string{}

	for _, ids := range submissions {
		records := make([]models.BatchRecord, 0, len(ids))
		for _, id := range ids {
			records = append(records, recs[id])
		}

		resp := svc.IngestBatch(ctx, testActor, batchOf(records...))
		require.Len(t, resp.Results, len(ids))

		for i, o := range resp.Results {
			assert.Equal(t, ids[i], o.ClientID)
			require.NotNil(t, o.ServerID)

			switch o.Status {
			case models.OutcomeCreated:
				created[o.ClientID]++
			case models.OutcomeDuplicate:
				duplicates[o.ClientID]++
			default:
				t.Fatalf("unexpected outcome %q for %s", o.Status, o.ClientID)
			}

			if prev, ok := serverIDs[o.ClientID]; ok {
				assert.Equal(t, prev, *o.ServerID, "server_id changed for %s", o.ClientID)
			}
			serverIDs[o.ClientID] = *o.ServerID
		}
	}

	assert.Equal(t, map[string]int{idA: 1, idB: 1, idC: 1}, created)
	assert.Equal(t, map[string]int{idA: 4, idB: 2, idC: 2}, duplicates)
	assert.Equal(t, 3, mem.Len())
	assert.Len(t, mem.AuditEntries(), 3)
}

func TestIngestBatch_StaleEditConflicts(t *testing.T) {
	svc, mem := newMemoryIngestion(t)
	ctx := context.Background()

	// The authoritative copy was corrected at T2.
	_, _, err := mem.Create(ctx, models.AuthoritativeRecord{
		ServerID:   "srv-1",
		ClientID:   testClientID,
		Payload:    testPayload(14),
		CapturedAt: t0,
		UpdatedAt:  t0.Add(20 * time.Minute),
	})
	require.NoError(t, err)

	// The device edited its copy at T1 < T2.
	resp := svc.IngestBatch(ctx, testActor, batchOf(batchRecord(testClientID, 13, t0.Add(10*time.Minute))))

	require.Len(t, resp.Results, 1)
	out := resp.Results[0]
	assert.Equal(t, models.OutcomeConflict, out.Status)
	require.NotNil(t, out.AuthoritativePayload)
	assert.Equal(t, 14.0, out.AuthoritativePayload.QuantityLiters)
	require.NotNil(t, out.AuthoritativeUpdatedAt)
	assert.True(t, out.AuthoritativeUpdatedAt.Equal(t0.Add(20*time.Minute)))
	assert.Equal(t, 1, resp.Conflicts)

	stored, err := mem.Lookup(ctx, testClientID)
	require.NoError(t, err)
	assert.Equal(t, 14.0, stored.Payload.QuantityLiters, "conflict must not modify the stored record")
}

func TestIngestBatch_OlderIdenticalIsDuplicate(t *testing.T) {
	svc, mem := newMemoryIngestion(t)
	ctx := context.Background()

	_, _, err := mem.Create(ctx, models.AuthoritativeRecord{
		ServerID:  "srv-1",
		ClientID:  testClientID,
		Payload:   testPayload(12.5),
		UpdatedAt: t0.Add(time.Minute),
	})
	require.NoError(t, err)

	resp := svc.IngestBatch(ctx, testActor, batchOf(batchRecord(testClientID, 12.5, t0)))

	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.OutcomeDuplicate, resp.Results[0].Status)
	assert.Equal(t, "srv-1", *resp.Results[0].ServerID)
}

func TestIngestBatch_NewerEditUpdates(t *testing.T) {
	svc, mem := newMemoryIngestion(t)
	ctx := context.Background()

	created := svc.IngestBatch(ctx, testActor, batchOf(batchRecord(testClientID, 12.5, t0)))
	require.Equal(t, models.OutcomeCreated, created.Results[0].Status)

	resp := svc.IngestBatch(ctx, "officer-18", batchOf(batchRecord(testClientID, 13, t0.Add(5*time.Minute))))

	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.OutcomeUpdated, resp.Results[0].Status)
	assert.Equal(t, *created.Results[0].ServerID, *resp.Results[0].ServerID)

	stored, err := mem.Lookup(ctx, testClientID)
	require.NoError(t, err)
	assert.Equal(t, 13.0, stored.Payload.QuantityLiters)
	assert.True(t, stored.UpdatedAt.Equal(t0.Add(5*time.Minute)))
	assert.Equal(t, "officer-18", stored.ActorID)

	entries := mem.AuditEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditUpdate, entries[1].Action)
	require.Contains(t, entries[1].Changes, "quantity_liters")
	assert.Equal(t, [2]any{12.5, 13.0}, entries[1].Changes["quantity_liters"])
	assert.NotContains(t, entries[1].Changes, "farmer_code")
}

func TestIngestBatch_InvalidRecordDoesNotFailBatch(t *testing.T) {
	svc, mem := newMemoryIngestion(t)

	bad := batchRecord("not-a-uuid", 12.5, t0)
	good := batchRecord(testClientID, 12.5, t0)

	resp := svc.IngestBatch(context.Background(), testActor, batchOf(bad, good))

	require.Len(t, resp.Results, 2)
	assert.Equal(t, models.OutcomeError, resp.Results[0].Status)
	assert.False(t, resp.Results[0].Retryable)
	assert.Equal(t, validators.ErrInvalidClientID.Error(), resp.Results[0].Reason)
	assert.Equal(t, models.OutcomeCreated, resp.Results[1].Status)
	assert.Equal(t, 1, resp.Errors)
	assert.Equal(t, 1, mem.Len())
}

func TestIngestBatch_ConcurrentSameRecordCreatesOnce(t *testing.T) {
	svc, mem := newMemoryIngestion(t)
	req := batchOf(batchRecord(testClientID, 12.5, t0))

	const n = 20
	results := make([]models.Outcome, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			results[i] = svc.IngestBatch(context.Background(), testActor, req).Results[0]
		})
	}
	wg.Wait()

	created := 0
	serverIDs := map[string]struct{}{}
	for _, o := range results {
		if o.Status == models.OutcomeCreated {
			created++
		} else {
			assert.Equal(t, models.OutcomeDuplicate, o.Status)
		}
		require.NotNil(t, o.ServerID)
		serverIDs[*o.ServerID] = struct{}{}
	}

	assert.Equal(t, 1, created)
	assert.Len(t, serverIDs, 1)
	assert.Equal(t, 1, mem.Len())
}

func TestIngestBatch_CancelledRequestStillCompletes(t *testing.T) {
	svc, mem := newMemoryIngestion(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := svc.IngestBatch(ctx, testActor, batchOf(batchRecord(testClientID, 12.5, t0)))

	assert.Equal(t, models.OutcomeCreated, resp.Results[0].Status)
	assert.Equal(t, 1, mem.Len())
}

func TestIngestBatch_StoreErrors(t *testing.T) {
	ctx := context.Background()
	rec := batchRecord(testClientID, 12.5, t0)

	tests := []struct {
		name          string
		setup         func(r *mock.MockRecordStore)
		wantRetryable bool
	}{
		{
			name: "transient lookup failure",
			setup: func(r *mock.MockRecordStore) {
				r.EXPECT().Lookup(gomock.Any(), testClientID).Return(models.AuthoritativeRecord{}, errTransient)
			},
			wantRetryable: true,
		},
		{
			name: "permanent create failure",
			setup: func(r *mock.MockRecordStore) {
				r.EXPECT().Lookup(gomock.Any(), testClientID).Return(models.AuthoritativeRecord{}, store.ErrNotFound)
				r.EXPECT().Create(gomock.Any(), gomock.Any()).Return(models.AuthoritativeRecord{}, false, store.ErrEncodingPayload)
			},
			wantRetryable: false,
		},
		{
			name: "concurrent modification",
			setup: func(r *mock.MockRecordStore) {
				r.EXPECT().Lookup(gomock.Any(), testClientID).Return(models.AuthoritativeRecord{
					ServerID:  "srv-1",
					ClientID:  testClientID,
					Payload:   testPayload(10),
					UpdatedAt: t0.Add(-time.Minute),
				}, nil)
				r.EXPECT().CompareAndUpdate(gomock.Any(), testClientID, t0.Add(-time.Minute), rec.Payload, t0, testActor).
					Return(models.AuthoritativeRecord{}, store.ErrStaleVersion)
			},
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, records, _, _ := newMockIngestion(t, ctrl)
			tt.setup(records)

			resp := svc.IngestBatch(ctx, testActor, batchOf(rec))

			require.Len(t, resp.Results, 1)
			assert.Equal(t, models.OutcomeError, resp.Results[0].Status)
			assert.Equal(t, tt.wantRetryable, resp.Results[0].Retryable)
			assert.NotEmpty(t, resp.Results[0].Reason)
		})
	}
}

func TestIngestBatch_LostCreateRaceReconciles(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, records, _, _ := newMockIngestion(t, ctrl)

	existing := models.AuthoritativeRecord{
		ServerID:  "srv-other",
		ClientID:  testClientID,
		Payload:   testPayload(12.5),
		UpdatedAt: t0,
	}
	records.EXPECT().Lookup(gomock.Any(), testClientID).Return(models.AuthoritativeRecord{}, store.ErrNotFound)
	records.EXPECT().Create(gomock.Any(), gomock.Any()).Return(existing, false, nil)

	resp := svc.IngestBatch(context.Background(), testActor, batchOf(batchRecord(testClientID, 12.5, t0)))

	assert.Equal(t, models.OutcomeDuplicate, resp.Results[0].Status)
	assert.Equal(t, "srv-other", *resp.Results[0].ServerID)
}

func TestIngestBatch_AuditFailureKeepsOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, records, audit, notifier := newMockIngestion(t, ctrl)

	records.EXPECT().Lookup(gomock.Any(), testClientID).Return(models.AuthoritativeRecord{}, store.ErrNotFound)
	records.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec models.AuthoritativeRecord) (models.AuthoritativeRecord, bool, error) {
			return rec, true, nil
		})
	audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errTransient)
	notifier.EXPECT().RecordAccepted(gomock.Any(), gomock.Any()).Times(1)

	resp := svc.IngestBatch(context.Background(), testActor, batchOf(batchRecord(testClientID, 12.5, t0)))

	assert.Equal(t, models.OutcomeCreated, resp.Results[0].Status)
}

// ── Lookup ───────────────────────────────────────────────────────────────────

func TestLookup_NotFound(t *testing.T) {
	svc, _ := newMemoryIngestion(t)

	_, err := svc.Lookup(context.Background(), testClientID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

// ── ResolveConflict ──────────────────────────────────────────────────────────

func TestResolveConflict_OverridesAndAdvancesVersion(t *testing.T) {
	svc, mem := newMemoryIngestion(t)
	ctx := context.Background()

	// Stored version is ahead of the service clock.
	storedAt := t0.Add(2 * time.Hour)
	_, _, err := mem.Create(ctx, models.AuthoritativeRecord{
		ServerID:  "srv-1",
		ClientID:  testClientID,
		Payload:   testPayload(14),
		UpdatedAt: storedAt,
	})
	require.NoError(t, err)

	got, err := svc.ResolveConflict(ctx, "supervisor-2", testClientID, models.ResolveRequest{
		Payload:   testPayload(13),
		UpdatedAt: t0,
	})
	require.NoError(t, err)

	assert.Equal(t, 13.0, got.Payload.QuantityLiters)
	assert.True(t, got.UpdatedAt.After(storedAt))
	assert.Equal(t, "supervisor-2", got.ActorID)
	assert.Equal(t, "srv-1", got.ServerID)

	entries := mem.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditOverride, entries[0].Action)
	assert.Equal(t, "supervisor-2", entries[0].ActorID)
	assert.Contains(t, entries[0].Changes, "quantity_liters")
}

func TestResolveConflict_UsesNowForOldRequests(t *testing.T) {
	svc, mem := newMemoryIngestion(t)
	ctx := context.Background()

	_, _, err := mem.Create(ctx, models.AuthoritativeRecord{ClientID: testClientID, Payload: testPayload(14), UpdatedAt: t0})
	require.NoError(t, err)

	got, err := svc.ResolveConflict(ctx, testActor, testClientID, models.ResolveRequest{
		Payload:   testPayload(13),
		UpdatedAt: t0.Add(time.Minute),
	})
	require.NoError(t, err)

	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Hour)), "updated_at must be the service clock, got %s", got.UpdatedAt)
}

func TestResolveConflict_Errors(t *testing.T) {
	svc, _ := newMemoryIngestion(t)
	ctx := context.Background()

	_, err := svc.ResolveConflict(ctx, testActor, testClientID, models.ResolveRequest{Payload: testPayload(13), UpdatedAt: t0})
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = svc.ResolveConflict(ctx, testActor, testClientID, models.ResolveRequest{Payload: testPayload(0), UpdatedAt: t0})
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
	assert.ErrorIs(t, err, validators.ErrInvalidQuantity)
}

func TestResolveConflict_NotifiesOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, records, audit, notifier := newMockIngestion(t, ctrl)

	existing := models.AuthoritativeRecord{ServerID: "srv-1", ClientID: testClientID, Payload: testPayload(14), UpdatedAt: t0}
	records.EXPECT().Lookup(gomock.Any(), testClientID).Return(existing, nil)
	records.EXPECT().Overwrite(gomock.Any(), testClientID, testPayload(13), t0.Add(time.Hour), testActor).
		Return(models.AuthoritativeRecord{ServerID: "srv-1", ClientID: testClientID, Payload: testPayload(13), UpdatedAt: t0.Add(time.Hour)}, nil)
	audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	notifier.EXPECT().RecordOverridden(gomock.Any(), gomock.Any()).Times(1)

	_, err := svc.ResolveConflict(context.Background(), testActor, testClientID, models.ResolveRequest{Payload: testPayload(13), UpdatedAt: t0})
	require.NoError(t, err)
}

// ── payloadChanges ───────────────────────────────────────────────────────────

func TestPayloadChanges(t *testing.T) {
	before := testPayload(12.5)
	after := testPayload(12.5)
	after.Remarks = "late evening"
	after.QualityGrade = models.GradeB

	changes := payloadChanges(before, after)

	assert.Len(t, changes, 2)
	assert.Equal(t, [2]any{nil, "late evening"}, changes["remarks"])
	assert.Equal(t, [2]any{"A", "B"}, changes["quality_grade"])
	assert.Empty(t, payloadChanges(before, before))
}
