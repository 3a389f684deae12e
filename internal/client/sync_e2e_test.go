// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/adapter"
	"github.com/MKhiriev/delivery-sync/internal/config"
	httphandler "github.com/MKhiriev/delivery-sync/internal/handler/http"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/service"
	"github.com/MKhiriev/delivery-sync/internal/store"
	"github.com/MKhiriev/delivery-sync/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncServer is a real sync server over an in-memory store. While offline
// is set every request is answered with 503.
type syncServer struct {
	*httptest.Server

	records *store.MemoryRecordStore
	offline atomic.Bool
	token   string
}

func newSyncServer(t *testing.T) *syncServer {
	t.Helper()

	cfg := config.StructuredConfig{
		App: config.App{
			TokenSignKey:  "e2e-sign-key",
			TokenIssuer:   "delivery-sync",
			TokenDuration: time.Hour,
			HashKey:       "hash",
			Version:       "test",
			MaxBatchSize:  100,
		},
	}

	s := &syncServer{records: store.NewMemoryRecordStore()}

	services, err := service.NewServices(store.NewMemoryStorages(s.records), cfg, logger.Nop())
	require.NoError(t, err)

	token, err := services.AuthService.IssueToken(context.Background(), "officer-7")
	require.NoError(t, err)
	s.token = token.SignedString

	router := httphandler.NewHandler(services, cfg, logger.Nop()).Init()
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.offline.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)

	return s
}

func newDeviceApp(t *testing.T, srv *syncServer) *App {
	t.Helper()

	cfg := testClientConfig(t)
	cfg.Adapter.HTTPAddress = srv.URL
	cfg.Adapter.Token = srv.token

	app, err := NewApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	return app
}

func delivery(farmer string, liters float64) models.DeliveryPayload {
	return models.DeliveryPayload{
		FarmerCode:     farmer,
		StationID:      "ST-01",
		DeliveryDate:   "2026-10-16",
		QuantityLiters: liters,
		QualityGrade:   models.GradeA,
		Source:         models.SourceMobile,
	}
}

func TestSync_OfflineCaptureThenReconnect(t *testing.T) {
	ctx := context.Background()
	srv := newSyncServer(t)
	app := newDeviceApp(t, srv)
	syncSvc := app.services.SyncService

	srv.offline.Store(true)

	u1, err := syncSvc.Capture(ctx, delivery("F-001", 10))
	require.NoError(t, err)
	u2, err := syncSvc.Capture(ctx, delivery("F-002", 5))
	require.NoError(t, err)

	report, err := syncSvc.Trigger(ctx, service.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, models.CycleOffline, report.Result)

	pending, err := syncSvc.Get(ctx, u1.ClientID)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, pending.SyncState)
	assert.Zero(t, srv.records.Len())

	srv.offline.Store(false)

	report, err = syncSvc.Trigger(ctx, service.ReasonConnectivityRestored)
	require.NoError(t, err)
	assert.Equal(t, models.CycleCompleted, report.Result)
	assert.Equal(t, 2, report.Submitted)
	assert.Equal(t, 2, report.Synced)
	assert.Equal(t, 2, srv.records.Len())

	for _, id := range []string{u1.ClientID, u2.ClientID} {
		rec, err := syncSvc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StateSynced, rec.SyncState)
		require.NotNil(t, rec.ServerID)

		stored, err := srv.records.Lookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, *rec.ServerID, stored.ServerID)
		assert.Equal(t, "officer-7", stored.ActorID)
	}

	t.Run("resubmission is a duplicate", func(t *testing.T) {
		synced, err := syncSvc.Get(ctx, u1.ClientID)
		require.NoError(t, err)

		cfg := app.cfg
		serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, cfg.App, logger.Nop())
		require.NoError(t, err)

		resp, err := serverAdapter.SubmitBatch(ctx, models.NewBatchRequest([]models.SyncableRecord{synced}))
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, models.OutcomeDuplicate, resp.Results[0].Status)
		require.NotNil(t, resp.Results[0].ServerID)
		assert.Equal(t, *synced.ServerID, *resp.Results[0].ServerID)
		assert.Equal(t, 2, srv.records.Len())
	})
}

func TestSync_ConflictWithNewerAuthoritativeVersion(t *testing.T) {
	ctx := context.Background()
	srv := newSyncServer(t)
	app := newDeviceApp(t, srv)
	syncSvc := app.services.SyncService

	now := time.Now().UTC().Truncate(time.Millisecond)
	clientID := uuid.NewString()

	_, created, err := srv.records.Create(ctx, models.AuthoritativeRecord{
		ServerID:   uuid.NewString(),
		ClientID:   clientID,
		Payload:    delivery("F-003", 12),
		CapturedAt: now,
		UpdatedAt:  now.Add(time.Hour),
		ActorID:    "supervisor",
		CreatedAt:  now,
	})
	require.NoError(t, err)
	require.True(t, created)

	_, inserted, err := app.storages.Queue.Enqueue(ctx, models.SyncableRecord{
		ClientID:   clientID,
		Payload:    delivery("F-003", 10),
		CapturedAt: now,
		UpdatedAt:  now,
		SyncState:  models.StatePending,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	report, err := syncSvc.Trigger(ctx, service.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Conflicts)

	rec, err := syncSvc.Get(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, models.StateConflict, rec.SyncState)
	require.NotNil(t, rec.AuthoritativePayload)
	assert.Equal(t, 12.0, rec.AuthoritativePayload.QuantityLiters)

	// A record in conflict is never resubmitted on its own.
	report, err = syncSvc.Trigger(ctx, service.ReasonManual)
	require.NoError(t, err)
	assert.Equal(t, models.CycleIdle, report.Result)

	rec, err = syncSvc.Get(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, models.StateConflict, rec.SyncState)

	resolved, err := syncSvc.ResolveConflict(ctx, clientID, models.KeepAuthoritative)
	require.NoError(t, err)
	assert.Equal(t, models.StateSynced, resolved.SyncState)
	assert.Equal(t, 12.0, resolved.Payload.QuantityLiters)

	stored, err := srv.records.Lookup(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, stored.Payload.QuantityLiters)
	assert.Equal(t, "supervisor", stored.ActorID)
}

func TestSync_KeepLocalOverridesServer(t *testing.T) {
	ctx := context.Background()
	srv := newSyncServer(t)
	app := newDeviceApp(t, srv)
	syncSvc := app.services.SyncService

	now := time.Now().UTC().Truncate(time.Millisecond)
	clientID := uuid.NewString()

	_, _, err := srv.records.Create(ctx, models.AuthoritativeRecord{
		ServerID:   uuid.NewString(),
		ClientID:   clientID,
		Payload:    delivery("F-004", 20),
		CapturedAt: now,
		UpdatedAt:  now.Add(time.Hour),
		ActorID:    "supervisor",
		CreatedAt:  now,
	})
	require.NoError(t, err)

	_, _, err = app.storages.Queue.Enqueue(ctx, models.SyncableRecord{
		ClientID:   clientID,
		Payload:    delivery("F-004", 18),
		CapturedAt: now,
		UpdatedAt:  now,
		SyncState:  models.StatePending,
	})
	require.NoError(t, err)

	_, err = syncSvc.Trigger(ctx, service.ReasonManual)
	require.NoError(t, err)

	resolved, err := syncSvc.ResolveConflict(ctx, clientID, models.KeepLocal)
	require.NoError(t, err)
	assert.Equal(t, models.StateSynced, resolved.SyncState)
	assert.Equal(t, 18.0, resolved.Payload.QuantityLiters)

	stored, err := srv.records.Lookup(ctx, clientID)
	require.NoError(t, err)
	assert.Equal(t, 18.0, stored.Payload.QuantityLiters)
	assert.Equal(t, "officer-7", stored.ActorID)
}
