// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/mock"
	"github.com/MKhiriev/delivery-sync/internal/service"
	"github.com/MKhiriev/delivery-sync/internal/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testClientConfig(t *testing.T) *config.ClientConfig {
	t.Helper()
	cfg := config.Defaults()
	cfg.App.HashKey = "hash"
	cfg.Storage.DB.DSN = filepath.Join(t.TempDir(), "queue.db")
	cfg.Adapter.HTTPAddress = "http://127.0.0.1:1"
	cfg.Adapter.Token = "token"
	return config.NewClientConfig(cfg)
}

func periodic(t *testing.T, ws []workers.Worker, name string) *workers.Periodic {
	t.Helper()
	for _, w := range ws {
		if p, ok := w.(*workers.Periodic); ok && p.Name == name {
			return p
		}
	}
	t.Fatalf("no %s worker", name)
	return nil
}

func TestBackgroundWorkers(t *testing.T) {
	ctrl := gomock.NewController(t)
	syncSvc := mock.NewMockClientSyncService(ctrl)
	job := mock.NewMockClientSyncJob(ctrl)

	cfg := testClientConfig(t)
	app := &App{
		cfg:      cfg,
		services: &service.ClientServices{SyncService: syncSvc, SyncJob: job},
		logger:   logger.Nop(),
	}

	ws := app.backgroundWorkers()
	require.Len(t, ws, 3)
	assert.Same(t, job, ws[0])

	watchdog := periodic(t, ws, "watchdog")
	assert.Equal(t, cfg.Workers.WatchdogTimeout/2, watchdog.Interval)
	assert.True(t, watchdog.RunOnStart)

	retention := periodic(t, ws, "retention")
	assert.Equal(t, cfg.Workers.PurgeInterval, retention.Interval)

	t.Run("watchdog triggers a cycle after reverting", func(t *testing.T) {
		syncSvc.EXPECT().RevertStale(gomock.Any()).Return(int64(2), nil)
		job.EXPECT().TriggerNow(service.ReasonWatchdog)

		assert.NoError(t, watchdog.Task(context.Background()))
	})

	t.Run("watchdog stays quiet when nothing is stale", func(t *testing.T) {
		syncSvc.EXPECT().RevertStale(gomock.Any()).Return(int64(0), nil)

		assert.NoError(t, watchdog.Task(context.Background()))
	})

	t.Run("retention reports store errors", func(t *testing.T) {
		boom := errors.New("disk I/O error")
		syncSvc.EXPECT().Purge(gomock.Any()).Return(int64(0), boom)

		assert.ErrorIs(t, retention.Task(context.Background()), boom)
	})
}

func TestNewApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testClientConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestApp_CloseWithoutStorage(t *testing.T) {
	assert.NoError(t, (&App{}).Close())
}
