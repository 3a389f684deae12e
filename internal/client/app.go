// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/delivery-sync/internal/adapter"
	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/service"
	"github.com/MKhiriev/delivery-sync/internal/store"
	"github.com/MKhiriev/delivery-sync/internal/workers"
)

type App struct {
	cfg      *config.ClientConfig
	services *service.ClientServices
	storages *store.ClientStorages

	logger *logger.Logger
}

// NewApp opens the local queue and wires the device services against the
// configured server.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, cfg.App, log.WithComponent("adapter"))
	if err != nil {
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	storages, err := store.NewClientStorages(ctx, cfg.Storage, store.QueueOptions{
		Capacity:   cfg.Workers.QueueCapacity,
		MaxRetries: cfg.Workers.MaxRetries,
		EditWindow: cfg.App.EditWindow,
	}, log.WithComponent("queue"))
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	return &App{
		cfg:      cfg,
		services: service.NewClientServices(storages, serverAdapter, *cfg, log.WithComponent("sync")),
		storages: storages,
		logger:   log,
	}, nil
}

// Run implements Client. It runs the sync job next to the watchdog that
// returns abandoned submissions to the queue and the retention sweep.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info().Str("server", a.cfg.Adapter.HTTPAddress).Msg("device agent started")

	err := workers.NewWorkers(a.logger, a.backgroundWorkers()...).Run(ctx)

	a.logger.Info().Msg("device agent stopped")
	return err
}

func (a *App) backgroundWorkers() []workers.Worker {
	syncSvc := a.services.SyncService

	return []workers.Worker{
		a.services.SyncJob,
		&workers.Periodic{
			Name:       "watchdog",
			Interval:   a.cfg.Workers.WatchdogTimeout / 2,
			RunOnStart: true,
			Logger:     a.logger,
			Task: func(ctx context.Context) error {
				n, err := syncSvc.RevertStale(ctx)
				if n > 0 {
					a.logger.Warn().Int64("records", n).Msg("abandoned submissions returned to the queue")
					a.services.SyncJob.TriggerNow(service.ReasonWatchdog)
				}
				return err
			},
		},
		&workers.Periodic{
			Name:       "retention",
			Interval:   a.cfg.Workers.PurgeInterval,
			RunOnStart: true,
			Logger:     a.logger,
			Task: func(ctx context.Context) error {
				n, err := syncSvc.Purge(ctx)
				if n > 0 {
					a.logger.Info().Int64("records", n).Msg("synced records purged")
				}
				return err
			},
		},
	}
}

// Close implements Client.
func (a *App) Close() error {
	if a.storages == nil {
		return nil
	}
	return a.storages.Close()
}
