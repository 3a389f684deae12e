// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/delivery-sync/internal/adapter"
	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/store"
	"github.com/MKhiriev/delivery-sync/internal/validators"
)

// ClientServices bundles the device-side services.
type ClientServices struct {
	SyncService  ClientSyncService
	SyncJob      ClientSyncJob
	Connectivity Connectivity
}

func NewClientServices(storages *store.ClientStorages, serverAdapter adapter.ServerAdapter, cfg config.ClientConfig, logger *logger.Logger) *ClientServices {
	connectivity := NewConnectivity(serverAdapter, logger)

	// Batches are built from already validated records, so only the payload
	// rules matter on the device.
	validator := validators.NewDeliveryValidator(cfg.App.EditWindow, cfg.Workers.BatchSize)

	syncSvc := NewClientSyncService(storages.Queue, serverAdapter, connectivity, validator, SyncOptions{
		BatchSize:       cfg.Workers.BatchSize,
		WatchdogTimeout: cfg.Workers.WatchdogTimeout,
		RetentionAge:    cfg.Workers.RetentionAge,
		Lock:            storages.CycleLock,
	}, logger)

	job := NewClientSyncJob(syncSvc, connectivity, JobOptions{
		Interval:    cfg.Workers.SyncInterval,
		BackoffBase: cfg.Workers.BackoffBase,
		BackoffMax:  cfg.Workers.BackoffMax,
		BatchSize:   cfg.Workers.BatchSize,
	}, logger)

	return &ClientServices{
		SyncService:  syncSvc,
		SyncJob:      job,
		Connectivity: connectivity,
	}
}
