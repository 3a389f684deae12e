// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"fmt"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/store"
	"github.com/MKhiriev/delivery-sync/internal/validators"
)

// Services bundles the server-side services.
type Services struct {
	IngestionService IngestionService
	AuthService      AuthService
	AppInfoService   AppInfoService
}

func NewServices(storages *store.Storages, cfg config.StructuredConfig, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating app info service: %w", err)
	}

	validator := validators.NewDeliveryValidator(cfg.App.EditWindow, cfg.App.MaxBatchSize)

	return &Services{
		IngestionService: NewIngestionService(storages, validator, NewLogNotifier(logger), logger),
		AuthService:      NewAuthService(cfg.App, logger),
		AppInfoService:   appInfo,
	}, nil
}
