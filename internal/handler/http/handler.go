// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"time"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/service"
	"github.com/MKhiriev/delivery-sync/internal/utils"
	"github.com/MKhiriev/delivery-sync/internal/validators"
)

// maxBodyBytes bounds a request body after decompression.
const maxBodyBytes = 16 << 20

type Handler struct {
	services  *service.Services
	hasher    *utils.Hasher
	validator validators.Validator

	requestTimeout time.Duration

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.StructuredConfig, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		hasher:         utils.NewHasher(cfg.App.HashKey),
		validator:      validators.NewDeliveryValidator(cfg.App.EditWindow, cfg.App.MaxBatchSize),
		requestTimeout: cfg.Server.RequestTimeout,
		logger:         logger,
	}
}
