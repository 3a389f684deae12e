// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/models"
)

// logNotifier reports authoritative changes to the log. Downstream
// consumers (payment runs, dashboards) tail these entries.
type logNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(logger *logger.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) RecordAccepted(ctx context.Context, rec models.AuthoritativeRecord) {
	n.logger.Info().
		Str("event", "record_accepted").
		Str("client_id", rec.ClientID).
		Str("server_id", rec.ServerID).
		Str("farmer_code", rec.Payload.FarmerCode).
		Str("actor_id", rec.ActorID).
		Time("updated_at", rec.UpdatedAt).
		Send()
}

func (n *logNotifier) RecordOverridden(ctx context.Context, rec models.AuthoritativeRecord) {
	n.logger.Warn().
		Str("event", "record_overridden").
		Str("client_id", rec.ClientID).
		Str("server_id", rec.ServerID).
		Str("actor_id", rec.ActorID).
		Time("updated_at", rec.UpdatedAt).
		Send()
}
