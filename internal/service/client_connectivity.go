// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/delivery-sync/internal/adapter"
	"github.com/MKhiriev/delivery-sync/internal/logger"
)

// probeConnectivity treats the server as reachable when its ping endpoint
// answers. Nothing is cached; every call probes.
type probeConnectivity struct {
	adapter adapter.ServerAdapter
	logger  *logger.Logger
}

func NewConnectivity(serverAdapter adapter.ServerAdapter, logger *logger.Logger) Connectivity {
	return &probeConnectivity{adapter: serverAdapter, logger: logger}
}

func (c *probeConnectivity) Online(ctx context.Context) bool {
	if err := c.adapter.Ping(ctx); err != nil {
		c.logger.Debug().Err(err).Str("func", "probeConnectivity.Online").Msg("server unreachable")
		return false
	}

	return true
}
