// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

// validate checks the merged server configuration.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.TokenSignKey == "" || cfg.App.HashKey == "" {
		return fmt.Errorf("%w: token sign key and hash key are required", ErrInvalidAppConfigs)
	}

	if cfg.App.EditWindow < 0 || cfg.App.MaxBatchSize <= 0 {
		return ErrInvalidAppConfigs
	}

	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 || cfg.Adapter.Token == "" {
		return ErrInvalidAdapterConfigs
	}

	w := cfg.Workers
	if w.SyncInterval <= 0 || w.BatchSize <= 0 || w.QueueCapacity <= 0 || w.MaxRetries <= 0 {
		return ErrInvalidWorkerConfigs
	}
	if w.BackoffBase <= 0 || w.BackoffMax < w.BackoffBase || w.WatchdogTimeout <= 0 {
		return fmt.Errorf("%w: backoff and watchdog durations", ErrInvalidWorkerConfigs)
	}
	// A request still in flight must never be mistaken for an abandoned one.
	if w.WatchdogTimeout <= cfg.Adapter.RequestTimeout {
		return fmt.Errorf("%w: watchdog timeout must exceed the request timeout", ErrInvalidWorkerConfigs)
	}

	if cfg.App.HashKey == "" || cfg.App.EditWindow < 0 {
		return ErrInvalidAppConfigs
	}

	return nil
}
