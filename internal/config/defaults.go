// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "time"

// Defaults returns the built-in configuration. It is merged last, so it only
// fills fields no other source has set.
func Defaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenIssuer:   "delivery-sync",
			TokenDuration: 30 * 24 * time.Hour,
			Version:       "dev",
			MaxBatchSize:  500,
		},
		Server: Server{
			HTTPAddress:    "localhost:8080",
			GRPCAddress:    "localhost:9090",
			RequestTimeout: 30 * time.Second,
		},
		Adapter: Adapter{
			RequestTimeout: 30 * time.Second,
			ProbeTimeout:   5 * time.Second,
		},
		Workers: Workers{
			SyncInterval:    5 * time.Minute,
			BatchSize:       100,
			BackoffBase:     30 * time.Second,
			BackoffMax:      time.Hour,
			WatchdogTimeout: 10 * time.Minute,
			MaxRetries:      10,
			RetentionAge:    30 * 24 * time.Hour,
			PurgeInterval:   6 * time.Hour,
			QueueCapacity:   10000,
		},
	}
}
