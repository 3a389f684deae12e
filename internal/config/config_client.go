// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// ClientApp holds device-side application settings.
type ClientApp struct {
	// HashKey is the HMAC key used for batch integrity headers.
	HashKey string
	// EditWindow limits local edits of captured records.
	EditWindow time.Duration
}

// ClientAdapter holds network settings used by the device transport layer.
type ClientAdapter struct {
	HTTPAddress    string
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
	Token          string
}

// ClientDB contains the local SQLite settings.
type ClientDB struct {
	DSN string
}

// ClientStorage groups device storage settings.
type ClientStorage struct {
	DB ClientDB
}

// ClientWorkers contains device background sync settings.
type ClientWorkers struct {
	SyncInterval    time.Duration
	BatchSize       int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	WatchdogTimeout time.Duration
	MaxRetries      int
	RetentionAge    time.Duration
	PurgeInterval   time.Duration
	QueueCapacity   int
}

// ClientConfig is the device agent configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Workers ClientWorkers
	Log     Log
}

// GetClientConfig builds and validates the device configuration. overrides
// carries values from command-line flags and takes precedence over the JSON
// file and defaults but not over the environment.
func GetClientConfig(overrides *StructuredConfig) (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withDotEnv(".env").
		withEnv().
		withConfig(overrides).
		withJSON().
		withDefaults().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps the fields relevant to the device agent.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	return &ClientConfig{
		App: ClientApp{
			HashKey:    cfg.App.HashKey,
			EditWindow: cfg.App.EditWindow,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			ProbeTimeout:   cfg.Adapter.ProbeTimeout,
			Token:          cfg.Adapter.Token,
		},
		Storage: ClientStorage{
			DB: ClientDB{DSN: cfg.Storage.DB.DSN},
		},
		Workers: ClientWorkers{
			SyncInterval:    cfg.Workers.SyncInterval,
			BatchSize:       cfg.Workers.BatchSize,
			BackoffBase:     cfg.Workers.BackoffBase,
			BackoffMax:      cfg.Workers.BackoffMax,
			WatchdogTimeout: cfg.Workers.WatchdogTimeout,
			MaxRetries:      cfg.Workers.MaxRetries,
			RetentionAge:    cfg.Workers.RetentionAge,
			PurgeInterval:   cfg.Workers.PurgeInterval,
			QueueCapacity:   cfg.Workers.QueueCapacity,
		},
		Log: cfg.Log,
	}
}
