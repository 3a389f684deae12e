// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// server and the device agent.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds token, integrity and record policy settings.
	App App `envPrefix:"APP_"`

	// Storage holds the database settings. The server uses PostgreSQL, the
	// device agent uses a local SQLite file.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds listen addresses and timeouts of the sync server.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the device agent's view of the sync server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds the device agent's background sync settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// Log holds log output settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Env: CONFIG
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level settings.
type App struct {
	// TokenSignKey is the secret used to sign and verify actor JWTs.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim of issued tokens.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is how long an issued token stays valid.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// HashKey is the HMAC key of the HashSHA256 batch integrity header.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// Version is exposed via the /api/version/ endpoint.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// EditWindow is how long after capture a record may still be edited.
	// Zero disables the limit.
	// Env: APP_EDIT_WINDOW
	EditWindow time.Duration `env:"EDIT_WINDOW"`

	// MaxBatchSize is the largest batch the server accepts.
	// Env: APP_MAX_BATCH_SIZE
	MaxBatchSize int `env:"MAX_BATCH_SIZE"`
}

// Storage groups the storage backend settings.
type Storage struct {
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the relational database backend.
type DB struct {
	// DSN is a PostgreSQL URI on the server (empty selects the in-memory
	// record store) or a SQLite file path on the device.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// Env: SERVER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// RequestTimeout bounds the processing of a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds outbound settings of the device agent.
type Adapter struct {
	// HTTPAddress is the base address of the sync server.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single batch submission.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// ProbeTimeout bounds a single connectivity probe.
	// Env: ADAPTER_PROBE_TIMEOUT
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT"`

	// Token is the device JWT sent as a Bearer token.
	// Env: ADAPTER_TOKEN
	Token string `env:"TOKEN"`
}

// Workers holds the device agent's background sync settings.
type Workers struct {
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// Env: WORKERS_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// BackoffBase and BackoffMax bound the delay after a failed cycle.
	// Env: WORKERS_BACKOFF_BASE, WORKERS_BACKOFF_MAX
	BackoffBase time.Duration `env:"BACKOFF_BASE"`
	BackoffMax  time.Duration `env:"BACKOFF_MAX"`

	// WatchdogTimeout is how long a record may stay submitted before the
	// watchdog reverts it to pending.
	// Env: WORKERS_WATCHDOG_TIMEOUT
	WatchdogTimeout time.Duration `env:"WATCHDOG_TIMEOUT"`

	// MaxRetries parks a record after this many failed submissions.
	// Env: WORKERS_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// RetentionAge is how long synced records are kept on the device.
	// Env: WORKERS_RETENTION_AGE
	RetentionAge time.Duration `env:"RETENTION_AGE"`

	// Env: WORKERS_PURGE_INTERVAL
	PurgeInterval time.Duration `env:"PURGE_INTERVAL"`

	// QueueCapacity is the maximum number of unsynced records on the device.
	// Env: WORKERS_QUEUE_CAPACITY
	QueueCapacity int `env:"QUEUE_CAPACITY"`
}

// Log holds log output settings.
type Log struct {
	// FilePath is the device agent's log file. Empty logs to stdout.
	// Env: LOG_FILE_PATH
	FilePath string `env:"FILE_PATH"`
}

// GetStructuredConfig loads, merges, and validates the server configuration.
func GetStructuredConfig() (*StructuredConfig, error) {
	cfg, err := newConfigBuilder().
		withDotEnv(".env").
		withEnv().
		withFlags(os.Args[1:]).
		withJSON().
		withDefaults().
		build()
	if err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}
