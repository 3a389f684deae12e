// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON-friendly
// durations.
type StructuredJSONConfig struct {
	App struct {
		TokenSignKey  string   `json:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer"`
		TokenDuration Duration `json:"token_duration"`
		HashKey       string   `json:"hash_key"`
		Version       string   `json:"version"`
		EditWindow    Duration `json:"edit_window"`
		MaxBatchSize  int      `json:"max_batch_size"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		GRPCAddress    string   `json:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
		ProbeTimeout   Duration `json:"probe_timeout"`
		Token          string   `json:"token"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SyncInterval    Duration `json:"sync_interval"`
		BatchSize       int      `json:"batch_size"`
		BackoffBase     Duration `json:"backoff_base"`
		BackoffMax      Duration `json:"backoff_max"`
		WatchdogTimeout Duration `json:"watchdog_timeout"`
		MaxRetries      int      `json:"max_retries"`
		RetentionAge    Duration `json:"retention_age"`
		PurgeInterval   Duration `json:"purge_interval"`
		QueueCapacity   int      `json:"queue_capacity"`
	} `json:"workers,omitempty"`

	Log struct {
		FilePath string `json:"file_path"`
	} `json:"log,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var j StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&j); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:  j.App.TokenSignKey,
			TokenIssuer:   j.App.TokenIssuer,
			TokenDuration: time.Duration(j.App.TokenDuration),
			HashKey:       j.App.HashKey,
			Version:       j.App.Version,
			EditWindow:    time.Duration(j.App.EditWindow),
			MaxBatchSize:  j.App.MaxBatchSize,
		},
		Storage: Storage{
			DB: DB{DSN: j.Storage.DB.DSN},
		},
		Server: Server{
			HTTPAddress:    j.Server.HTTPAddress,
			GRPCAddress:    j.Server.GRPCAddress,
			RequestTimeout: time.Duration(j.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    j.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(j.Adapter.RequestTimeout),
			ProbeTimeout:   time.Duration(j.Adapter.ProbeTimeout),
			Token:          j.Adapter.Token,
		},
		Workers: Workers{
			SyncInterval:    time.Duration(j.Workers.SyncInterval),
			BatchSize:       j.Workers.BatchSize,
			BackoffBase:     time.Duration(j.Workers.BackoffBase),
			BackoffMax:      time.Duration(j.Workers.BackoffMax),
			WatchdogTimeout: time.Duration(j.Workers.WatchdogTimeout),
			MaxRetries:      j.Workers.MaxRetries,
			RetentionAge:    time.Duration(j.Workers.RetentionAge),
			PurgeInterval:   time.Duration(j.Workers.PurgeInterval),
			QueueCapacity:   j.Workers.QueueCapacity,
		},
		Log: Log{FilePath: j.Log.FilePath},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s" as well as from nanosecond numbers.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
