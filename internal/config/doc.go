// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config provides configuration loading, merging, and validation
// for the sync server and the device agent.
//
// Configuration is assembled from multiple sources. Earlier sources take
// precedence, later ones only fill fields that are still zero:
//  1. Environment variables (optionally preloaded from a .env file)
//  2. Command-line flags (server only, the device agent uses cobra flags)
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry points are [GetStructuredConfig] for the server and
// [GetClientConfig] for the device agent.
package config
