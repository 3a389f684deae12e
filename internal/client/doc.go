// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the device agent: a long running process that
// keeps the local queue in sync with the server, and the one-shot commands
// a collection officer uses to capture, edit and settle records.
package client
