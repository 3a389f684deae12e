// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package http implements the REST transport of the sync server.
//
// Devices submit batches, fetch authoritative records and override conflicts
// through it. Tracing, access logging, compression, bearer authentication
// and the batch integrity check are handled here before requests reach the
// service layer.
package http
