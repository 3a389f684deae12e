// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains message strings shared by the sync server handlers
// and the device adapter.
//
// The server writes a Msg* constant into the error body of a response. The
// device matches the body against the same constants to recover the business
// error, so the wording must stay in sync on both sides.
package app

const (
	// MsgInvalidDataProvided is returned when the request body cannot be
	// decoded or fails validation.
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInternalServerError is returned when an unexpected server-side
	// failure occurs that the client cannot resolve.
	MsgInternalServerError = "internal server error"

	MsgTokenIsExpiredOrInvalid = "token is expired or invalid"

	// MsgNoActorProvided is returned when an authenticated route runs without
	// an actor in the request context.
	MsgNoActorProvided = "no actor provided"

	// MsgHashMismatch is returned when the HashSHA256 header does not match
	// the submitted records.
	MsgHashMismatch = "hash mismatch"

	MsgRecordNotFound = "record not found"

	// MsgVersionIsNotSpecified is returned by the version endpoint when the
	// server was started without a build version.
	MsgVersionIsNotSpecified = "version is not specified"
)
