// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/delivery-sync/internal/app"
	"github.com/MKhiriev/delivery-sync/internal/service"
	"github.com/MKhiriev/delivery-sync/internal/store"
	"github.com/MKhiriev/delivery-sync/internal/validators"
)

// errorResponse pairs a status code with the message written to the body.
type errorResponse struct {
	status  int
	message string
}

// errorResponses is checked in order; the first match wins.
var errorResponses = []struct {
	target error
	errorResponse
}{
	{validators.ErrBatchTooLarge, errorResponse{http.StatusRequestEntityTooLarge, app.MsgInvalidDataProvided}},
	{validators.ErrInvalid, errorResponse{http.StatusBadRequest, app.MsgInvalidDataProvided}},
	{service.ErrInvalidDataProvided, errorResponse{http.StatusBadRequest, app.MsgInvalidDataProvided}},
	{service.ErrTokenIsExpiredOrInvalid, errorResponse{http.StatusUnauthorized, app.MsgTokenIsExpiredOrInvalid}},
	{service.ErrVersionIsNotSpecified, errorResponse{http.StatusInternalServerError, app.MsgVersionIsNotSpecified}},
	{service.ErrRecordNotFound, errorResponse{http.StatusNotFound, app.MsgRecordNotFound}},
	{store.ErrNotFound, errorResponse{http.StatusNotFound, app.MsgRecordNotFound}},
	{store.ErrStaleVersion, errorResponse{http.StatusConflict, store.ErrStaleVersion.Error()}},
	{ErrMissingHash, errorResponse{http.StatusBadRequest, app.MsgHashMismatch}},
	{ErrHashMismatch, errorResponse{http.StatusBadRequest, app.MsgHashMismatch}},
}

func responseFromError(err error) errorResponse {
	for _, r := range errorResponses {
		if errors.Is(err, r.target) {
			return r.errorResponse
		}
	}
	return errorResponse{http.StatusInternalServerError, app.MsgInternalServerError}
}
