// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/delivery-sync/internal/adapter"
	"github.com/MKhiriev/delivery-sync/internal/app"
	"github.com/MKhiriev/delivery-sync/internal/utils"
)

// mapAdapterError translates the adapter's transport error into a service
// business error.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	msg := extractBody(err)

	switch {
	case errors.Is(err, adapter.ErrTransport):
		return fmt.Errorf("%w: %w", ErrOffline, err)

	case errors.Is(err, adapter.ErrBadRequest):
		if msg == app.MsgInvalidDataProvided {
			return fmt.Errorf("%w: rejected by server", ErrInvalidDataProvided)
		}

	case errors.Is(err, adapter.ErrUnauthorized), errors.Is(err, adapter.ErrForbidden):
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)

	case errors.Is(err, adapter.ErrNotFound):
		return ErrRecordNotFound
	}

	return err
}

// extractBody returns the server message of an error of the form
// "bad request: <body>". JSON error bodies are unwrapped.
func extractBody(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx != -1 {
		msg = msg[idx+2:]
	}

	var body utils.ErrorBody
	if json.Unmarshal([]byte(msg), &body) == nil && body.Error != "" {
		return body.Error
	}
	return msg
}
