// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators provides input validation for delivery records at the
// transport and ingestion boundaries.
//
// Validator implementations dispatch on the dynamic type of the value and
// accept an optional list of field names to restrict which rules run.
package validators

import "context"

// Validator validates the provided input and optionally restricts
// validation to specific named fields.
type Validator interface {
	Validate(context.Context, any, ...string) error
}
