// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	// ErrInvalid is wrapped by every rule violation below so callers can
	// tell validation failures from other errors with a single errors.Is.
	ErrInvalid = errors.New("validation failed")

	ErrInvalidClientID     = fmt.Errorf("%w: client_id must be a UUID", ErrInvalid)
	ErrInvalidCapturedAt   = fmt.Errorf("%w: captured_at is required", ErrInvalid)
	ErrInvalidUpdatedAt    = fmt.Errorf("%w: updated_at must not precede captured_at", ErrInvalid)
	ErrEditWindowExceeded  = fmt.Errorf("%w: record was modified after its edit window", ErrInvalid)
	ErrEmptyFarmerCode     = fmt.Errorf("%w: farmer_code is required", ErrInvalid)
	ErrEmptyStationID      = fmt.Errorf("%w: station_id is required", ErrInvalid)
	ErrInvalidDeliveryDate = fmt.Errorf("%w: delivery_date must be YYYY-MM-DD", ErrInvalid)
	ErrInvalidQuantity     = fmt.Errorf("%w: quantity_liters must be within 0.1..1000 with at most 3 decimals", ErrInvalid)
	ErrInvalidFatContent   = fmt.Errorf("%w: fat_content must be within 0..20", ErrInvalid)
	ErrInvalidQualityGrade = fmt.Errorf("%w: quality_grade must be one of A, B, C, Rejected", ErrInvalid)
	ErrInvalidSource       = fmt.Errorf("%w: source must be one of mobile, web, batch", ErrInvalid)
	ErrEmptyBatch          = fmt.Errorf("%w: batch cannot be empty", ErrInvalid)
	ErrBatchTooLarge       = fmt.Errorf("%w: batch exceeds maximum size", ErrInvalid)
	ErrBatchLengthMismatch = fmt.Errorf("%w: batch length does not match records", ErrInvalid)
)
