// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/conflict"
	"github.com/MKhiriev/delivery-sync/models"
	"github.com/google/uuid"
)

// Field name constants used to scope validation.
const (
	FieldClientID     = "client_id"
	FieldCapturedAt   = "captured_at"
	FieldUpdatedAt    = "updated_at"
	FieldEditWindow   = "edit_window"
	FieldPayload      = "payload"
	FieldFarmerCode   = "farmer_code"
	FieldStationID    = "station_id"
	FieldDeliveryDate = "delivery_date"
	FieldQuantity     = "quantity_liters"
	FieldFatContent   = "fat_content"
	FieldQualityGrade = "quality_grade"
	FieldSource       = "source"
	FieldRecords      = "records"
	FieldLength       = "length"
)

const (
	minQuantityLiters = 0.1
	maxQuantityLiters = 1000.0
	maxFatContent     = 20.0

	deliveryDateLayout = "2006-01-02"
)

// DeliveryValidator validates delivery payloads, device records and
// ingestion batches.
type DeliveryValidator struct {
	editWindow   conflict.EditWindow
	maxBatchSize int
}

// NewDeliveryValidator constructs a validator. A zero editWindow disables
// the edit window rule, a non-positive maxBatchSize disables the batch size
// limit.
func NewDeliveryValidator(editWindow time.Duration, maxBatchSize int) Validator {
	return &DeliveryValidator{
		editWindow:   conflict.EditWindow(editWindow),
		maxBatchSize: maxBatchSize,
	}
}

// Validate dispatches on the dynamic type of obj. Supported types are
// models.DeliveryPayload, models.BatchRecord, models.SyncableRecord,
// models.BatchRequest and models.ResolveRequest, by value or pointer.
func (v *DeliveryValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.DeliveryPayload:
		return v.validatePayload(value, fields...)
	case *models.DeliveryPayload:
		return v.validatePayload(*value, fields...)

	case models.BatchRecord:
		return v.validateRecord(value, fields...)
	case *models.BatchRecord:
		return v.validateRecord(*value, fields...)

	case models.SyncableRecord:
		return v.validateRecord(toBatchRecord(value), fields...)
	case *models.SyncableRecord:
		return v.validateRecord(toBatchRecord(*value), fields...)

	case models.BatchRequest:
		return v.validateBatch(value, fields...)
	case *models.BatchRequest:
		return v.validateBatch(*value, fields...)

	case models.ResolveRequest:
		return v.validateResolve(value, fields...)
	case *models.ResolveRequest:
		return v.validateResolve(*value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func toBatchRecord(r models.SyncableRecord) models.BatchRecord {
	return models.BatchRecord{
		ClientID:   r.ClientID,
		Payload:    r.Payload,
		CapturedAt: r.CapturedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (v *DeliveryValidator) validateRecord(r models.BatchRecord, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldClientID, FieldCapturedAt, FieldUpdatedAt, FieldEditWindow, FieldPayload}
	}

	for _, f := range fields {
		switch f {
		case FieldClientID:
			if _, err := uuid.Parse(r.ClientID); err != nil {
				return ErrInvalidClientID
			}
		case FieldCapturedAt:
			if r.CapturedAt.IsZero() {
				return ErrInvalidCapturedAt
			}
		case FieldUpdatedAt:
			if r.UpdatedAt.IsZero() || r.UpdatedAt.Before(r.CapturedAt) {
				return ErrInvalidUpdatedAt
			}
		case FieldEditWindow:
			if !v.editWindow.Allows(r.CapturedAt, r.UpdatedAt) {
				return ErrEditWindowExceeded
			}
		case FieldPayload:
			if err := v.validatePayload(r.Payload); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *DeliveryValidator) validatePayload(p models.DeliveryPayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldFarmerCode, FieldStationID, FieldDeliveryDate, FieldQuantity, FieldFatContent, FieldQualityGrade, FieldSource}
	}

	for _, f := range fields {
		switch f {
		case FieldFarmerCode:
			if p.FarmerCode == "" {
				return ErrEmptyFarmerCode
			}
		case FieldStationID:
			if p.StationID == "" {
				return ErrEmptyStationID
			}
		case FieldDeliveryDate:
			if _, err := time.Parse(deliveryDateLayout, p.DeliveryDate); err != nil {
				return ErrInvalidDeliveryDate
			}
		case FieldQuantity:
			if !isValidQuantity(p.QuantityLiters) {
				return ErrInvalidQuantity
			}
		case FieldFatContent:
			if p.FatContent != nil && (*p.FatContent < 0 || *p.FatContent > maxFatContent) {
				return ErrInvalidFatContent
			}
		case FieldQualityGrade:
			if !p.QualityGrade.Valid() {
				return ErrInvalidQualityGrade
			}
		case FieldSource:
			switch p.Source {
			case models.SourceMobile, models.SourceWeb, models.SourceBatch:
			default:
				return ErrInvalidSource
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateBatch checks the envelope only. Individual records are validated
// by the ingestion service so that one bad record does not reject the batch.
func (v *DeliveryValidator) validateBatch(b models.BatchRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldRecords, FieldLength}
	}

	for _, f := range fields {
		switch f {
		case FieldRecords:
			if len(b.Records) == 0 {
				return ErrEmptyBatch
			}
			if v.maxBatchSize > 0 && len(b.Records) > v.maxBatchSize {
				return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(b.Records), v.maxBatchSize)
			}
		case FieldLength:
			if b.Length != len(b.Records) {
				return ErrBatchLengthMismatch
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *DeliveryValidator) validateResolve(r models.ResolveRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldUpdatedAt, FieldPayload}
	}

	for _, f := range fields {
		switch f {
		case FieldUpdatedAt:
			if r.UpdatedAt.IsZero() {
				return ErrInvalidUpdatedAt
			}
		case FieldPayload:
			if err := v.validatePayload(r.Payload); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// isValidQuantity checks the range and that the value carries at most three
// decimal places.
func isValidQuantity(q float64) bool {
	if q < minQuantityLiters || q > maxQuantityLiters {
		return false
	}
	scaled := q * 1000
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}
