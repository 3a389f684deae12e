// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// QualityGrade is the milk quality grade assigned at the collection station.
type QualityGrade string

const (
	GradeA        QualityGrade = "A"
	GradeB        QualityGrade = "B"
	GradeC        QualityGrade = "C"
	GradeRejected QualityGrade = "Rejected"
)

// Valid reports whether g is one of the known grades.
func (g QualityGrade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeRejected:
		return true
	}
	return false
}

// Source identifies the channel a delivery record was captured through.
type Source string

const (
	SourceMobile Source = "mobile"
	SourceWeb    Source = "web"
	SourceBatch  Source = "batch"
)

// DeliveryPayload holds the domain fields of a single milk delivery.
//
// The sync engine treats the payload as opaque except for its canonical
// fingerprint, which is used for equality when resolving concurrent edits.
// Field order of the struct defines the canonical JSON encoding, so new
// fields must be appended at the end.
type DeliveryPayload struct {
	// FarmerCode identifies the farmer who delivered the milk.
	FarmerCode string `json:"farmer_code"`

	// StationID identifies the collection station.
	StationID string `json:"station_id"`

	// OfficerID identifies the collection officer who recorded the delivery.
	OfficerID string `json:"officer_id,omitempty"`

	// DeliveryDate is the calendar date of the delivery in YYYY-MM-DD format.
	DeliveryDate string `json:"delivery_date"`

	// QuantityLiters is the delivered volume, up to three decimal places.
	QuantityLiters float64 `json:"quantity_liters"`

	// FatContent is the measured fat percentage. Nil when not measured.
	FatContent *float64 `json:"fat_content,omitempty"`

	// QualityGrade is the grade assigned on reception.
	QualityGrade QualityGrade `json:"quality_grade"`

	// Remarks is an optional free-text note.
	Remarks string `json:"remarks,omitempty"`

	// Source is the capture channel. Field devices always send "mobile".
	Source Source `json:"source"`
}
