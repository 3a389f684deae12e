// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// OutcomeStatus is the per-record result of batch ingestion.
type OutcomeStatus string

const (
	OutcomeCreated   OutcomeStatus = "created"
	OutcomeDuplicate OutcomeStatus = "duplicate"
	OutcomeUpdated   OutcomeStatus = "updated"
	OutcomeConflict  OutcomeStatus = "conflict"
	OutcomeError     OutcomeStatus = "error"

	// OutcomeTransportError never crosses the wire. The device assigns it
	// to records whose batch failed in transit or that were missing from
	// the response.
	OutcomeTransportError OutcomeStatus = "transport_error"
)

// Outcome is the result reported for one submitted record.
type Outcome struct {
	ClientID string        `json:"client_id"`
	Status   OutcomeStatus `json:"status"`

	// ServerID is set for created, duplicate and updated outcomes.
	ServerID *string `json:"server_id,omitempty"`

	// AuthoritativePayload and AuthoritativeUpdatedAt are set for conflicts.
	AuthoritativePayload   *DeliveryPayload `json:"authoritative_payload,omitempty"`
	AuthoritativeUpdatedAt *time.Time       `json:"authoritative_updated_at,omitempty"`

	// Reason and Retryable are set for errors. Retryable is always encoded
	// for error outcomes and omitted for the others.
	Reason    string `json:"reason,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// MarshalJSON encodes retryable=false explicitly on error outcomes.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type outcome Outcome
	if o.Status != OutcomeError && o.Status != OutcomeTransportError {
		return json.Marshal(outcome(o))
	}

	return json.Marshal(struct {
		outcome
		Retryable bool `json:"retryable"`
	}{outcome: outcome(o), Retryable: o.Retryable})
}

// Accepted reports whether the outcome means the authoritative store now
// holds the submitted version (or an identical one).
func (o Outcome) Accepted() bool {
	switch o.Status {
	case OutcomeCreated, OutcomeDuplicate, OutcomeUpdated:
		return true
	}
	return false
}

// TransportFailure builds the outcome assigned to a record whose submission
// did not produce a server verdict.
func TransportFailure(clientID, reason string) Outcome {
	return Outcome{
		ClientID:  clientID,
		Status:    OutcomeTransportError,
		Reason:    reason,
		Retryable: true,
	}
}
