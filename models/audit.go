// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// AuditAction names an audited change of an authoritative record.
type AuditAction string

const (
	AuditCreate   AuditAction = "create"
	AuditUpdate   AuditAction = "update"
	AuditOverride AuditAction = "override"
)

// AuditEntry records who changed an authoritative record and how.
type AuditEntry struct {
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	Action     AuditAction `json:"action"`
	ActorID    string      `json:"actor_id"`

	// Changes maps a field name to its old and new values.
	Changes map[string][2]any `json:"changes,omitempty"`

	At time.Time `json:"at"`
}
