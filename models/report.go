// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// CycleResult is how a sync cycle ended.
type CycleResult string

const (
	// CycleOffline means the server was unreachable and nothing was touched.
	CycleOffline CycleResult = "offline"
	// CycleIdle means there was nothing to submit.
	CycleIdle CycleResult = "idle"
	// CycleCompleted means the server answered for the batch. Individual
	// records may still have failed.
	CycleCompleted CycleResult = "completed"
	// CycleTransportFailed means the batch got no usable answer and every
	// submitted record went back to pending.
	CycleTransportFailed CycleResult = "transport_failed"
	// CycleAborted means the cycle was cancelled or crashed and submitted
	// records were rolled back.
	CycleAborted CycleResult = "aborted"
	// CycleBusy means another process held the queue's cycle lock and this
	// cycle did not run.
	CycleBusy CycleResult = "busy"
)

// SyncReport describes one sync cycle.
type SyncReport struct {
	Reason    string      `json:"reason"`
	Result    CycleResult `json:"result"`
	Submitted int         `json:"submitted"`
	Synced    int         `json:"synced"`
	Conflicts int         `json:"conflicts"`
	Failed    int         `json:"failed"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Healthy reports whether the cycle reached the server and every submitted
// record got a final verdict. The scheduler resets its backoff after a
// healthy cycle.
func (r SyncReport) Healthy() bool {
	switch r.Result {
	case CycleIdle, CycleBusy:
		return true
	case CycleCompleted:
		return r.Failed == 0
	}
	return false
}

// SyncStatus is the device-side overview shown to the user.
type SyncStatus struct {
	Stats     QueueStats       `json:"stats"`
	Attention []SyncableRecord `json:"attention,omitempty"`
	Online    bool             `json:"online"`
	// LastReport is nil until a cycle has run in this process.
	LastReport *SyncReport `json:"last_report,omitempty"`
}
