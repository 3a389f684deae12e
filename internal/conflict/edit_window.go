// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package conflict

import (
	"errors"
	"time"
)

// ErrEditWindowClosed is returned when a record is modified after its edit
// window has elapsed.
var ErrEditWindowClosed = errors.New("edit window for the record has closed")

// EditWindow limits how long after capture a record may still be modified.
// A zero window allows edits at any time.
type EditWindow time.Duration

// Allows reports whether a record captured at capturedAt may be modified at
// the moment at.
func (w EditWindow) Allows(capturedAt, at time.Time) bool {
	if w <= 0 {
		return true
	}

	return !at.After(capturedAt.Add(time.Duration(w)))
}

// Check returns ErrEditWindowClosed when the modification is not allowed.
func (w EditWindow) Check(capturedAt, at time.Time) error {
	if !w.Allows(capturedAt, at) {
		return ErrEditWindowClosed
	}
	return nil
}
