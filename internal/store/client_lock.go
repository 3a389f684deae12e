// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"strings"

	"github.com/gofrs/flock"
)

const cycleLockSuffix = ".sync.lock"

// fileCycleLock is an advisory file lock next to the queue database. Every
// process that opens the same queue file contends for the same lock file.
type fileCycleLock struct {
	lock *flock.Flock
}

// NewCycleLock returns the cycle lock of the SQLite queue at dsn.
func NewCycleLock(dsn string) CycleLock {
	return &fileCycleLock{lock: flock.New(cycleLockPath(dsn))}
}

func (l *fileCycleLock) TryLock() (bool, error) {
	return l.lock.TryLock()
}

func (l *fileCycleLock) Unlock() error {
	return l.lock.Unlock()
}

// cycleLockPath strips the sqlite "file:" scheme and query parameters from
// dsn before appending the lock suffix.
func cycleLockPath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path + cycleLockSuffix
}
