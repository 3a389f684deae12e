// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 256

// keyedMutex serializes work per key using a fixed set of striped mutexes.
// Distinct keys may share a stripe.
type keyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

// Lock locks the stripe of key and returns its unlock function.
func (m *keyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	mu := &m.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
