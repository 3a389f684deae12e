// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils provides small helpers shared by the server and the device
// agent: context keys, HMAC hashing, JSON responses, the resty client
// wrapper, JWT handling, identifiers and clocks.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// ActorIDCtxKey is the key under which the authenticated actor identifier
// is stored in the request context.
var ActorIDCtxKey = contextKey("actorID")

// WithActorID returns a copy of ctx carrying actorID.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorIDCtxKey, actorID)
}

// GetActorIDFromContext retrieves the actor identifier from the context.
// ok is false when the value is missing, empty or has an unexpected type.
func GetActorIDFromContext(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(ActorIDCtxKey).(string)
	return actorID, ok && actorID != ""
}
