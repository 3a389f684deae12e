// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyActor is returned when a token carries no subject.
var ErrEmptyActor = errors.New("token subject is empty")

// Token wraps a JWT token issued to a field device or an operator.
//
// The "sub" claim holds the actor identifier (collection officer code or
// operator login). ActorID caches the parsed subject.
type Token struct {
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`

	// ActorID is the actor extracted from the "sub" claim.
	ActorID string `json:"-"`
}

// GetActorID returns the actor identifier from the "sub" claim.
func (t *Token) GetActorID() (string, error) {
	subject, err := t.GetSubject()
	if err != nil {
		return "", fmt.Errorf("error extracting actor from token: %w", err)
	}
	if subject == "" {
		return "", ErrEmptyActor
	}

	return subject, nil
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}
