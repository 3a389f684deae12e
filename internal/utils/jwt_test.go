// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateJWTToken_Success(t *testing.T) {
	token, err := GenerateJWTToken("test-issuer", "officer-17", time.Hour, "secret-key")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if token.SignedString == "" {
		t.Error("expected non-empty SignedString")
	}

	claims, ok := token.Token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		t.Fatal("could not cast claims to RegisteredClaims")
	}
	if claims.Subject != "officer-17" {
		t.Errorf("expected subject 'officer-17', got %s", claims.Subject)
	}
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	cases := []struct {
		issuer, actor, key string
		dur                time.Duration
	}{
		{"", "a", "k", time.Hour},
		{"i", "", "k", time.Hour},
		{"i", "a", "", time.Hour},
		{"i", "a", "k", 0},
	}
	for _, c := range cases {
		if _, err := GenerateJWTToken(c.issuer, c.actor, c.dur, c.key); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}

func TestValidateAndParseJWTToken_RoundTrip(t *testing.T) {
	token, err := GenerateJWTToken("iss", "officer-17", time.Hour, "key")
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ValidateAndParseJWTToken(token.SignedString, "key", "iss")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if parsed.ActorID != "officer-17" {
		t.Errorf("expected actor officer-17, got %s", parsed.ActorID)
	}
}

func TestValidateAndParseJWTToken_Rejects(t *testing.T) {
	token, _ := GenerateJWTToken("iss", "a", time.Hour, "key")
	expired, _ := GenerateJWTToken("iss", "a", time.Nanosecond, "key")
	time.Sleep(time.Second)

	if _, err := ValidateAndParseJWTToken(token.SignedString, "other-key", "iss"); err == nil {
		t.Error("expected signature error")
	}
	if _, err := ValidateAndParseJWTToken(token.SignedString, "key", "other-iss"); err == nil {
		t.Error("expected issuer error")
	}
	_, err := ValidateAndParseJWTToken(expired.SignedString, "key", "iss")
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected expired error, got %v", err)
	}
}

func TestParseBearerToken(t *testing.T) {
	got, err := ParseBearerToken("Bearer abc.def")
	if err != nil || got != "abc.def" {
		t.Fatalf("got %q, %v", got, err)
	}

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer a b"} {
		if _, err := ParseBearerToken(h); !errors.Is(err, ErrInvalidAuthorizationHeader) {
			t.Errorf("header %q: expected ErrInvalidAuthorizationHeader, got %v", h, err)
		}
	}
}
