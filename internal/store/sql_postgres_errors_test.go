// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func TestPostgresErrorClassifier(t *testing.T) {
	c := NewPostgresErrorClassifier()

	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{"nil", nil, NonRetryable},
		{"connection failure", pgError(pgerrcode.ConnectionFailure), Retryable},
		{"serialization failure", pgError(pgerrcode.SerializationFailure), Retryable},
		{"deadlock", pgError(pgerrcode.DeadlockDetected), Retryable},
		{"too many connections", pgError(pgerrcode.TooManyConnections), Retryable},
		{"admin shutdown", pgError(pgerrcode.AdminShutdown), Retryable},
		{"unique violation", pgError(pgerrcode.UniqueViolation), NonRetryable},
		{"wrapped serialization failure", fmt.Errorf("%w: %w", ErrExecutingQuery, pgError(pgerrcode.SerializationFailure)), Retryable},
		{"bad conn", driver.ErrBadConn, Retryable},
		{"deadline", context.DeadlineExceeded, Retryable},
		{"plain", errors.New("boom"), NonRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(pgError(pgerrcode.UniqueViolation)))
	assert.False(t, IsUniqueViolation(pgError(pgerrcode.ForeignKeyViolation)))
	assert.False(t, IsUniqueViolation(errors.New("x")))
}

func TestSQLiteErrorClassifier(t *testing.T) {
	c := NewSQLiteErrorClassifier()

	assert.Equal(t, Retryable, c.Classify(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.Equal(t, Retryable, c.Classify(fmt.Errorf("wrap: %w", sqlite3.Error{Code: sqlite3.ErrLocked})))
	assert.Equal(t, NonRetryable, c.Classify(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.Equal(t, NonRetryable, c.Classify(nil))
}

func TestDB_IsRetryable(t *testing.T) {
	db := &DB{errorClassificator: NewPostgresErrorClassifier()}
	assert.True(t, db.IsRetryable(pgError(pgerrcode.DeadlockDetected)))
	assert.False(t, db.IsRetryable(pgError(pgerrcode.CheckViolation)))

	assert.False(t, (&DB{}).IsRetryable(driver.ErrBadConn))
}
