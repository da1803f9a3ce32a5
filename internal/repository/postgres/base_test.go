package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

func TestIsUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: pgUniqueViolation, Constraint: "appointments_ticket_number_key"}

	assert.True(t, isUniqueViolation(err, "appointments_ticket_number_key"))
	assert.True(t, isUniqueViolation(err, ""))
	assert.False(t, isUniqueViolation(err, "other_key"))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", err), "appointments_ticket_number_key"))
	assert.False(t, isUniqueViolation(errors.New("connection refused"), ""))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}, ""))
}

func TestClassifyTxErrorMapsConflictsToTransient(t *testing.T) {
	for _, code := range []pq.ErrorCode{pgSerializationFailure, pgDeadlockDetected} {
		err := classifyTxError(&pq.Error{Code: code})
		assert.True(t, apperrors.IsCode(err, apperrors.ErrTransient), "code %s", code)
	}

	wrapped := classifyTxError(fmt.Errorf("commit: %w", &pq.Error{Code: pgDeadlockDetected}))
	assert.True(t, apperrors.IsCode(wrapped, apperrors.ErrTransient))

	plain := errors.New("connection refused")
	assert.Equal(t, plain, classifyTxError(plain))

	unique := &pq.Error{Code: pgUniqueViolation}
	assert.Equal(t, error(unique), classifyTxError(unique))
}
