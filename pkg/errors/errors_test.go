package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{NotFound("appointment", nil), http.StatusNotFound},
		{EmptyQueue("queue is empty"), http.StatusNotFound},
		{Conflict("duplicate booking", nil), http.StatusConflict},
		{CapacityExceeded("center is full"), http.StatusConflict},
		{InvalidState("already checked in"), http.StatusConflict},
		{InvalidWindow("outside operating hours"), http.StatusBadRequest},
		{PastDate("slot is in the past"), http.StatusBadRequest},
		{BadRequest("invalid id", nil), http.StatusBadRequest},
		{Unauthorized(nil), http.StatusUnauthorized},
		{Permission("staff only"), http.StatusForbidden},
		{Transient(stderrors.New("broker down")), http.StatusServiceUnavailable},
		{Internal(stderrors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestCodeOfUnwrapsWrappedErrors(t *testing.T) {
	base := NotFound("service center", nil)
	wrapped := fmt.Errorf("loading center: %w", base)

	assert.Equal(t, ErrNotFound, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrNotFound))
	assert.False(t, IsCode(wrapped, ErrConflict))
}

func TestCodeOfUnclassifiedIsInternal(t *testing.T) {
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("sql: connection reset")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := stderrors.New("pq: unique violation")
	err := Conflict("ticket already exists", cause)

	assert.Equal(t, "ticket already exists: pq: unique violation", err.Error())
	assert.Equal(t, cause, stderrors.Unwrap(err))
}
