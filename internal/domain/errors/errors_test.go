package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsMapStatus(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		kind   error
	}{
		{Validation(nil), http.StatusBadRequest, ErrValidation},
		{Conflict("dup"), http.StatusBadRequest, ErrConflict},
		{Authentication("Invalid credentials"), http.StatusUnauthorized, ErrAuthentication},
		{Forbidden("no"), http.StatusForbidden, ErrForbidden},
		{CSRF(CSRFMismatch), http.StatusForbidden, ErrCSRF},
		{NotFound("Payment not found"), http.StatusNotFound, ErrNotFound},
		{InvalidState("not pending"), http.StatusBadRequest, ErrInvalidState},
		{RateLimited("slow down"), http.StatusTooManyRequests, ErrRateLimited},
		{Persistence(errors.New("db down")), http.StatusInternalServerError, ErrPersistence},
		{TokenInvalid("Invalid session"), http.StatusUnauthorized, ErrTokenInvalid},
		{TokenExpired(), http.StatusUnauthorized, ErrTokenExpired},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status)
		assert.ErrorIs(t, tc.err, tc.kind)
	}
}

func TestPersistenceHidesCause(t *testing.T) {
	err := Persistence(errors.New("connection refused"))
	assert.Equal(t, "internal server error", err.Error())
	assert.NotContains(t, err.Message, "connection refused")
}

func TestAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", CSRF(CSRFMissingCookie))
	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CSRFMissingCookie, appErr.Reason)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation([]FieldError{{Field: "amount", Message: "invalid"}, {Field: "currency", Message: "invalid"}})
	assert.Len(t, err.Fields, 2)
	assert.Equal(t, CodeValidation, err.Code)
}
