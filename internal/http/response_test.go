package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{err: inErrors.ErrEmptyAuth, expected: http.StatusUnauthorized},
		{err: inErrors.ErrTokenInvalid, expected: http.StatusUnauthorized},
		{err: inErrors.ErrForbidden, expected: http.StatusForbidden},
		{err: inErrors.ErrNotFound, expected: http.StatusNotFound},
		{err: inErrors.ErrValidation, expected: http.StatusBadRequest},
		{err: inErrors.ErrEmptyCart, expected: http.StatusBadRequest},
		{err: inErrors.ErrIntentRejected, expected: http.StatusBadRequest},
		{err: inErrors.ErrSignature, expected: http.StatusBadRequest},
		{err: inErrors.ErrExternalService, expected: http.StatusBadGateway},
		{err: fmt.Errorf("database exploded"), expected: http.StatusInternalServerError},
		{
			err:      fmt.Errorf("%w: order id=abc", inErrors.ErrNotFound),
			expected: http.StatusNotFound,
		},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, StatusCode(test.err), "error: %v", test.err)
	}
}
