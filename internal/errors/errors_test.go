package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "password mismatch", err: ErrPasswordMismatch, wantCode: http.StatusBadRequest, wantMsg: "Passwords do not match"},
		{name: "conflict", err: ErrUserAlreadyExists, wantCode: http.StatusBadRequest, wantMsg: "User already exists"},
		{name: "filter", err: ErrInvalidFilter, wantCode: http.StatusBadRequest, wantMsg: "Error"},
		{name: "bulk", err: ErrInvalidBulkInput, wantCode: http.StatusBadRequest, wantMsg: "Invalid input, no users inputed"},
		{name: "wrapped not found", err: fmt.Errorf("delete: %w", ErrUserNotFound), wantCode: http.StatusNotFound, wantMsg: "delete: User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ResultFromError(tt.err)
			if assert.NotNil(t, res) {
				assert.Equal(t, tt.wantCode, res.Code)
				assert.Equal(t, tt.wantMsg, res.Message)
			}
		})
	}

	assert.Nil(t, ResultFromError(errors.New("db down")))
}

func TestMapErrorToHTTP(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, MapErrorToHTTP(ErrUserNotFound).StatusCode)
	assert.Equal(t, "USER_ALREADY_EXISTS", MapErrorToHTTP(ErrUserAlreadyExists).Code)
	assert.Equal(t, http.StatusBadRequest, MapErrorToHTTP(ErrInvalidFilter).StatusCode)

	internal := MapErrorToHTTP(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, internal.StatusCode)
	assert.Equal(t, ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}, internal.ToErrorResponse())
}
