package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrPasswordMismatch is returned when password and password_second differ.
	ErrPasswordMismatch = errors.New("Passwords do not match")
	// ErrUserAlreadyExists is returned when the email is already registered.
	ErrUserAlreadyExists = errors.New("User already exists")
	// ErrInvalidFilter is returned when a search parameter cannot be parsed.
	ErrInvalidFilter = errors.New("Error")
	// ErrInvalidBulkInput is returned when the bulk payload is not a list.
	ErrInvalidBulkInput = errors.New("Invalid input, no users inputed")
	// ErrUserNotFound is returned when no active user matches the id.
	ErrUserNotFound = errors.New("User not found")
)

// Result is the structured outcome of every user operation.
// Message holds a string, a record, a list of records or a bulk summary.
type Result struct {
	Code    int         `json:"code"`
	Message interface{} `json:"message"`
}

// OK wraps a successful payload.
func OK(message interface{}) *Result {
	return &Result{Code: http.StatusOK, Message: message}
}

// ResultFromError converts a domain error into a failed Result.
// It returns nil for errors that are not part of the taxonomy.
//
// Rejected input maps to 400. ErrUserNotFound is the one exception: update and
// delete confirm the record before writing and report a missing or already
// deleted user as 404, the only code outside the 200/400 set.
func ResultFromError(err error) *Result {
	switch {
	case errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrInvalidFilter),
		errors.Is(err, ErrInvalidBulkInput):
		return &Result{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, ErrUserNotFound):
		return &Result{Code: http.StatusNotFound, Message: err.Error()}
	default:
		return nil
	}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps errors that escaped the service to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrInvalidFilter),
		errors.Is(err, ErrInvalidBulkInput):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
