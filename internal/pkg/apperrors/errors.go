package apperrors

import "errors"

// Standard application errors
var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when the input provided by the caller is invalid.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrUnauthorized is returned when the backend rejects our credentials.
	ErrUnauthorized = errors.New("unauthorized access")

	// ErrExternalServiceFailure is returned when an interaction with an external service fails.
	ErrExternalServiceFailure = errors.New("external service interaction failed")

	// ErrMalformedResponse is returned when an external service answers with an undecodable body.
	ErrMalformedResponse = errors.New("malformed response from external service")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timed out")

	// ErrInternal is returned for unexpected internal system errors.
	ErrInternal = errors.New("internal system error")
)
