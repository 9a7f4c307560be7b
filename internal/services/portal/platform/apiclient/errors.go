package apiclient

import (
	"errors"
	"fmt"
)

// FallbackErrorMessage is reported when a failed response carries no usable
// "error" field.
const FallbackErrorMessage = "API call failed"

// ErrUnauthorized matches every error produced by a 401 backend response.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx, non-401 backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return FallbackErrorMessage
	}
	return e.Message
}

// UnauthorizedError is a 401 backend response. Its Message is the backend's
// own explanation, such as "Invalid credentials" on a rejected login.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e == nil || e.Message == "" {
		return FallbackErrorMessage
	}
	return e.Message
}

// Is reports ErrUnauthorized as a match.
func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// TransportError wraps failures that happened before a response status was
// available: dial errors, timeouts, and malformed response bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message returns the user-facing text carried by err: the backend message for
// API failures, or FallbackErrorMessage otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var unauthorized *UnauthorizedError
	if errors.As(err, &unauthorized) && unauthorized.Message != "" {
		return unauthorized.Message
	}
	return FallbackErrorMessage
}
