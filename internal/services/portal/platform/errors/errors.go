// Package errors defines typed portal errors and their HTTP mapping.
package errors

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
)

// Kind classifies failures for consistent HTTP mapping.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindUnavailable  Kind = "unavailable"
	KindNotFound     Kind = "not_found"
)

// Error is a typed portal failure.
type Error struct {
	Kind    Kind
	Key     string
	Message string
}

func (e Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// E builds a typed Error.
func E(kind Kind, message string) error {
	return Error{Kind: kind, Message: message}
}

// EK builds a typed Error carrying a localization key.
func EK(kind Kind, key string, message string) error {
	return Error{Kind: kind, Key: strings.TrimSpace(key), Message: message}
}

// LocalizationKey returns the localization key of a typed Error.
func LocalizationKey(err error) string {
	var appErr Error
	if !stderrors.As(err, &appErr) {
		return ""
	}
	return strings.TrimSpace(appErr.Key)
}

// IsUnauthorized reports whether err means the session is no longer valid.
func IsUnauthorized(err error) bool {
	if stderrors.Is(err, apiclient.ErrUnauthorized) {
		return true
	}
	var appErr Error
	return stderrors.As(err, &appErr) && appErr.Kind == KindUnauthorized
}

// HTTPStatus maps err to the status the portal responds with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr Error
	if stderrors.As(err, &appErr) {
		return kindStatus(appErr.Kind)
	}
	if stderrors.Is(err, apiclient.ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	var apiErr *apiclient.Error
	if stderrors.As(err, &apiErr) {
		return backendStatus(apiErr.Status)
	}
	var transportErr *apiclient.TransportError
	if stderrors.As(err, &transportErr) {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func kindStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// backendStatus keeps meaningful client errors from the backend and reports
// backend server failures as a bad gateway.
func backendStatus(status int) int {
	switch {
	case status == http.StatusBadRequest, status == http.StatusForbidden, status == http.StatusNotFound,
		status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return status
	case status >= 400 && status < 500:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
