// Package errors defines the error kinds surfaced by the capacity engine and its adapters.
// Every kind is an httperror carrying the status code the API responds with.
package errors

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindInvalidInput        Kind = "invalid_input"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindMalformedOutput     Kind = "malformed_output"
	KindConflict            Kind = "conflict"
	KindInternal            Kind = "internal"
)

var kindsByStatus = map[int]Kind{
	http.StatusNotFound:            KindNotFound,
	http.StatusBadRequest:          KindInvalidInput,
	http.StatusServiceUnavailable:  KindUpstreamUnavailable,
	http.StatusUnprocessableEntity: KindMalformedOutput,
	http.StatusConflict:            KindConflict,
}

// NotFound is returned when a referenced person, project, assignment or transcript does not resolve.
func NotFound(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusNotFound, format, args...)
}

// InvalidInput is returned when a request fails validation.
func InvalidInput(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusBadRequest, format, args...)
}

// UpstreamUnavailable is returned when the language model service cannot be reached or refuses the call.
func UpstreamUnavailable(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusServiceUnavailable, format, args...)
}

// MalformedOutput is returned when the language model answers with something that is not a valid extraction.
func MalformedOutput(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, format, args...)
}

// Conflict is returned when an operation is already running elsewhere.
func Conflict(format string, args ...any) error {
	return httperror.NewHTTPErrorf(http.StatusConflict, format, args...)
}

// Internal hides a storage or driver failure behind a generic 500.
func Internal(message string) error {
	return httperror.NewHTTPError(http.StatusInternalServerError, message)
}

// KindOf classifies err. Errors that are not httperrors are internal.
func KindOf(err error) Kind {
	if err == nil || !httperror.IsHTTPError(err) {
		return KindInternal
	}
	if kind, ok := kindsByStatus[httperror.GetStatusCode(err)]; ok {
		return kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}
