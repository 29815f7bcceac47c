// Package apierr gives every handler one typed, testable mapping from an
// error kind to an HTTP status, while keeping the existing
// {"error":..., "details":...} JSON response shape untouched.
package apierr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Kind string

const (
	Validation         Kind = "validation_error"
	Unauthenticated    Kind = "unauthenticated"
	Forbidden          Kind = "forbidden"
	NotFound           Kind = "not_found"
	Conflict           Kind = "conflict"
	RateLimited        Kind = "rate_limited"
	UpstreamUnavailable Kind = "upstream_unavailable"
	Internal           Kind = "internal"
)

var statusByKind = map[Kind]int{
	Validation:          http.StatusBadRequest,
	Unauthenticated:     http.StatusUnauthorized,
	Forbidden:           http.StatusForbidden,
	NotFound:            http.StatusNotFound,
	Conflict:            http.StatusConflict,
	RateLimited:         http.StatusTooManyRequests,
	UpstreamUnavailable: http.StatusBadGateway,
	Internal:            http.StatusInternalServerError,
}

// Error is a classified API error; Message is shown to the caller, Cause is
// wrapped for logging and is never serialized.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Status returns the HTTP status for err, defaulting to 500 when err isn't
// an *Error.
func Status(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if status, ok := statusByKind[apiErr.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteJSON writes err to c in the teacher's standard
// {"error":..., "details":...} shape, choosing the status from its Kind.
func WriteJSON(c *gin.Context, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		body := gin.H{"error": apiErr.Message}
		if apiErr.Cause != nil {
			body["details"] = apiErr.Cause.Error()
		}
		c.JSON(statusByKind[apiErr.Kind], body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
}
