// Package errs defines the error taxonomy shared by the registries, the
// judging pipeline and the HTTP surface. Every user-visible failure is an
// *Error carrying a stable reason string and numeric code.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Reason string

const (
	ReasonInvalidArgument Reason = "ERR_INVALID_ARGUMENT"
	ReasonNotFound        Reason = "ERR_NOT_FOUND"
	ReasonRateLimit       Reason = "ERR_RATE_LIMIT"
	ReasonExternal        Reason = "ERR_EXTERNAL"
	ReasonInternal        Reason = "ERR_INTERNAL"
)

var codes = map[Reason]int{
	ReasonInvalidArgument: 1,
	ReasonNotFound:        3,
	ReasonRateLimit:       4,
	ReasonExternal:        5,
	ReasonInternal:        6,
}

type Error struct {
	Reason  Reason `json:"reason"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func newError(r Reason, format string, args ...interface{}) *Error {
	return &Error{Reason: r, Code: codes[r], Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...interface{}) *Error {
	return newError(ReasonInvalidArgument, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(ReasonNotFound, format, args...)
}

func RateLimit(format string, args ...interface{}) *Error {
	return newError(ReasonRateLimit, format, args...)
}

func External(format string, args ...interface{}) *Error {
	return newError(ReasonExternal, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return newError(ReasonInternal, format, args...)
}

// HTTPStatus maps an error to the transport status code. Unknown errors are
// treated as internal.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Reason {
	case ReasonInvalidArgument, ReasonRateLimit:
		return http.StatusBadRequest
	case ReasonNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
