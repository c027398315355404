package router

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNextCalledMultipleTimes is returned when a handler invokes next more than once
	ErrNextCalledMultipleTimes = errors.New("next() called multiple times")
	// ErrRouteNotFound is returned by URLFor for an unknown route name
	ErrRouteNotFound = errors.New("no route found for name")
	// ErrMissingParam is returned when a URL cannot be built without a required parameter
	ErrMissingParam = errors.New("missing route parameter")
)

// StatusCoder is implemented by errors that map to an HTTP status
type StatusCoder interface {
	StatusCode() int
}

// HTTPError represents an HTTP error with status code and message
type HTTPError struct {
	Code     int   `json:"code"`
	Message  any   `json:"message"`
	Internal error `json:"-"` // underlying error, never written to the client
}

// Error makes HTTPError implement the error interface
func (he *HTTPError) Error() string {
	if he.Internal != nil {
		return he.Internal.Error()
	}
	return fmt.Sprint(he.Message)
}

// StatusCode returns the HTTP status of the error
func (he *HTTPError) StatusCode() int {
	return he.Code
}

// Unwrap returns the internal error
func (he *HTTPError) Unwrap() error {
	return he.Internal
}

// NewHTTPError creates a new HTTPError instance. The optional arguments are the
// message and an internal error.
func NewHTTPError(code int, message ...any) *HTTPError {
	he := &HTTPError{Code: code}
	if len(message) > 0 {
		he.Message = message[0]
	} else {
		he.Message = http.StatusText(code)
	}
	if len(message) > 1 {
		if err, ok := message[1].(error); ok {
			he.Internal = err
		}
	}
	return he
}

// ParamDecodeError is returned when a captured path segment is not valid percent-encoding
type ParamDecodeError struct {
	Param string
	Value string
	Err   error
}

func (e *ParamDecodeError) Error() string {
	return fmt.Sprintf("failed to decode param '%s'", e.Value)
}

func (e *ParamDecodeError) Unwrap() error {
	return e.Err
}

// StatusCode reports the failure as a client error
func (e *ParamDecodeError) StatusCode() int {
	return http.StatusBadRequest
}

// ParamValidationError is returned when a captured value fails its requirement
type ParamValidationError struct {
	Param string
	Value string
}

func (e *ParamValidationError) Error() string {
	return fmt.Sprintf("invalid value %q for param '%s'", e.Value, e.Param)
}

// StatusCode reports the failure as a client error
func (e *ParamValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// DuplicateRouteNameError is returned when two routes are registered under the same name
type DuplicateRouteNameError struct {
	Name     string
	Existing string // pattern of the route already holding the name
	Pattern  string // pattern of the rejected route
}

func (e *DuplicateRouteNameError) Error() string {
	return fmt.Sprintf("route name %q already used by %s, cannot register %s", e.Name, e.Existing, e.Pattern)
}

// StatusOf returns the HTTP status an error maps to, 500 when it carries none
func StatusOf(err error) int {
	var coder StatusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}
	return http.StatusInternalServerError
}
