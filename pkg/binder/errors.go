package binder

import (
	"errors"

	rterrors "github.com/toyz/annoroute/internal/errors"
)

var (
	// ErrBadMountValue is returned when @mount has no string path
	ErrBadMountValue = errors.New("@mount requires a string path")
	// ErrMountDefinedTwice is returned when a definition carries more than one @mount
	ErrMountDefinedTwice = errors.New("@mount defined more than once")
	// ErrMissingRouteMethods is returned when @route has no methods array
	ErrMissingRouteMethods = errors.New("@route requires a methods array of verbs")
	// ErrBadRouteOption is returned for a route option of the wrong type
	ErrBadRouteOption = errors.New("invalid route option")
	// ErrUnknownMiddleware is returned when @middleware names unregistered middleware
	ErrUnknownMiddleware = errors.New("unknown middleware")
	// ErrUnknownRequirement is returned for a requirement call the binder does not provide
	ErrUnknownRequirement = errors.New("unknown requirement")
	// ErrBadHandler is returned when a handler method is missing or has the wrong signature
	ErrBadHandler = errors.New("bad handler")
	// ErrBadFactory is returned by Register for a factory of the wrong shape
	ErrBadFactory = errors.New("controller factory must be func() T or func() (T, error)")
)

// BindError carries the controller, method and source location of a binding failure
type BindError = rterrors.BindError
