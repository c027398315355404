package middleware

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/toyz/annoroute/pkg/router"
)

// Recovery turns a panic further down the chain into a 500 HTTPError
func Recovery(logger *zap.Logger) router.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *router.Context, next router.Next) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.String("method", c.Method),
					zap.String("path", c.Path),
					zap.String("requestID", c.RequestID),
					zap.ByteString("stack", debug.Stack()),
				)
				httpErr := router.NewHTTPError(500)
				httpErr.Internal = fmt.Errorf("panic: %v", r)
				err = httpErr
			}
		}()
		return next()
	}
}
