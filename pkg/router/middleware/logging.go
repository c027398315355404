package middleware

import (
	"time"

	"go.uber.org/zap"

	"github.com/toyz/annoroute/pkg/router"
)

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	Logger    *zap.Logger
	SkipPaths []string
}

// Logger returns a middleware that logs each request once it completes
func Logger(logger *zap.Logger) router.HandlerFunc {
	return LoggerWithConfig(LoggingConfig{Logger: logger})
}

// LoggerWithConfig returns a logging middleware with custom configuration
func LoggerWithConfig(config LoggingConfig) router.HandlerFunc {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	skip := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = true
	}

	return func(c *router.Context, next router.Next) error {
		if skip[c.Path] {
			return next()
		}

		start := time.Now()
		err := next()

		status := c.ResponseStatus()
		if err != nil {
			status = router.StatusOf(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Method),
			zap.String("path", c.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if c.RequestID != "" {
			fields = append(fields, zap.String("requestID", c.RequestID))
		}
		if c.Route != nil {
			fields = append(fields, zap.String("route", routeLabel(c)))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= 500:
			config.Logger.Error("request completed", fields...)
		case status >= 400:
			config.Logger.Warn("request completed", fields...)
		default:
			config.Logger.Info("request completed", fields...)
		}
		return err
	}
}

// routeLabel names the matched route by its name, falling back to its pattern
func routeLabel(c *router.Context) string {
	if c.Route == nil {
		return "unmatched"
	}
	if name := c.Route.Name(); name != "" {
		return name
	}
	return c.Route.Pattern()
}
