package middleware

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/toyz/annoroute/pkg/router"
)

// TracerName is the default instrumentation name
const TracerName = "github.com/toyz/annoroute"

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	TracerName     string
}

// Tracing returns a middleware that wraps each request in a server span
func Tracing() router.HandlerFunc {
	return TracingWithConfig(TracingConfig{})
}

// TracingWithConfig returns a tracing middleware with custom configuration
func TracingWithConfig(config TracingConfig) router.HandlerFunc {
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	if config.Propagators == nil {
		config.Propagators = otel.GetTextMapPropagator()
	}
	if config.TracerName == "" {
		config.TracerName = TracerName
	}

	tracer := config.TracerProvider.Tracer(config.TracerName)

	return func(c *router.Context, next router.Next) error {
		ctx := c.Context()
		if c.Request != nil {
			ctx = config.Propagators.Extract(ctx, propagation.HeaderCarrier(c.Request.Header))
		}

		ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", c.Method, c.Path),
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", c.Method),
			attribute.String("http.target", c.Path),
		)
		if c.RequestID != "" {
			span.SetAttributes(attribute.String("request.id", c.RequestID))
		}

		c.SetContext(ctx)
		err := next()

		status := c.ResponseStatus()
		if err != nil {
			status = router.StatusOf(err)
			span.RecordError(err)
		}
		if c.Route != nil {
			span.SetName(fmt.Sprintf("%s %s", c.Method, c.Route.Pattern()))
			span.SetAttributes(attribute.String("http.route", c.Route.Pattern()))
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		return err
	}
}
