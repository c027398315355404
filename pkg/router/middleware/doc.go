// Package middleware provides router.HandlerFunc middleware for request IDs,
// structured request logging, panic recovery, Prometheus metrics and
// OpenTelemetry tracing.
//
// Middleware is ordinary router.HandlerFunc values and can be passed to
// Router.Use, to a route's handler list, or to router.HandlerOptions.
//
//	r := router.New("/")
//	handler := router.Handler(r, router.HandlerOptions{
//		Middleware: []router.HandlerFunc{
//			middleware.RequestID(),
//			middleware.Recovery(logger),
//			middleware.Logger(logger),
//		},
//	})
package middleware
