package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toyz/annoroute/pkg/router"
)

// testRouter serves /users/:id (named "users.show"), /boom which fails and
// /panic which panics
func testRouter(t *testing.T) *router.Router {
	t.Helper()
	r := router.New("/")
	_, err := r.Route([]string{"GET"}, "/users/:id", []router.HandlerFunc{
		func(c *router.Context, next router.Next) error {
			return c.String(http.StatusOK, "user "+c.Param("id"))
		},
	}, router.RouteOptions{Name: "users.show"})
	require.NoError(t, err)
	_, err = r.Get("/boom", func(c *router.Context, next router.Next) error {
		return errors.New("boom")
	})
	require.NoError(t, err)
	_, err = r.Get("/panic", func(c *router.Context, next router.Next) error {
		panic("kaboom")
	})
	require.NoError(t, err)
	return r
}

func do(h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	var seen string
	h := router.NewHandler(RequestID(), func(c *router.Context, next router.Next) error {
		seen = c.RequestID
		return c.NoContent(http.StatusNoContent)
	})

	rec := do(h, "GET", "/", nil)
	assert.NotEmpty(t, seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	rec = do(h, "GET", "/", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDWithGenerator(t *testing.T) {
	c := router.NewContext("GET", "/")
	err := RequestIDWithGenerator(func() string { return "fixed" })(c, func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "fixed", c.RequestID)
	assert.Equal(t, "fixed", c.Header.Get(RequestIDHeader))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	h := router.Handler(testRouter(t), router.HandlerOptions{
		Middleware: []router.HandlerFunc{
			RequestIDWithGenerator(func() string { return "req-1" }),
			Logger(logger),
		},
	})

	tests := []struct {
		path   string
		level  zapcore.Level
		status int64
		route  string
	}{
		{"/users/7", zapcore.InfoLevel, 200, "users.show"},
		{"/missing", zapcore.WarnLevel, 404, ""},
		{"/boom", zapcore.ErrorLevel, 500, "/boom"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			do(h, "GET", tt.path, nil)

			entries := logs.FilterMessage("request completed").TakeAll()
			require.Len(t, entries, 1)
			entry := entries[0]
			assert.Equal(t, tt.level, entry.Level)

			fields := entry.ContextMap()
			assert.Equal(t, tt.status, fields["status"])
			assert.Equal(t, tt.path, fields["path"])
			assert.Equal(t, "req-1", fields["requestID"])
			if tt.route != "" {
				assert.Equal(t, tt.route, fields["route"])
			} else {
				assert.NotContains(t, fields, "route")
			}
		})
	}
}

func TestLogger_SkipPaths(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mw := LoggerWithConfig(LoggingConfig{Logger: zap.New(core), SkipPaths: []string{"/healthz"}})

	h := router.NewHandler(mw, func(c *router.Context, next router.Next) error {
		return c.String(200, "ok")
	})
	do(h, "GET", "/healthz", nil)
	assert.Equal(t, 0, logs.Len())

	do(h, "GET", "/other", nil)
	assert.Equal(t, 1, logs.Len())
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := router.Handler(testRouter(t), router.HandlerOptions{
		Middleware: []router.HandlerFunc{Recovery(zap.New(core))},
	})

	rec := do(h, "GET", "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
	assert.NotContains(t, rec.Body.String(), "kaboom")

	entries := logs.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "kaboom", entries[0].ContextMap()["error"])

	rec = do(h, "GET", "/users/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(MetricsConfig{Registry: reg})

	h := router.Handler(testRouter(t), router.HandlerOptions{
		Middleware: []router.HandlerFunc{m.Middleware()},
	})

	do(h, "GET", "/users/1", nil)
	do(h, "GET", "/users/2", nil)
	do(h, "GET", "/boom", nil)
	do(h, "GET", "/nowhere", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "users.show", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/boom", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))

	count, err := testutil.GatherAndCount(reg, "annoroute_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetrics_CustomNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(MetricsConfig{Registry: reg, Namespace: "shop", Subsystem: "api"})

	c := router.NewContext("POST", "/orders")
	require.NoError(t, m.Middleware()(c, func() error { return c.NoContent(201) }))

	count, err := testutil.GatherAndCount(reg, "shop_api_requests_total", "shop_api_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func setupTracingTest() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return tp, recorder
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	tp, recorder := setupTracingTest()

	var inner trace.SpanContext
	r := testRouter(t)
	_, err := r.Get("/ctx", func(c *router.Context, next router.Next) error {
		inner = trace.SpanContextFromContext(c.Context())
		assert.Equal(t, c.Context(), c.Request.Context())
		return c.String(200, "ok")
	})
	require.NoError(t, err)

	h := router.Handler(r, router.HandlerOptions{
		Middleware: []router.HandlerFunc{
			RequestIDWithGenerator(func() string { return "trace-req" }),
			TracingWithConfig(TracingConfig{TracerProvider: tp}),
		},
	})

	do(h, "GET", "/users/9", nil)
	do(h, "GET", "/boom", nil)
	do(h, "GET", "/ctx", nil)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	ok := spans[0]
	assert.Equal(t, "GET /users/:id", ok.Name())
	assert.Equal(t, trace.SpanKindServer, ok.SpanKind())
	status, found := attr(ok, "http.status_code")
	require.True(t, found)
	assert.Equal(t, int64(200), status.AsInt64())
	route, found := attr(ok, "http.route")
	require.True(t, found)
	assert.Equal(t, "/users/:id", route.AsString())
	id, found := attr(ok, "request.id")
	require.True(t, found)
	assert.Equal(t, "trace-req", id.AsString())

	failed := spans[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)

	assert.True(t, inner.IsValid())
	assert.Equal(t, spans[2].SpanContext().TraceID(), inner.TraceID())
}
