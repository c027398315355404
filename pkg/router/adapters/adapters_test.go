package adapters

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annoroute/pkg/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func widgetsHandler(t *testing.T) http.Handler {
	t.Helper()
	r := router.New("/")
	_, err := r.Route([]string{"GET", "POST"}, "/widgets", []router.HandlerFunc{
		func(c *router.Context, next router.Next) error {
			return c.String(http.StatusOK, "widgets")
		},
	}, router.RouteOptions{})
	require.NoError(t, err)
	_, err = r.Get("/widgets/:id", func(c *router.Context, next router.Next) error {
		return c.String(http.StatusOK, "widget "+c.Param("id"))
	})
	require.NoError(t, err)
	return router.Handler(r, router.HandlerOptions{})
}

type response struct {
	status int
	body   string
	allow  string
}

// serve runs a request through the adapter, using Fiber's own test harness
// where the adapter is Fiber
func serve(t *testing.T, server Server, method, path string) response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)

	if fa, ok := server.(*FiberAdapter); ok {
		res, err := fa.GetApp().Test(req)
		require.NoError(t, err)
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return response{res.StatusCode, string(body), res.Header.Get("Allow")}
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return response{rec.Code, rec.Body.String(), rec.Header().Get("Allow")}
}

func TestAdapters(t *testing.T) {
	servers := []struct {
		name   string
		server func() Server
	}{
		{"Gin", func() Server { return NewDefaultGinAdapter() }},
		{"Echo", func() Server { return NewDefaultEchoAdapter() }},
		{"Fiber", func() Server { return NewDefaultFiberAdapter() }},
		{"Chi", func() Server { return NewDefaultChiAdapter() }},
	}

	requests := []struct {
		name   string
		method string
		path   string
		want   response
	}{
		{"static route", "GET", "/widgets", response{200, "widgets", ""}},
		{"second verb", "POST", "/widgets", response{200, "widgets", ""}},
		{"param route", "GET", "/widgets/42", response{200, "widget 42", ""}},
		{"method not allowed", "DELETE", "/widgets", response{405, "Method Not Allowed", "GET, POST"}},
		{"options", "OPTIONS", "/widgets", response{200, "", "GET, POST"}},
		{"not found", "GET", "/gadgets", response{404, "Not Found", ""}},
	}

	for _, s := range servers {
		t.Run(s.name, func(t *testing.T) {
			server := s.server()
			assert.Equal(t, s.name, server.Name())
			server.Mount(widgetsHandler(t))

			for _, tt := range requests {
				t.Run(tt.name, func(t *testing.T) {
					assert.Equal(t, tt.want, serve(t, server, tt.method, tt.path))
				})
			}
		})
	}
}

func TestAdapters_NativeRoutesTakePrecedence(t *testing.T) {
	native := func(status int) response { return response{status, "native", ""} }

	g := gin.New()
	g.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "native") })
	ginAdapter := NewGinAdapter(g)

	e := echo.New()
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "native") })
	echoAdapter := NewEchoAdapter(e)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("native") })
	fiberAdapter := NewFiberAdapter(app)

	mux := chi.NewRouter()
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, "native") })
	chiAdapter := NewChiAdapter(mux)

	for _, server := range []Server{ginAdapter, echoAdapter, fiberAdapter, chiAdapter} {
		t.Run(server.Name(), func(t *testing.T) {
			server.Mount(widgetsHandler(t))
			assert.Equal(t, native(200), serve(t, server, "GET", "/health"))
			assert.Equal(t, 200, serve(t, server, "GET", "/widgets/1").status)
		})
	}
}

func TestAdapters_StopRacesStart(t *testing.T) {
	for _, server := range []Server{NewDefaultGinAdapter(), NewDefaultChiAdapter()} {
		t.Run(server.Name(), func(t *testing.T) {
			server.Mount(widgetsHandler(t))

			done := make(chan error, 1)
			go func() { done <- server.Start("127.0.0.1:0") }()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			require.NoError(t, server.Stop(ctx))

			select {
			case err := <-done:
				if err != nil {
					assert.ErrorIs(t, err, http.ErrServerClosed)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Start did not return after Stop")
			}
		})
	}
}

func TestAdapters_StartAfterStop(t *testing.T) {
	for _, server := range []Server{NewDefaultGinAdapter(), NewDefaultChiAdapter()} {
		t.Run(server.Name(), func(t *testing.T) {
			require.NoError(t, server.Stop(context.Background()))
			assert.ErrorIs(t, server.Start("127.0.0.1:0"), http.ErrServerClosed)
		})
	}
}
