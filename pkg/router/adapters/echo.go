package adapters

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// EchoAdapter hosts a routing chain on an Echo instance
type EchoAdapter struct {
	echo *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{echo: e}
}

// NewDefaultEchoAdapter creates a new Echo adapter with a default Echo instance
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &EchoAdapter{echo: e}
}

// Mount serves h for every path and verb Echo knows
func (ea *EchoAdapter) Mount(h http.Handler) {
	wrapped := echo.WrapHandler(h)
	ea.echo.Any("/", wrapped)
	ea.echo.Any("/*", wrapped)
}

// Start starts the Echo server
func (ea *EchoAdapter) Start(addr string) error {
	err := ea.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the Echo server down
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.echo.Shutdown(ctx)
}

// Handler returns the Echo instance
func (ea *EchoAdapter) Handler() http.Handler {
	return ea.echo
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// GetEngine returns the underlying Echo instance
func (ea *EchoAdapter) GetEngine() *echo.Echo {
	return ea.echo
}
