// Package adapters serves a router.Router through third-party web frameworks.
// Each adapter mounts the router's http.Handler as a catch-all so routes
// registered directly on the framework take precedence.
package adapters

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// Server is a web framework hosting a routing chain
type Server interface {
	// Mount installs h as the framework's catch-all handler
	Mount(h http.Handler)

	// Server lifecycle
	Start(addr string) error
	Stop(ctx context.Context) error

	// Handler exposes the framework as a net/http handler
	Handler() http.Handler

	// Name returns the framework name
	Name() string
}

var (
	_ Server = (*GinAdapter)(nil)
	_ Server = (*EchoAdapter)(nil)
	_ Server = (*FiberAdapter)(nil)
	_ Server = (*ChiAdapter)(nil)
)

// httpServer runs a handler on a net/http server that can be shut down.
// Once stopped it cannot be started again.
type httpServer struct {
	mu     sync.Mutex
	server *http.Server
	closed bool
}

func (s *httpServer) start(addr string, h http.Handler) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{Addr: addr, Handler: h}
	s.server = srv
	s.mu.Unlock()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *httpServer) stop(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
