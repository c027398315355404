package adapters

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiAdapter hosts a routing chain on a chi mux
type ChiAdapter struct {
	mux chi.Router
	httpServer
}

// NewChiAdapter creates a new chi adapter
func NewChiAdapter(mux chi.Router) *ChiAdapter {
	return &ChiAdapter{mux: mux}
}

// NewDefaultChiAdapter creates a new chi adapter with a fresh mux
func NewDefaultChiAdapter() *ChiAdapter {
	return &ChiAdapter{mux: chi.NewRouter()}
}

// Mount serves h for every request no chi route claims
func (ca *ChiAdapter) Mount(h http.Handler) {
	ca.mux.NotFound(h.ServeHTTP)
	ca.mux.MethodNotAllowed(h.ServeHTTP)
}

// Start starts the HTTP server
func (ca *ChiAdapter) Start(addr string) error {
	return ca.start(addr, ca.mux)
}

// Stop gracefully shuts the server down
func (ca *ChiAdapter) Stop(ctx context.Context) error {
	return ca.stop(ctx)
}

// Handler returns the chi mux
func (ca *ChiAdapter) Handler() http.Handler {
	return ca.mux
}

// Name returns the adapter name
func (ca *ChiAdapter) Name() string {
	return "Chi"
}

// GetMux returns the underlying chi router
func (ca *ChiAdapter) GetMux() chi.Router {
	return ca.mux
}
