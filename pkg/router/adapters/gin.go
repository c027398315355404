package adapters

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinAdapter hosts a routing chain on a Gin engine
type GinAdapter struct {
	engine *gin.Engine
	httpServer
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates a new Gin adapter with a bare Gin engine
func NewDefaultGinAdapter() *GinAdapter {
	return &GinAdapter{engine: gin.New()}
}

// Mount serves h for every request no Gin route claims
func (ga *GinAdapter) Mount(h http.Handler) {
	ga.engine.NoRoute(gin.WrapH(h))
	ga.engine.NoMethod(gin.WrapH(h))
}

// Start starts the Gin server
func (ga *GinAdapter) Start(addr string) error {
	return ga.start(addr, ga.engine)
}

// Stop gracefully shuts the server down
func (ga *GinAdapter) Stop(ctx context.Context) error {
	return ga.stop(ctx)
}

// Handler returns the Gin engine
func (ga *GinAdapter) Handler() http.Handler {
	return ga.engine
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}
