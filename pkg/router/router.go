package router

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultMethods are the verbs a router implements unless configured otherwise
var DefaultMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodOptions,
	http.MethodTrace,
}

// Router is an ordered stack of middleware and routes under a mount prefix
type Router struct {
	prefix   string
	methods  []string
	stack    []HandlerFunc
	layers   []*Layer
	registry *Registry
	logger   *zap.Logger
}

// Option configures a Router
type Option func(*Router)

// WithMethods sets the verbs the router implements
func WithMethods(methods ...string) Option {
	return func(r *Router) {
		r.methods = normalizeMethods(methods)
	}
}

// WithRegistry shares a name registry with other routers
func WithRegistry(registry *Registry) Option {
	return func(r *Router) {
		r.registry = registry
	}
}

// WithLogger sets the logger used for dispatch traces
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a router mounted at prefix. An empty prefix means "/".
func New(prefix string, opts ...Option) *Router {
	if prefix == "" {
		prefix = "/"
	}
	r := &Router{
		prefix:  prefix,
		methods: append([]string(nil), DefaultMethods...),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = NewRegistry()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Child creates a router mounted under this router's prefix. It shares the
// name registry, verbs and logger. Attach it with Use once its routes are declared.
func (r *Router) Child(prefix string) *Router {
	return New(joinPrefix(r.prefix, prefix),
		WithMethods(r.methods...),
		WithRegistry(r.registry),
		WithLogger(r.logger),
	)
}

// Prefix returns the mount prefix
func (r *Router) Prefix() string {
	return r.prefix
}

// Methods returns the implemented verbs
func (r *Router) Methods() []string {
	return r.methods
}

// Registry returns the name registry
func (r *Router) Registry() *Registry {
	return r.registry
}

// Layers returns the routes declared on this router, in registration order
func (r *Router) Layers() []*Layer {
	return r.layers
}

// Use appends middleware. Each argument is a HandlerFunc, a
// func(*Context, Next) error, a *Router or a *Layer; several arguments are
// composed into one stack entry.
func (r *Router) Use(middleware ...any) error {
	if len(middleware) == 0 {
		return nil
	}

	handlers := make([]HandlerFunc, 0, len(middleware))
	for i, mw := range middleware {
		h, err := r.handlerOf(mw)
		if err != nil {
			return fmt.Errorf("use: argument %d: %w", i, err)
		}
		handlers = append(handlers, h)
	}

	if len(handlers) == 1 {
		r.stack = append(r.stack, handlers[0])
	} else {
		r.stack = append(r.stack, Compose(handlers...))
	}
	return nil
}

func (r *Router) handlerOf(mw any) (HandlerFunc, error) {
	switch v := mw.(type) {
	case HandlerFunc:
		if v == nil {
			return nil, fmt.Errorf("nil handler")
		}
		return v, nil
	case func(*Context, Next) error:
		if v == nil {
			return nil, fmt.Errorf("nil handler")
		}
		return v, nil
	case *Router:
		return v.Routes(), nil
	case *Layer:
		if err := v.SetPrefix(r.prefix, true); err != nil {
			return nil, err
		}
		if err := r.registry.Register(v); err != nil {
			return nil, err
		}
		v.logger = r.logger
		r.layers = append(r.layers, v)
		return v.Handler(), nil
	}
	return nil, fmt.Errorf("unsupported middleware type %T", mw)
}

// Route declares a route for the given verbs. The pattern is mounted under
// the router prefix and the route name, if any, is registered.
func (r *Router) Route(methods []string, pattern string, handlers []HandlerFunc, opts RouteOptions) (*Layer, error) {
	layer, err := NewLayer(methods, pattern, handlers, opts)
	if err != nil {
		return nil, err
	}
	if err := layer.SetPrefix(r.prefix, true); err != nil {
		return nil, err
	}
	if err := r.registry.Register(layer); err != nil {
		return nil, err
	}
	layer.logger = r.logger

	r.layers = append(r.layers, layer)
	r.stack = append(r.stack, layer.Handler())

	r.logger.Debug("route registered",
		zap.Strings("methods", layer.Methods()),
		zap.String("pattern", layer.Pattern()),
		zap.String("name", layer.Name()),
	)
	return layer, nil
}

// Get declares a GET route
func (r *Router) Get(pattern string, handlers ...HandlerFunc) (*Layer, error) {
	return r.Route([]string{http.MethodGet}, pattern, handlers, RouteOptions{})
}

// Head declares a HEAD route
func (r *Router) Head(pattern string, handlers ...HandlerFunc) (*Layer, error) {
	return r.Route([]string{http.MethodHead}, pattern, handlers, RouteOptions{})
}

// Post declares a POST route
func (r *Router) Post(pattern string, handlers ...HandlerFunc) (*Layer, error) {
	return r.Route([]string{http.MethodPost}, pattern, handlers, RouteOptions{})
}

// Put declares a PUT route
func (r *Router) Put(pattern string, handlers ...HandlerFunc) (*Layer, error) {
	return r.Route([]string{http.MethodPut}, pattern, handlers, RouteOptions{})
}

// Patch declares a PATCH route
func (r *Router) Patch(pattern string, handlers ...HandlerFunc) (*Layer, error) {
	return r.Route([]string{http.MethodPatch}, pattern, handlers, RouteOptions{})
}

// Delete declares a DELETE route
func (r *Router) Delete(pattern string, handlers ...HandlerFunc) (*Layer, error) {
	return r.Route([]string{http.MethodDelete}, pattern, handlers, RouteOptions{})
}

// Options declares an OPTIONS route
func (r *Router) Options(pattern string, handlers ...HandlerFunc) (*Layer, error) {
	return r.Route([]string{http.MethodOptions}, pattern, handlers, RouteOptions{})
}

// All declares a route for every verb the router implements
func (r *Router) All(pattern string, handlers ...HandlerFunc) (*Layer, error) {
	return r.Route(r.methods, pattern, handlers, RouteOptions{})
}

// Implements reports whether the router implements the verb
func (r *Router) Implements(method string) bool {
	for _, m := range r.methods {
		if m == method {
			return true
		}
	}
	return false
}

// Routes returns the router as a single handler. Requests outside the
// prefix or using a verb the router does not implement pass straight to next.
func (r *Router) Routes() HandlerFunc {
	chain := Compose(r.stack...)
	return func(c *Context, next Next) error {
		if !r.accepts(c.Path, c.Method) {
			return next()
		}
		r.logger.Debug("dispatch", zap.String("method", c.Method), zap.String("path", c.Path), zap.String("prefix", r.prefix))
		return chain(c, next)
	}
}

func (r *Router) accepts(path, method string) bool {
	if !hasPrefixFold(path, r.prefix) {
		return false
	}
	return r.Implements(method)
}

// URLFor builds a URL for a named route in the shared registry
func (r *Router) URLFor(name string, params any, query any, hash string) (string, error) {
	return r.registry.URLFor(name, params, query, hash)
}

func joinPrefix(parent, prefix string) string {
	if parent == "" || parent == "/" || parent == "*" {
		return prefix
	}
	if prefix == "" || prefix == "/" {
		return parent
	}
	return strings.TrimSuffix(parent, "/") + "/" + strings.TrimPrefix(prefix, "/")
}

func hasPrefixFold(s, prefix string) bool {
	if prefix == "/" || prefix == "*" {
		return true
	}
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
