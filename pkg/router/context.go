package router

import (
	"context"
	"net/http"
)

// Context carries one request through the dispatch chain. Routing writes
// Params, Status and the Allow header back into it; the transport turns
// Status, Header and Body into the response.
type Context struct {
	Method    string
	Path      string
	Params    map[string]string
	Status    int // 0 until a handler or the router sets it
	Header    http.Header
	Body      any
	State     map[string]any
	Request   *http.Request // nil when the context was not built from a request
	RequestID string
	Route     *Layer // last layer whose handlers ran

	ctx     context.Context
	allowed []*Layer
}

// NewContext creates a context for a method and path
func NewContext(method, path string) *Context {
	return &Context{
		Method: method,
		Path:   path,
		Params: make(map[string]string),
		Header: make(http.Header),
		State:  make(map[string]any),
		ctx:    context.Background(),
	}
}

// NewRequestContext creates a context from an incoming request
func NewRequestContext(req *http.Request) *Context {
	c := NewContext(req.Method, req.URL.EscapedPath())
	c.Request = req
	c.ctx = req.Context()
	return c
}

// Context returns the request-scoped context.Context
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// SetContext replaces the request-scoped context.Context
func (c *Context) SetContext(ctx context.Context) {
	c.ctx = ctx
	if c.Request != nil {
		c.Request = c.Request.WithContext(ctx)
	}
}

// Param returns a path parameter, or an empty string when absent
func (c *Context) Param(name string) string {
	return c.Params[name]
}

// Set stores a value in the state bag
func (c *Context) Set(key string, value any) {
	if c.State == nil {
		c.State = make(map[string]any)
	}
	c.State[key] = value
}

// Get reads a value from the state bag
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.State[key]
	return v, ok
}

// SetHeader sets a response header
func (c *Context) SetHeader(key, value string) {
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	c.Header.Set(key, value)
}

// String responds with a text body
func (c *Context) String(status int, body string) error {
	c.Status = status
	c.Body = body
	return nil
}

// JSON responds with a value to be encoded as JSON by the transport
func (c *Context) JSON(status int, body any) error {
	c.Status = status
	c.Body = body
	return nil
}

// NoContent responds with a status and no body
func (c *Context) NoContent(status int) error {
	c.Status = status
	c.Body = nil
	return nil
}

// AllowedLayers returns the layers whose path matched the request, in match order
func (c *Context) AllowedLayers() []*Layer {
	return c.allowed
}

// AllowedMethods returns the union of verbs accepted by the layers whose path
// matched, in order of first appearance
func (c *Context) AllowedMethods() []string {
	var methods []string
	seen := make(map[string]struct{})
	for _, layer := range c.allowed {
		for _, m := range layer.methods {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			methods = append(methods, m)
		}
	}
	return methods
}

// ResponseStatus returns the status the transport will write: Status when set,
// otherwise 200 with a body and 404 without one
func (c *Context) ResponseStatus() int {
	if c.Status != 0 {
		return c.Status
	}
	if c.Body != nil {
		return http.StatusOK
	}
	return http.StatusNotFound
}

func (c *Context) recordAllowed(layer *Layer) {
	c.allowed = append(c.allowed, layer)
}
