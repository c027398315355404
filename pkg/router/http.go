package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// HandlerOptions configures the net/http transport
type HandlerOptions struct {
	// Middleware runs before allowed-method handling and routing
	Middleware []HandlerFunc
	// AllowedMethods configures OPTIONS, 405 and 501 handling
	AllowedMethods AllowedMethodsOptions
	// ErrorHandler writes a failed request; defaults to a JSON HTTPError body
	ErrorHandler func(w http.ResponseWriter, c *Context, err error)
	// Logger receives request failures
	Logger *zap.Logger
}

// Handler serves a router over net/http: middleware, then allowed-method
// handling around the router's routes
func Handler(r *Router, opts HandlerOptions) http.Handler {
	handlers := make([]HandlerFunc, 0, len(opts.Middleware)+2)
	handlers = append(handlers, opts.Middleware...)
	handlers = append(handlers, r.AllowedMethods(opts.AllowedMethods), r.Routes())

	h := newHTTPHandler(handlers)
	if opts.ErrorHandler != nil {
		h.onError = opts.ErrorHandler
	}
	h.logger = r.logger
	if opts.Logger != nil {
		h.logger = opts.Logger
	}
	return h
}

// NewHandler serves a composed chain over net/http
func NewHandler(handlers ...HandlerFunc) http.Handler {
	return newHTTPHandler(handlers)
}

type httpHandler struct {
	chain   HandlerFunc
	onError func(w http.ResponseWriter, c *Context, err error)
	logger  *zap.Logger
}

func newHTTPHandler(handlers []HandlerFunc) *httpHandler {
	return &httpHandler{
		chain:   Compose(handlers...),
		onError: WriteError,
		logger:  zap.NewNop(),
	}
}

// ServeHTTP implements http.Handler
func (h *httpHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c := NewRequestContext(req)

	if err := h.chain(c, nil); err != nil {
		status := StatusOf(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("request failed",
				zap.String("method", c.Method),
				zap.String("path", c.Path),
				zap.Error(err),
			)
		}
		h.onError(w, c, err)
		return
	}

	if err := Write(w, c); err != nil {
		h.logger.Warn("write response", zap.String("path", c.Path), zap.Error(err))
	}
}

// Write copies the context's status, headers and body to w. Strings and
// byte slices are written as they are, readers are streamed and other values
// are encoded as JSON. An unset status with no body is a 404.
func Write(w http.ResponseWriter, c *Context) error {
	for key, values := range c.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	status := c.ResponseStatus()

	switch body := c.Body.(type) {
	case nil:
		if status >= http.StatusBadRequest {
			setDefaultContentType(w, "text/plain; charset=utf-8")
			w.WriteHeader(status)
			_, err := io.WriteString(w, http.StatusText(status))
			return err
		}
		w.WriteHeader(status)
		return nil
	case string:
		if body != "" {
			setDefaultContentType(w, "text/plain; charset=utf-8")
		}
		w.WriteHeader(status)
		_, err := io.WriteString(w, body)
		return err
	case []byte:
		setDefaultContentType(w, "application/octet-stream")
		w.WriteHeader(status)
		_, err := w.Write(body)
		return err
	case io.Reader:
		setDefaultContentType(w, "application/octet-stream")
		w.WriteHeader(status)
		_, err := io.Copy(w, body)
		return err
	default:
		setDefaultContentType(w, "application/json")
		w.WriteHeader(status)
		return json.NewEncoder(w).Encode(body)
	}
}

// WriteError writes err as a JSON HTTPError. Errors without a status are
// reported as 500 without exposing their message.
func WriteError(w http.ResponseWriter, c *Context, err error) {
	status := StatusOf(err)

	var httpErr *HTTPError
	body := &HTTPError{Code: status, Message: http.StatusText(status)}
	switch {
	case errors.As(err, &httpErr):
		body.Message = httpErr.Message
	case status < http.StatusInternalServerError:
		body.Message = err.Error()
	}

	if c != nil {
		for key, values := range c.Header {
			for _, v := range values {
				w.Header().Add(key, v)
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func setDefaultContentType(w http.ResponseWriter, contentType string) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", contentType)
	}
}
