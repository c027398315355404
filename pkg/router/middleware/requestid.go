package middleware

import (
	"github.com/google/uuid"

	"github.com/toyz/annoroute/pkg/router"
)

// RequestIDHeader is the header carrying the request ID
const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID header or generates a UUID, stores
// it on the context and echoes it in the response
func RequestID() router.HandlerFunc {
	return RequestIDWithGenerator(uuid.NewString)
}

// RequestIDWithGenerator is RequestID with a custom ID generator
func RequestIDWithGenerator(generate func() string) router.HandlerFunc {
	return func(c *router.Context, next router.Next) error {
		id := ""
		if c.Request != nil {
			id = c.Request.Header.Get(RequestIDHeader)
		}
		if id == "" {
			id = generate()
		}

		c.RequestID = id
		c.SetHeader(RequestIDHeader, id)
		return next()
	}
}
