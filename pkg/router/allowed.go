package router

import (
	"net/http"
	"strings"
)

// AllowedMethodsOptions configures AllowedMethods
type AllowedMethodsOptions struct {
	// Throw returns an error instead of setting 405 or 501 on the context
	Throw bool
	// NotImplemented builds the error returned for verbs the router does not implement
	NotImplemented func() error
	// MethodNotAllowed builds the error returned for verbs the matched routes do not accept
	MethodNotAllowed func() error
}

// AllowedMethods returns a handler that answers OPTIONS requests and
// rejects unaccepted verbs once the rest of the chain has run.
//
// It does nothing when a status other than 404 is already set. A verb the
// router does not implement yields 501. When some route matched the path,
// OPTIONS yields 200 with an Allow header and an empty body, and any verb
// none of those routes accept yields 405 with an Allow header.
func (r *Router) AllowedMethods(opts AllowedMethodsOptions) HandlerFunc {
	return func(c *Context, next Next) error {
		if err := next(); err != nil {
			return err
		}

		if c.Status != 0 && c.Status != http.StatusNotFound {
			return nil
		}

		allowed := c.AllowedMethods()

		if !r.Implements(c.Method) {
			return reject(c, allowed, http.StatusNotImplemented, opts.Throw, opts.NotImplemented)
		}
		if len(allowed) == 0 {
			return nil
		}

		if c.Method == http.MethodOptions {
			c.Status = http.StatusOK
			c.Body = ""
			c.SetHeader("Allow", strings.Join(allowed, ", "))
			return nil
		}

		for _, m := range allowed {
			if m == c.Method {
				return nil
			}
		}
		return reject(c, allowed, http.StatusMethodNotAllowed, opts.Throw, opts.MethodNotAllowed)
	}
}

func reject(c *Context, allowed []string, status int, throw bool, build func() error) error {
	if throw {
		if build != nil {
			return build()
		}
		return NewHTTPError(status)
	}

	c.Status = status
	if len(allowed) > 0 {
		c.SetHeader("Allow", strings.Join(allowed, ", "))
	}
	return nil
}
