package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetsRouter(t *testing.T) *Router {
	t.Helper()
	r := New("/")
	_, err := r.Route([]string{"GET", "POST"}, "/widgets", []HandlerFunc{respond("widgets")}, RouteOptions{})
	require.NoError(t, err)
	return r
}

func serve(r *Router, opts AllowedMethodsOptions, method, path string) (*Context, error) {
	c := NewContext(method, path)
	err := Compose(r.AllowedMethods(opts), r.Routes())(c, nil)
	return c, err
}

func TestAllowedMethods(t *testing.T) {
	r := widgetsRouter(t)

	t.Run("unallowed verb is 405", func(t *testing.T) {
		c, err := serve(r, AllowedMethodsOptions{}, "DELETE", "/widgets")
		require.NoError(t, err)
		assert.Equal(t, 405, c.Status)
		assert.Equal(t, "GET, POST", c.Header.Get("Allow"))
	})

	t.Run("options lists allowed verbs", func(t *testing.T) {
		c, err := serve(r, AllowedMethodsOptions{}, "OPTIONS", "/widgets")
		require.NoError(t, err)
		assert.Equal(t, 200, c.Status)
		assert.Equal(t, "GET, POST", c.Header.Get("Allow"))
		assert.Equal(t, "", c.Body)
	})

	t.Run("allowed verb is untouched", func(t *testing.T) {
		c, err := serve(r, AllowedMethodsOptions{}, "GET", "/widgets")
		require.NoError(t, err)
		assert.Equal(t, 200, c.Status)
		assert.Equal(t, "widgets", c.Body)
		assert.Empty(t, c.Header.Get("Allow"))
	})

	t.Run("unmatched path leaves status unset", func(t *testing.T) {
		c, err := serve(r, AllowedMethodsOptions{}, "GET", "/gadgets")
		require.NoError(t, err)
		assert.Equal(t, 0, c.Status)
		assert.Nil(t, c.Body)
	})

	t.Run("unimplemented verb is 501", func(t *testing.T) {
		c, err := serve(r, AllowedMethodsOptions{}, "BREW", "/widgets")
		require.NoError(t, err)
		assert.Equal(t, 501, c.Status)
	})
}

func TestAllowedMethods_UnionAcrossLayers(t *testing.T) {
	r := New("/")
	_, err := r.Route([]string{"GET"}, "/things/:id", []HandlerFunc{respond("a")}, RouteOptions{})
	require.NoError(t, err)
	_, err = r.Route([]string{"PUT", "GET"}, "/things/:slug", []HandlerFunc{respond("b")}, RouteOptions{})
	require.NoError(t, err)

	c, err := serve(r, AllowedMethodsOptions{}, "DELETE", "/things/1")
	require.NoError(t, err)
	assert.Equal(t, 405, c.Status)
	assert.Equal(t, "GET, PUT", c.Header.Get("Allow"))
}

func TestAllowedMethods_RespectsStatus(t *testing.T) {
	r := New("/")
	_, err := r.Route([]string{"GET"}, "/x", []HandlerFunc{respond("x")}, RouteOptions{})
	require.NoError(t, err)

	teapot := func(c *Context, next Next) error {
		if err := next(); err != nil {
			return err
		}
		c.Status = 418
		return nil
	}

	c := NewContext("POST", "/x")
	require.NoError(t, Compose(r.AllowedMethods(AllowedMethodsOptions{}), teapot, r.Routes())(c, nil))
	assert.Equal(t, 418, c.Status)
	assert.Empty(t, c.Header.Get("Allow"))

	c = NewContext("POST", "/x")
	notFound := func(c *Context, next Next) error {
		c.Status = 404
		return next()
	}
	require.NoError(t, Compose(r.AllowedMethods(AllowedMethodsOptions{}), notFound, r.Routes())(c, nil))
	assert.Equal(t, 405, c.Status)
}

func TestAllowedMethods_Throw(t *testing.T) {
	r := widgetsRouter(t)

	_, err := serve(r, AllowedMethodsOptions{Throw: true}, "DELETE", "/widgets")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 405, httpErr.Code)

	_, err = serve(r, AllowedMethodsOptions{Throw: true}, "BREW", "/widgets")
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 501, httpErr.Code)

	custom := errors.New("custom")
	_, err = serve(r, AllowedMethodsOptions{
		Throw:            true,
		NotImplemented:   func() error { return custom },
		MethodNotAllowed: func() error { return custom },
	}, "DELETE", "/widgets")
	assert.ErrorIs(t, err, custom)

	c, err := serve(r, AllowedMethodsOptions{Throw: true}, "OPTIONS", "/widgets")
	require.NoError(t, err)
	assert.Equal(t, 200, c.Status)
}
