package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(body string) HandlerFunc {
	return func(c *Context, next Next) error {
		return c.String(200, body)
	}
}

func dispatch(t *testing.T, h HandlerFunc, method, path string) *Context {
	t.Helper()
	c := NewContext(method, path)
	require.NoError(t, h(c, nil))
	return c
}

func TestRouter_Route(t *testing.T) {
	r := New("/api")
	layer, err := r.Route([]string{"GET"}, "/users/:id", []HandlerFunc{respond("user")}, RouteOptions{Name: "user"})
	require.NoError(t, err)
	assert.Equal(t, "/api/users/:id", layer.Pattern())
	assert.Equal(t, []*Layer{layer}, r.Layers())

	c := dispatch(t, r.Routes(), "GET", "/api/users/5")
	assert.Equal(t, "user", c.Body)
	assert.Equal(t, "5", c.Param("id"))

	url, err := r.URLFor("user", map[string]any{"id": 5}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "/api/users/5", url)
}

func TestRouter_DeclinesOutsidePrefix(t *testing.T) {
	r := New("/api")
	_, err := r.Get("/x", respond("x"))
	require.NoError(t, err)

	continued := false
	c := NewContext("GET", "/other/x")
	require.NoError(t, r.Routes()(c, func() error {
		continued = true
		return nil
	}))
	assert.True(t, continued)
	assert.Nil(t, c.Body)
}

func TestRouter_DeclinesUnimplementedVerb(t *testing.T) {
	r := New("/", WithMethods("get"))
	_, err := r.All("/x", respond("x"))
	require.NoError(t, err)

	c := dispatch(t, r.Routes(), "POST", "/x")
	assert.Nil(t, c.Body)
	assert.Empty(t, c.AllowedLayers())
}

func TestRouter_FirstMatchWins(t *testing.T) {
	r := New("/")
	_, err := r.Get("/items/new", respond("new"))
	require.NoError(t, err)
	_, err = r.Get("/items/:id", respond("item"))
	require.NoError(t, err)

	assert.Equal(t, "new", dispatch(t, r.Routes(), "GET", "/items/new").Body)
	assert.Equal(t, "item", dispatch(t, r.Routes(), "GET", "/items/3").Body)
}

func TestRouter_VerbHelpers(t *testing.T) {
	r := New("/")
	helpers := map[string]func(string, ...HandlerFunc) (*Layer, error){
		"GET":     r.Get,
		"HEAD":    r.Head,
		"POST":    r.Post,
		"PUT":     r.Put,
		"PATCH":   r.Patch,
		"DELETE":  r.Delete,
		"OPTIONS": r.Options,
	}
	for method, helper := range helpers {
		layer, err := helper("/"+method, respond(method))
		require.NoError(t, err)
		assert.Equal(t, []string{method}, layer.Methods())
	}

	all, err := r.All("/all", respond("all"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMethods, all.Methods())
}

func TestRouter_Use(t *testing.T) {
	r := New("/")
	var trace []string

	require.NoError(t, r.Use(
		HandlerFunc(func(c *Context, next Next) error {
			trace = append(trace, "typed")
			return next()
		}),
		func(c *Context, next Next) error {
			trace = append(trace, "plain")
			return next()
		},
	))
	_, err := r.Get("/x", func(c *Context, next Next) error {
		trace = append(trace, "route")
		return nil
	})
	require.NoError(t, err)

	dispatch(t, r.Routes(), "GET", "/x")
	assert.Equal(t, []string{"typed", "plain", "route"}, trace)

	assert.Error(t, r.Use("not a handler"))
	assert.Error(t, r.Use(HandlerFunc(nil)))
	assert.NoError(t, r.Use())
}

func TestRouter_UseLayerReplacesPrefix(t *testing.T) {
	r := New("/api")
	layer, err := NewLayer([]string{"GET"}, "/ping", []HandlerFunc{respond("pong")}, RouteOptions{Name: "ping"})
	require.NoError(t, err)
	require.NoError(t, layer.SetPrefix("/old", false))

	require.NoError(t, r.Use(layer))
	assert.Equal(t, "/api/ping", layer.Pattern())
	assert.Equal(t, "pong", dispatch(t, r.Routes(), "GET", "/api/ping").Body)

	_, ok := r.Registry().Lookup("ping")
	assert.True(t, ok)
}

func TestRouter_Nested(t *testing.T) {
	root := New("/")
	child := root.Child("/users")
	assert.Same(t, root.Registry(), child.Registry())
	assert.Equal(t, "/users", child.Prefix())

	_, err := child.Route([]string{"GET"}, "/:id", []HandlerFunc{respond("user")}, RouteOptions{Name: "users.show"})
	require.NoError(t, err)
	require.NoError(t, root.Use(child))

	c := dispatch(t, root.Routes(), "GET", "/users/3")
	assert.Equal(t, "user", c.Body)

	url, err := root.URLFor("users.show", []any{3}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "/users/3", url)

	grandchild := child.Child("/admin")
	assert.Equal(t, "/users/admin", grandchild.Prefix())
}

func TestRouter_DuplicateName(t *testing.T) {
	r := New("/")
	_, err := r.Route([]string{"GET"}, "/a", []HandlerFunc{respond("a")}, RouteOptions{Name: "same"})
	require.NoError(t, err)

	_, err = r.Child("/b").Route([]string{"GET"}, "/b", []HandlerFunc{respond("b")}, RouteOptions{Name: "same"})
	var dup *DuplicateRouteNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "same", dup.Name)
	assert.Equal(t, "/a", dup.Existing)
}

func TestRouter_URLForUnknown(t *testing.T) {
	_, err := New("/").URLFor("missing", nil, nil, "")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestRouter_ErrorsPropagate(t *testing.T) {
	r := New("/")
	_, err := r.Get("/q/:term", respond("q"))
	require.NoError(t, err)

	err = r.Routes()(NewContext("GET", "/q/%zz"), nil)
	var decodeErr *ParamDecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestJoinPrefix(t *testing.T) {
	assert.Equal(t, "/users", joinPrefix("/", "/users"))
	assert.Equal(t, "/api/users", joinPrefix("/api", "/users"))
	assert.Equal(t, "/api/users", joinPrefix("/api/", "users"))
	assert.Equal(t, "/api", joinPrefix("/api", "/"))
}
