package router

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"go.uber.org/zap"
)

// RouteOptions are the optional settings of a route
type RouteOptions struct {
	// Name registers the route for reverse routing
	Name string
	// Defaults seed params and URL values; captured values win
	Defaults map[string]any
	// Requirements restrict named parameters, see RequirementFrom
	Requirements map[string]any
}

// Match is the result of matching a layer against a request
type Match struct {
	Params map[string]string
	Path   string // the matched part of the request path
	OK     bool   // false when the path matched but the verb is not accepted
}

// Layer is a compiled route: a pattern, the verbs it accepts and its handler chain
type Layer struct {
	originalPattern string
	pattern         *Pattern
	methods         []string
	name            string
	defaults        map[string]string
	requirements    map[string]Requirement
	handlers        []HandlerFunc
	logger          *zap.Logger
}

// NewLayer compiles a route. An empty methods list accepts every verb.
func NewLayer(methods []string, pattern string, handlers []HandlerFunc, opts RouteOptions) (*Layer, error) {
	if len(handlers) == 0 {
		return nil, fmt.Errorf("route %s: at least one handler is required", pattern)
	}
	for _, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("route %s: nil handler", pattern)
		}
	}

	l := &Layer{
		originalPattern: pattern,
		methods:         normalizeMethods(methods),
		name:            opts.Name,
		defaults:        make(map[string]string, len(opts.Defaults)),
		requirements:    make(map[string]Requirement, len(opts.Requirements)),
		handlers:        append([]HandlerFunc(nil), handlers...),
		logger:          zap.NewNop(),
	}

	for k, v := range opts.Defaults {
		if v != nil {
			l.defaults[k] = fmt.Sprint(v)
		}
	}
	for k, v := range opts.Requirements {
		req, err := RequirementFrom(v)
		if err != nil {
			return nil, fmt.Errorf("route %s: requirement for %q: %w", pattern, k, err)
		}
		l.requirements[k] = req
	}

	if err := l.prepare(pattern); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layer) prepare(pattern string) error {
	if l.pattern != nil && l.pattern.raw == pattern {
		return nil
	}
	compiled, err := CompilePattern(pattern)
	if err != nil {
		return err
	}
	l.pattern = compiled
	return nil
}

// SetPrefix prepends a mount prefix. With replace the prefix is applied to
// the original pattern, so prefixes never stack. Empty, "/" and "*" prefixes
// are ignored.
func (l *Layer) SetPrefix(prefix string, replace bool) error {
	if prefix == "" || prefix == "/" || prefix == "*" {
		return nil
	}
	if replace {
		return l.prepare(prefix + l.originalPattern)
	}
	return l.prepare(prefix + l.pattern.raw)
}

// Name returns the route name, empty for anonymous routes
func (l *Layer) Name() string {
	return l.name
}

// Pattern returns the effective pattern, prefix included
func (l *Layer) Pattern() string {
	return l.pattern.raw
}

// OriginalPattern returns the pattern as declared
func (l *Layer) OriginalPattern() string {
	return l.originalPattern
}

// Methods returns the accepted verbs, empty when all are accepted
func (l *Layer) Methods() []string {
	return l.methods
}

// Keys returns the capture names of the pattern
func (l *Layer) Keys() []string {
	return l.pattern.keys
}

// Match tests a request against the layer. It returns nil when the path
// does not match, and a Match with OK false when the path matches but the
// verb is not accepted.
func (l *Layer) Match(path, method string) (*Match, error) {
	l.logger.Debug("test pattern", zap.String("pattern", l.pattern.raw), zap.String("path", path))

	params := make(map[string]string, len(l.defaults)+len(l.pattern.keys))
	for k, v := range l.defaults {
		params[k] = v
	}
	ok := l.accepts(method)

	switch l.pattern.raw {
	case "/":
		return &Match{Params: params, Path: "", OK: ok}, nil
	case "*":
		v, err := decodeParam("0", path)
		if err != nil {
			return nil, err
		}
		if err := l.validate("0", v); err != nil {
			return nil, err
		}
		params["0"] = v
		return &Match{Params: params, Path: path, OK: ok}, nil
	}

	captures, matched, found := l.pattern.Match(path)
	if !found {
		return nil, nil
	}

	for _, tok := range l.pattern.tokens {
		if tok.Kind == LiteralToken {
			continue
		}
		raw, captured := captures[tok.Name]
		if !captured {
			continue
		}
		v, err := decodeParam(tok.Name, raw)
		if err != nil {
			return nil, err
		}
		if err := l.validate(tok.Name, v); err != nil {
			return nil, err
		}
		params[tok.Name] = v
	}

	return &Match{Params: params, Path: matched, OK: ok}, nil
}

// validate checks a decoded capture, named or wildcard, against its requirement
func (l *Layer) validate(name, value string) error {
	if req, has := l.requirements[name]; has && !req.Validate(value) {
		return &ParamValidationError{Param: name, Value: value}
	}
	return nil
}

func (l *Layer) accepts(method string) bool {
	if len(l.methods) == 0 {
		return true
	}
	for _, m := range l.methods {
		if m == method {
			return true
		}
	}
	return false
}

// Handler returns the layer as a handler for a router stack. A request whose
// path does not match continues down the chain. A matching path records the
// layer for allowed-method handling; when the verb is accepted too, the
// params are set and the layer's own chain runs before next.
func (l *Layer) Handler() HandlerFunc {
	chain := Compose(l.handlers...)
	return func(c *Context, next Next) error {
		if c.Params == nil {
			c.Params = make(map[string]string)
		}
		m, err := l.Match(c.Path, c.Method)
		if err != nil {
			return err
		}
		if m == nil {
			return next()
		}
		c.recordAllowed(l)
		if !m.OK {
			return next()
		}
		c.Params = m.Params
		c.Route = l
		return chain(c, next)
	}
}

// URL builds a path for the route.
//
// params is either a sequence, whose elements fill the parameters in
// template order, or a map whose entries override the defaults. query may be
// url.Values, map[string]string, map[string]any or an encoded string. hash
// is appended after '#' when not empty.
func (l *Layer) URL(params any, query any, hash string) (string, error) {
	values := make(map[string]string, len(l.defaults))
	for k, v := range l.defaults {
		values[k] = v
	}

	if params != nil {
		rv := reflect.ValueOf(params)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			keys := l.pattern.keys
			for i := 0; i < rv.Len() && i < len(keys); i++ {
				values[keys[i]] = fmt.Sprint(rv.Index(i).Interface())
			}
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return "", fmt.Errorf("url params must be keyed by string, got %T", params)
			}
			iter := rv.MapRange()
			for iter.Next() {
				values[iter.Key().String()] = fmt.Sprint(iter.Value().Interface())
			}
		default:
			return "", fmt.Errorf("url params must be a sequence or a map, got %T", params)
		}
	}

	path, err := l.pattern.Render(values)
	if err != nil {
		return "", err
	}

	if query != nil {
		encoded, err := encodeQuery(query)
		if err != nil {
			return "", err
		}
		if encoded != "" {
			path += "?" + encoded
		}
	}
	if hash != "" {
		path += "#" + hash
	}
	return path, nil
}

func encodeQuery(query any) (string, error) {
	switch q := query.(type) {
	case string:
		return strings.TrimPrefix(q, "?"), nil
	case url.Values:
		return q.Encode(), nil
	case map[string][]string:
		return url.Values(q).Encode(), nil
	case map[string]string:
		values := make(url.Values, len(q))
		for k, v := range q {
			values.Set(k, v)
		}
		return values.Encode(), nil
	case map[string]any:
		values := make(url.Values, len(q))
		for k, v := range q {
			rv := reflect.ValueOf(v)
			if v != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
				for i := 0; i < rv.Len(); i++ {
					values.Add(k, fmt.Sprint(rv.Index(i).Interface()))
				}
				continue
			}
			values.Set(k, fmt.Sprint(v))
		}
		return values.Encode(), nil
	}
	return "", fmt.Errorf("unsupported query type %T", query)
}

func decodeParam(name, raw string) (string, error) {
	if raw == "" {
		return raw, nil
	}
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", &ParamDecodeError{Param: name, Value: raw, Err: err}
	}
	return v, nil
}

func normalizeMethods(methods []string) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, strings.ToUpper(m))
	}
	return out
}
