// Package binder turns annotated source into routes. It reads route
// annotations from comments, plans the routes each controller declares and
// registers them on a router.Router, resolving handlers on controller
// instances built by registered factories.
//
//	b := binder.New(binder.WithLogger(logger))
//	b.Register("UserController", NewUserController)
//	b.RegisterMiddleware("auth", requireUser)
//
//	r := router.New("/")
//	if err := b.BindDir(r, "./internal/controllers/..."); err != nil {
//		log.Fatal(err)
//	}
package binder

import (
	"fmt"
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	rterrors "github.com/toyz/annoroute/internal/errors"
	"github.com/toyz/annoroute/internal/metadata"
	"github.com/toyz/annoroute/internal/utils"
	"github.com/toyz/annoroute/pkg/router"
)

// Option configures a Binder
type Option func(*Binder)

// WithLogger sets the logger used for registration traces
func WithLogger(logger *zap.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithExtensions sets the source file extensions scanned by BindDir
func WithExtensions(extensions ...string) Option {
	return func(b *Binder) {
		b.extensions = extensions
	}
}

// Binder registers annotated controllers on routers
type Binder struct {
	mu         sync.RWMutex
	factories  map[string]reflect.Value
	middleware map[string]router.HandlerFunc
	extensions []string
	reader     *utils.FileReader
	logger     *zap.Logger
}

// New creates a Binder
func New(opts ...Option) *Binder {
	b := &Binder{
		factories:  make(map[string]reflect.Value),
		middleware: make(map[string]router.HandlerFunc),
		extensions: utils.DefaultExtensions,
		reader:     utils.NewFileReader(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Register associates a definition name with the factory that builds its
// controller. The factory is a func() T or func() (T, error).
func (b *Binder) Register(name string, factory any) error {
	fn := reflect.ValueOf(factory)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("%w: %s got %T", ErrBadFactory, name, factory)
	}
	t := fn.Type()
	if t.NumIn() != 0 || t.NumOut() < 1 || t.NumOut() > 2 {
		return fmt.Errorf("%w: %s got %s", ErrBadFactory, name, t)
	}
	if t.NumOut() == 2 && !t.Out(1).Implements(errorType) {
		return fmt.Errorf("%w: %s got %s", ErrBadFactory, name, t)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.factories[name] = fn
	return nil
}

// RegisterMiddleware makes a handler available to @middleware('name')
func (b *Binder) RegisterMiddleware(name string, handler router.HandlerFunc) error {
	if handler == nil {
		return fmt.Errorf("middleware %q: handler is nil", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.middleware[name] = handler
	return nil
}

// Bind registers the routes of one record on r. Records without a
// definition, without routes or without a registered controller are skipped.
func (b *Binder) Bind(r *router.Router, md metadata.Metadata) error {
	if md.Definition == nil {
		b.logger.Debug("skip record without definition", zap.String("file", md.File))
		return nil
	}

	plan, err := PlanFor(md, r.Methods())
	if err != nil {
		return err
	}
	for _, skipped := range plan.Skipped {
		b.logger.Debug("skip route without path",
			zap.String("controller", plan.Name),
			zap.String("handler", skipped.Handler),
			zap.String("annotation", skipped.Annotation),
			zap.Stringer("location", skipped.Location),
		)
	}
	if len(plan.Routes) == 0 {
		b.logger.Debug("skip controller without routes", zap.String("controller", plan.Name))
		return nil
	}

	b.mu.RLock()
	factory, ok := b.factories[plan.Name]
	b.mu.RUnlock()
	if !ok {
		b.logger.Warn("controller not registered", zap.String("controller", plan.Name), zap.String("file", plan.File))
		return nil
	}

	controller, err := instantiate(factory)
	if err != nil {
		return bindError(plan.Name, "", locationOf(plan), err)
	}

	return b.bindPlan(r, plan, controller)
}

func (b *Binder) bindPlan(r *router.Router, plan *ControllerPlan, controller any) error {
	target := r
	if plan.Nested() {
		target = r.Child(plan.Mount)
	}

	for _, route := range plan.Routes {
		handlers, err := b.handlersFor(route, controller)
		if err != nil {
			return bindError(plan.Name, route.Handler, route.Location, err)
		}
		opts, err := route.Options()
		if err != nil {
			return bindError(plan.Name, route.Handler, route.Location, err)
		}

		methods := route.Methods
		if methods == nil {
			methods = target.Methods()
		}
		layer, err := target.Route(methods, route.Path, handlers, opts)
		if err != nil {
			return bindError(plan.Name, route.Handler, route.Location, err)
		}

		b.logger.Debug("bound route",
			zap.String("controller", plan.Name),
			zap.String("handler", route.Handler),
			zap.Strings("methods", layer.Methods()),
			zap.String("pattern", layer.Pattern()),
			zap.String("name", layer.Name()),
		)
	}

	if plan.Nested() {
		if err := r.Use(target); err != nil {
			return bindError(plan.Name, "", locationOf(plan), err)
		}
	}
	return nil
}

func (b *Binder) handlersFor(route RoutePlan, controller any) ([]router.HandlerFunc, error) {
	handlers := make([]router.HandlerFunc, 0, len(route.Middleware)+1)

	b.mu.RLock()
	for _, name := range route.Middleware {
		mw, ok := b.middleware[name]
		if !ok {
			b.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrUnknownMiddleware, name)
		}
		handlers = append(handlers, mw)
	}
	b.mu.RUnlock()

	handler, err := resolveHandler(controller, route.Handler)
	if err != nil {
		return nil, err
	}
	return append(handlers, handler), nil
}

func instantiate(factory reflect.Value) (any, error) {
	out := factory.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	controller := out[0]
	if !controller.IsValid() || (isNilable(controller.Kind()) && controller.IsNil()) {
		return nil, fmt.Errorf("%w: factory returned nil", ErrBadFactory)
	}
	return controller.Interface(), nil
}

func isNilable(kind reflect.Kind) bool {
	switch kind {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// resolveHandler finds a handler method on the controller. Names that are not
// exported, as in JavaScript-style sources, are looked up with an upper-case
// first letter.
func resolveHandler(controller any, name string) (router.HandlerFunc, error) {
	v := reflect.ValueOf(controller)
	method := v.MethodByName(name)
	if !method.IsValid() {
		method = v.MethodByName(exported(name))
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %T has no method %s", ErrBadHandler, controller, name)
	}

	switch fn := method.Interface().(type) {
	case func(*router.Context, router.Next) error:
		return fn, nil
	case func(*router.Context) error:
		return func(c *router.Context, _ router.Next) error {
			return fn(c)
		}, nil
	}
	return nil, fmt.Errorf("%w: %T.%s has signature %s, want func(*router.Context, router.Next) error or func(*router.Context) error",
		ErrBadHandler, controller, name, method.Type())
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func locationOf(plan *ControllerPlan) rterrors.SourceLocation {
	return rterrors.SourceLocation{File: plan.File, Line: plan.Line}
}
