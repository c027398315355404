package binder

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/toyz/annoroute/internal/annotations"
	rterrors "github.com/toyz/annoroute/internal/errors"
	"github.com/toyz/annoroute/internal/metadata"
	"github.com/toyz/annoroute/pkg/router"
)

// Annotation names understood by the binder
const (
	MountAnnotation      = "mount"
	RouteAnnotation      = "route"
	AllAnnotation        = "all"
	MiddlewareAnnotation = "middleware"
)

// ErrNoDefinition is returned when planning a record that has no type definition
var ErrNoDefinition = errors.New("metadata has no definition")

// ControllerPlan is the set of routes one annotated definition declares
type ControllerPlan struct {
	Name       string
	File       string
	Line       int
	Mount      string   // "/" unless @mount says otherwise
	Middleware []string // controller-wide middleware names
	Routes     []RoutePlan
	Skipped    []SkippedRoute
}

// Nested reports whether the controller's routes live on their own router
func (p *ControllerPlan) Nested() bool {
	return p.Mount != "/" && p.Mount != "*"
}

// RoutePlan is a single route derived from a method annotation
type RoutePlan struct {
	Handler      string   // method name on the controller
	Annotation   string   // annotation that declared the route
	Methods      []string // upper-case verbs; nil means every verb the router implements
	Path         string
	Name         string
	Defaults     map[string]any
	Requirements map[string]any // requirement values as written in the annotation
	Middleware   []string       // controller middleware followed by method middleware
	Location     rterrors.SourceLocation
}

// SkippedRoute is a route annotation that declared no path
type SkippedRoute struct {
	Handler    string
	Annotation string
	Location   rterrors.SourceLocation
}

// Plan derives the routes of a record, treating the default HTTP verbs as
// route annotations
func Plan(md metadata.Metadata) (*ControllerPlan, error) {
	return PlanFor(md, router.DefaultMethods)
}

// PlanFor derives the routes of a record. Any annotation named after one of
// verbs (case-insensitively) declares a single-verb route.
func PlanFor(md metadata.Metadata, verbs []string) (*ControllerPlan, error) {
	def := md.Definition
	if def == nil {
		return nil, ErrNoDefinition
	}

	plan := &ControllerPlan{
		Name:  def.Name,
		File:  md.File,
		Line:  def.Line,
		Mount: "/",
	}

	mounts := annotations.Find(def.Annotations, MountAnnotation)
	if len(mounts) > 1 {
		return nil, bindError(def.Name, "", mounts[1].Location, ErrMountDefinedTwice)
	}
	if len(mounts) == 1 {
		mount, ok := mounts[0].Params.String(annotations.ValueKey)
		if !ok {
			return nil, bindError(def.Name, "", mounts[0].Location, ErrBadMountValue)
		}
		plan.Mount = normalizePath(mount)
	}

	middleware, err := middlewareNames(def.Annotations)
	if err != nil {
		return nil, bindError(def.Name, "", rterrors.SourceLocation{File: md.File, Line: def.Line}, err)
	}
	plan.Middleware = middleware

	for _, m := range md.Methods {
		if m.Receiver != "" && m.Receiver != def.Name {
			err := fmt.Errorf("%w: %s is declared on %s, not %s", ErrBadHandler, m.Name, m.Receiver, def.Name)
			return nil, bindError(def.Name, m.Name, rterrors.SourceLocation{File: md.File, Line: m.Line}, err)
		}
		if err := plan.addMethod(m, md.File, verbs); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

func (p *ControllerPlan) addMethod(m metadata.Method, file string, verbs []string) error {
	methodMiddleware, err := middlewareNames(m.Annotations)
	if err != nil {
		return bindError(p.Name, m.Name, rterrors.SourceLocation{File: file, Line: m.Line}, err)
	}
	middleware := append(append([]string(nil), p.Middleware...), methodMiddleware...)

	for _, a := range m.Annotations {
		name := strings.ToLower(a.Name)
		if name != RouteAnnotation && name != AllAnnotation && !isVerb(name, verbs) {
			continue
		}

		value, ok := a.Params.Value()
		if !ok || value == nil || value == "" {
			p.Skipped = append(p.Skipped, SkippedRoute{Handler: m.Name, Annotation: a.Name, Location: a.Location})
			continue
		}
		path, ok := value.(string)
		if !ok {
			err := fmt.Errorf("%w: path must be a string, got %T", ErrBadRouteOption, value)
			return bindError(p.Name, m.Name, a.Location, err)
		}

		var methods []string
		switch name {
		case RouteAnnotation:
			list, ok := a.Params.StringSlice("methods")
			if !ok {
				return bindError(p.Name, m.Name, a.Location, ErrMissingRouteMethods)
			}
			for _, verb := range list {
				methods = append(methods, strings.ToUpper(verb))
			}
		case AllAnnotation:
		default:
			methods = []string{strings.ToUpper(name)}
		}

		route := RoutePlan{
			Handler:    m.Name,
			Annotation: a.Name,
			Methods:    methods,
			Path:       normalizePath(path),
			Middleware: middleware,
			Location:   a.Location,
		}
		if err := route.readOptions(a.Params); err != nil {
			return bindError(p.Name, m.Name, a.Location, err)
		}
		if _, err := route.Options(); err != nil {
			return bindError(p.Name, m.Name, a.Location, err)
		}
		p.Routes = append(p.Routes, route)
	}
	return nil
}

func (rp *RoutePlan) readOptions(params annotations.Params) error {
	if params.Has("name") {
		name, ok := params.String("name")
		if !ok {
			return fmt.Errorf("%w: name must be a string", ErrBadRouteOption)
		}
		rp.Name = name
	}
	if params.Has("defaults") {
		defaults, ok := params.Map("defaults")
		if !ok {
			return fmt.Errorf("%w: defaults must be an object", ErrBadRouteOption)
		}
		rp.Defaults = defaults
	}
	if params.Has("requirements") {
		requirements, ok := params.Map("requirements")
		if !ok {
			return fmt.Errorf("%w: requirements must be an object", ErrBadRouteOption)
		}
		rp.Requirements = requirements
	}
	return nil
}

// Options converts the plan into router options. Requirement calls become
// router requirements: @uuid, @int and @regexp('pattern').
func (rp RoutePlan) Options() (router.RouteOptions, error) {
	opts := router.RouteOptions{Name: rp.Name, Defaults: rp.Defaults}
	if len(rp.Requirements) == 0 {
		return opts, nil
	}

	opts.Requirements = make(map[string]any, len(rp.Requirements))
	for param, raw := range rp.Requirements {
		req, err := requirementOf(raw)
		if err != nil {
			return router.RouteOptions{}, fmt.Errorf("requirement for '%s': %w", param, err)
		}
		opts.Requirements[param] = req
	}
	return opts, nil
}

func requirementOf(raw any) (router.Requirement, error) {
	call, ok := raw.(annotations.Call)
	if !ok {
		return router.RequirementFrom(raw)
	}

	switch strings.ToLower(call.Name) {
	case "uuid":
		return router.UUID(), nil
	case "int":
		return router.Int(), nil
	case "regexp", "regex":
		expr, ok := call.Params.String(annotations.ValueKey)
		if !ok {
			return nil, fmt.Errorf("%w: @%s requires a pattern string", ErrBadRouteOption, call.Name)
		}
		re, err := regexp.Compile(`^(?:` + expr + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRouteOption, err)
		}
		return router.Matches(re), nil
	}
	return nil, fmt.Errorf("%w: @%s", ErrUnknownRequirement, call.Name)
}

// middlewareNames collects the names listed by @middleware annotations.
// Annotations without a value and empty names are ignored.
func middlewareNames(list []annotations.Annotation) ([]string, error) {
	var names []string
	for _, a := range annotations.Find(list, MiddlewareAnnotation) {
		value, ok := a.Params.Value()
		if !ok {
			continue
		}
		switch v := value.(type) {
		case nil:
		case string:
			if v != "" {
				names = append(names, v)
			}
		case []any:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: middleware names must be strings", ErrBadRouteOption)
				}
				if s != "" {
					names = append(names, s)
				}
			}
		default:
			return nil, fmt.Errorf("%w: middleware names must be strings", ErrBadRouteOption)
		}
	}
	return names, nil
}

func isVerb(name string, verbs []string) bool {
	for _, verb := range verbs {
		if strings.EqualFold(name, verb) {
			return true
		}
	}
	return false
}

// normalizePath prefixes p with "/" unless it already has one or is a bare wildcard
func normalizePath(p string) string {
	if p == "*" || strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

func bindError(controller, method string, loc rterrors.SourceLocation, cause error) error {
	return rterrors.NewBindError(controller, method, cause).WithLocation(loc)
}
