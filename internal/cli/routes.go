package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/toyz/annoroute/pkg/binder"
)

// AllMethods is shown for routes declared with @all
const AllMethods = "ALL"

// RouteEntry is one row of the route listing
type RouteEntry struct {
	Methods    []string `json:"methods" yaml:"methods"`
	Path       string   `json:"path" yaml:"path"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Controller string   `json:"controller" yaml:"controller"`
	Handler    string   `json:"handler" yaml:"handler"`
	Middleware []string `json:"middleware,omitempty" yaml:"middleware,omitempty"`
	Package    string   `json:"package,omitempty" yaml:"package,omitempty"`
	Location   string   `json:"location" yaml:"location"`
}

// BuildRouteEntries flattens controller plans into route rows. packageOf maps
// a source file to its import path and may be nil.
func BuildRouteEntries(plans []*binder.ControllerPlan, packageOf func(file string) string) []RouteEntry {
	var entries []RouteEntry
	for _, plan := range plans {
		pkg := ""
		if packageOf != nil {
			pkg = packageOf(plan.File)
		}
		for _, route := range plan.Routes {
			methods := route.Methods
			if methods == nil {
				methods = []string{AllMethods}
			}
			entries = append(entries, RouteEntry{
				Methods:    methods,
				Path:       MountedPath(plan, route.Path),
				Name:       route.Name,
				Controller: plan.Name,
				Handler:    route.Handler,
				Middleware: route.Middleware,
				Package:    pkg,
				Location:   route.Location.String(),
			})
		}
	}
	return entries
}

// MountedPath returns the route path as the router sees it under the
// controller's mount point
func MountedPath(plan *binder.ControllerPlan, routePath string) string {
	if !plan.Nested() {
		return routePath
	}
	joined := strings.TrimSuffix(plan.Mount, "/") + routePath
	if len(joined) > 1 {
		joined = strings.TrimSuffix(joined, "/")
	}
	return joined
}

// RenderRoutes writes the entries in the given format
func RenderRoutes(w io.Writer, entries []RouteEntry, format string) error {
	if entries == nil {
		entries = []RouteEntry{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return renderTable(w, entries)
	}
	return fmt.Errorf("unsupported format %q (supported: table, json, yaml)", format)
}

func renderTable(w io.Writer, entries []RouteEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHODS\tPATH\tNAME\tHANDLER\tMIDDLEWARE\tLOCATION")
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = "-"
		}
		middleware := strings.Join(e.Middleware, ",")
		if middleware == "" {
			middleware = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s.%s\t%s\t%s\n",
			strings.Join(e.Methods, ","), e.Path, name, e.Controller, e.Handler, middleware, e.Location)
	}
	return tw.Flush()
}
