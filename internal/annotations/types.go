package annotations

import (
	"github.com/toyz/annoroute/internal/errors"
)

// SourceLocation is the position of an annotation in its source file
type SourceLocation = errors.SourceLocation

// ValueKey is the parameter name given to the leading positional argument
const ValueKey = "value"

// Annotation is a single @name(...) marker found in a comment block
type Annotation struct {
	Name      string         // annotation name, e.g. "get"
	Raw       string         // parameter text between the outer parentheses
	HasParams bool           // true when the annotation was written with parentheses
	Params    Params         // evaluated parameters
	Position  int            // ordinal position within the comment block
	Location  SourceLocation // file and line of the '@'
}

// Call is a nested @name(...) value appearing inside another annotation's parameters
type Call struct {
	Name   string
	Params Params
}

// Params holds the evaluated parameters of an annotation
type Params map[string]any

// Has reports whether the parameter was given
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Value returns the positional parameter
func (p Params) Value() (any, bool) {
	v, ok := p[ValueKey]
	return v, ok
}

// String returns a string parameter
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetString returns a string parameter or the default value
func (p Params) GetString(key string, defaultValue string) string {
	if s, ok := p.String(key); ok {
		return s
	}
	return defaultValue
}

// Slice returns an array parameter
func (p Params) Slice(key string) ([]any, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	s, ok := v.([]any)
	return s, ok
}

// StringSlice returns an array parameter whose elements are all strings
func (p Params) StringSlice(key string) ([]string, bool) {
	items, ok := p.Slice(key)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Map returns an object parameter
func (p Params) Map(key string) (map[string]any, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Find returns every annotation with the given name, in source order
func Find(list []Annotation, name string) []Annotation {
	var found []Annotation
	for _, a := range list {
		if a.Name == name {
			found = append(found, a)
		}
	}
	return found
}
