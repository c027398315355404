package metadata

import (
	"github.com/toyz/annoroute/internal/annotations"
)

// Definition is an annotated type declaration
type Definition struct {
	Line        int                      // line where the comment block begins
	Name        string                   // declared type name
	Parent      string                   // extended class or underlying type, if any
	Comment     string                   // raw comment text
	Annotations []annotations.Annotation // annotations parsed from the comment
}

// Constructor is the annotated constructor of the current definition
type Constructor struct {
	Line        int
	Owner       string   // name of the enclosing definition
	Args        []string // raw argument list
	Comment     string
	Annotations []annotations.Annotation
}

// Method is an annotated method or function
type Method struct {
	Line        int
	Owner       string // name of the enclosing definition
	Receiver    string // receiver type for Go methods, empty otherwise
	Name        string
	Args        []string
	Comment     string
	Annotations []annotations.Annotation
}

// Property is an annotated assignment
type Property struct {
	Line        int
	Owner       string
	Name        string
	Body        string // initializer expression text
	Comment     string
	Annotations []annotations.Annotation
}

// Metadata groups a definition with the constructor, methods and properties
// that follow it in the source
type Metadata struct {
	File        string
	Definition  *Definition
	Constructor *Constructor
	Methods     []Method
	Properties  []Property
}

// Valid reports whether any part of the record was populated
func (m *Metadata) Valid() bool {
	return m.Definition != nil || m.Constructor != nil || len(m.Methods) > 0 || len(m.Properties) > 0
}

// Name returns the definition name, or an empty string for records without one
func (m *Metadata) Name() string {
	if m.Definition == nil {
		return ""
	}
	return m.Definition.Name
}
