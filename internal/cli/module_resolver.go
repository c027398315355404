package cli

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/toyz/annoroute/internal/utils"
)

// ModuleResolver resolves Go module information for scanned sources
type ModuleResolver struct {
	parser *utils.GoModParser
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver(reader *utils.FileReader) *ModuleResolver {
	return &ModuleResolver{
		parser: utils.NewGoModParser(reader),
	}
}

// ResolveModuleName returns customModule when set, otherwise the module
// declared by the go.mod enclosing dir
func (r *ModuleResolver) ResolveModuleName(customModule, dir string) (string, error) {
	if customModule != "" {
		return customModule, nil
	}

	mod, err := r.parser.Find(dir)
	if err != nil {
		return "", fmt.Errorf("failed to determine module name: %w (consider using --module flag)", err)
	}
	return mod.Path, nil
}

// PackagePath returns the import path of the package holding file, given the
// module it belongs to and the directory of that module's go.mod
func (r *ModuleResolver) PackagePath(moduleName, moduleRoot, file string) (string, error) {
	absRoot, err := filepath.Abs(moduleRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve module root: %w", err)
	}
	absDir, err := filepath.Abs(filepath.Dir(file))
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside module root %s", file, moduleRoot)
	}
	if rel == "." {
		return moduleName, nil
	}
	return path.Join(moduleName, rel), nil
}

// ModuleRoot returns the directory of the go.mod enclosing dir
func (r *ModuleResolver) ModuleRoot(dir string) (string, error) {
	mod, err := r.parser.Find(dir)
	if err != nil {
		return "", err
	}
	return mod.Dir, nil
}
