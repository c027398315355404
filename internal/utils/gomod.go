package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ErrNoGoMod is returned when no go.mod encloses a directory
var ErrNoGoMod = errors.New("go.mod file not found")

// GoModule is a module found on disk
type GoModule struct {
	Path string // module path declared in go.mod
	Dir  string // directory holding go.mod
}

// GoModParser locates and reads go.mod files through a FileReader
type GoModParser struct {
	reader *FileReader
}

// NewGoModParser creates a parser. A nil reader gets a fresh one.
func NewGoModParser(reader *FileReader) *GoModParser {
	if reader == nil {
		reader = NewFileReader()
	}
	return &GoModParser{reader: reader}
}

// ParseModuleName returns the module path declared by the go.mod at goModPath
func (p *GoModParser) ParseModuleName(goModPath string) (string, error) {
	goModPath = filepath.Clean(goModPath)
	if filepath.Base(goModPath) != "go.mod" {
		return "", fmt.Errorf("not a go.mod file: %s", goModPath)
	}

	content, err := p.reader.ReadFile(goModPath)
	if err != nil {
		return "", err
	}
	path := modfile.ModulePath([]byte(content))
	if path == "" {
		if _, perr := modfile.ParseLax(goModPath, []byte(content), nil); perr != nil {
			return "", WrapParseError(goModPath, perr)
		}
		return "", fmt.Errorf("%s: no module declaration", goModPath)
	}
	return path, nil
}

// Find walks up from startDir to the nearest go.mod and parses it
func (p *GoModParser) Find(startDir string) (*GoModule, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		candidate := filepath.Join(dir, "go.mod")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			path, err := p.ParseModuleName(candidate)
			if err != nil {
				return nil, err
			}
			return &GoModule{Path: path, Dir: dir}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w above %s", ErrNoGoMod, startDir)
		}
		dir = parent
	}
}
