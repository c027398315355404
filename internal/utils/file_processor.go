package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RecursiveSuffix marks a scan pattern that includes every subdirectory, as in "./..."
const RecursiveSuffix = "/..."

// DefaultExtensions are the source extensions scanned when none are configured
var DefaultExtensions = []string{".go"}

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// FileWalkOptions configures file walking behavior
type FileWalkOptions struct {
	FileFilter      FileFilter
	DirectoryFilter DirectoryFilter
	Recursive       bool
	SkipErrors      bool
}

// SourceFileFilter accepts files with one of the given extensions, excluding
// Go test files
func SourceFileFilter(extensions []string) FileFilter {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		name := info.Name()
		if strings.HasSuffix(name, "_test.go") {
			return false
		}
		for _, ext := range extensions {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
		return false
	}
}

// DefaultDirectoryFilter skips common directories that shouldn't contain source code
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
		"dist":         true,
	}

	return func(path string, info os.DirEntry) bool {
		name := info.Name()
		if strings.HasPrefix(name, ".") && name != "." && name != ".." {
			return false
		}
		if strings.HasPrefix(name, "_") {
			return false
		}
		return !skipDirs[name]
	}
}

// FileProcessor finds the source files a scan pattern refers to
type FileProcessor struct {
	extensions []string
}

// NewFileProcessor creates a processor for the given source extensions
func NewFileProcessor(extensions ...string) *FileProcessor {
	return &FileProcessor{extensions: extensions}
}

// WalkFiles returns the files under rootDir accepted by the options' filters.
// Subdirectories are only entered when Recursive is set.
func (fp *FileProcessor) WalkFiles(rootDir string, options FileWalkOptions) ([]string, error) {
	var matched []string

	err := filepath.WalkDir(rootDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if options.SkipErrors {
				return nil
			}
			return err
		}

		if entry.IsDir() {
			if path == rootDir {
				return nil
			}
			if !options.Recursive {
				return filepath.SkipDir
			}
			if options.DirectoryFilter != nil && !options.DirectoryFilter(path, entry) {
				return filepath.SkipDir
			}
			return nil
		}

		if options.FileFilter == nil || options.FileFilter(path, entry) {
			matched = append(matched, path)
		}
		return nil
	})

	return matched, err
}

// CollectSourceFiles expands scan patterns into a sorted, de-duplicated list
// of source files. A pattern is a file, a directory, or a directory followed
// by "/..." to include its subdirectories.
func (fp *FileProcessor) CollectSourceFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		root, recursive := SplitPattern(pattern)

		info, err := os.Stat(root)
		if err != nil {
			return nil, WrapProcessError(pattern, err)
		}

		var found []string
		if info.IsDir() {
			found, err = fp.WalkFiles(root, FileWalkOptions{
				FileFilter:      SourceFileFilter(fp.extensions),
				DirectoryFilter: DefaultDirectoryFilter(),
				Recursive:       recursive,
			})
			if err != nil {
				return nil, WrapProcessError(pattern, err)
			}
		} else {
			found = []string{root}
		}

		for _, file := range found {
			clean := filepath.Clean(file)
			if seen[clean] {
				continue
			}
			seen[clean] = true
			files = append(files, clean)
		}
	}

	sort.Strings(files)
	return files, nil
}

// SplitPattern strips a trailing "/..." from a scan pattern and reports
// whether it was present
func SplitPattern(pattern string) (string, bool) {
	if pattern == "..." {
		return ".", true
	}
	if strings.HasSuffix(pattern, RecursiveSuffix) {
		root := strings.TrimSuffix(pattern, RecursiveSuffix)
		if root == "" {
			root = "/"
		}
		return root, true
	}
	if pattern == "" {
		return ".", false
	}
	return pattern, false
}
