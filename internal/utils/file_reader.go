package utils

import (
	"errors"
	"os"
	"path/filepath"
)

// FileReader reads source files through a SourceCache
type FileReader struct {
	cache *SourceCache
}

// NewFileReader creates a reader with an empty cache
func NewFileReader() *FileReader {
	return &FileReader{cache: NewSourceCache()}
}

// ReadFile returns the contents of filePath, rereading it only after it changes
func (fr *FileReader) ReadFile(filePath string) (string, error) {
	if filePath == "" {
		return "", errors.New("file path cannot be empty")
	}
	path := filepath.Clean(filePath)

	if content, ok := fr.cache.Load(path); ok {
		return content, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", WrapReadError(path, err)
	}

	content := string(raw)
	// a failed stat only costs the next read a cache miss
	_ = fr.cache.Store(path, content)
	return content, nil
}

// InvalidateFile drops filePath from the cache
func (fr *FileReader) InvalidateFile(filePath string) {
	fr.cache.Forget(filepath.Clean(filePath))
}

// ClearCache drops every cached file
func (fr *FileReader) ClearCache() {
	fr.cache.Reset()
}

// CachedFiles reports how many files are cached
func (fr *FileReader) CachedFiles() int {
	return fr.cache.Len()
}
