package binder

import (
	"io/fs"

	"go.uber.org/zap"

	"github.com/toyz/annoroute/internal/metadata"
	"github.com/toyz/annoroute/internal/utils"
	"github.com/toyz/annoroute/pkg/router"
)

// Load extracts metadata from every source file the patterns name. A pattern
// is a file, a directory, or a directory ending in "/..." to include its
// subdirectories; no patterns means the current directory.
func (b *Binder) Load(patterns ...string) ([]metadata.Metadata, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	files, err := utils.NewFileProcessor(b.extensions...).CollectSourceFiles(patterns)
	if err != nil {
		return nil, err
	}

	var records []metadata.Metadata
	for _, file := range files {
		source, err := b.reader.ReadFile(file)
		if err != nil {
			return nil, err
		}
		found, err := metadata.Extract(file, source)
		if err != nil {
			return nil, err
		}
		b.logger.Debug("scanned file", zap.String("file", file), zap.Int("records", len(found)))
		records = append(records, found...)
	}
	return records, nil
}

// BindSource extracts the records in one source text and binds them on r
func (b *Binder) BindSource(r *router.Router, filename, source string) error {
	records, err := metadata.Extract(filename, source)
	if err != nil {
		return err
	}
	return b.bindAll(r, records)
}

// BindDir loads the source files the patterns name and binds every record on r
func (b *Binder) BindDir(r *router.Router, patterns ...string) error {
	records, err := b.Load(patterns...)
	if err != nil {
		return err
	}
	return b.bindAll(r, records)
}

// BindFS binds every source file in fsys, such as an embed.FS holding the
// controller sources of a binary
func (b *Binder) BindFS(r *router.Router, fsys fs.FS) error {
	accept := utils.SourceFileFilter(b.extensions)

	var records []metadata.Metadata
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !accept(path, d) {
			return nil
		}
		source, err := fs.ReadFile(fsys, path)
		if err != nil {
			return utils.WrapReadError(path, err)
		}
		found, err := metadata.Extract(path, string(source))
		if err != nil {
			return err
		}
		records = append(records, found...)
		return nil
	})
	if err != nil {
		return err
	}
	return b.bindAll(r, records)
}

func (b *Binder) bindAll(r *router.Router, records []metadata.Metadata) error {
	for _, md := range records {
		if err := b.Bind(r, md); err != nil {
			return err
		}
	}
	return nil
}
