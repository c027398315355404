package cli

import (
	"errors"

	rterrors "github.com/toyz/annoroute/internal/errors"
	"github.com/toyz/annoroute/internal/metadata"
	"github.com/toyz/annoroute/internal/utils"
	"github.com/toyz/annoroute/pkg/binder"
)

// ScanResult is what a scan found across all files
type ScanResult struct {
	Files       []string
	Controllers []*binder.ControllerPlan
	Errors      *rterrors.MultipleErrors
}

// RouteCount returns the number of routes across all controllers
func (r *ScanResult) RouteCount() int {
	n := 0
	for _, c := range r.Controllers {
		n += len(c.Routes)
	}
	return n
}

// SourceScanner extracts and plans every annotated definition under a set of
// scan patterns without binding anything
type SourceScanner struct {
	processor   *utils.FileProcessor
	reader      *utils.FileReader
	methods     []string
	diagnostics *utils.DiagnosticSystem
}

// NewSourceScanner creates a scanner for the configured extensions and verbs
func NewSourceScanner(cfg *Config, reader *utils.FileReader, diagnostics *utils.DiagnosticSystem) *SourceScanner {
	if reader == nil {
		reader = utils.NewFileReader()
	}
	if diagnostics == nil {
		diagnostics = cfg.Diagnostics()
	}
	return &SourceScanner{
		processor:   utils.NewFileProcessor(cfg.Extensions...),
		reader:      reader,
		methods:     cfg.Methods,
		diagnostics: diagnostics,
	}
}

// Scan reads every matching file. Annotation and binding problems are
// collected in the result; only file system failures abort the scan.
func (s *SourceScanner) Scan(patterns []string) (*ScanResult, error) {
	files, err := s.processor.CollectSourceFiles(patterns)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Files:  files,
		Errors: rterrors.NewMultipleErrors(),
	}

	for _, file := range files {
		source, err := s.reader.ReadFile(file)
		if err != nil {
			return nil, rterrors.WrapFileSystemError("read", file, err)
		}

		records, err := metadata.Extract(file, source)
		if err != nil {
			result.Errors.Add(asRouteError(file, err))
			continue
		}
		s.diagnostics.Debug("%s: %d annotated definition(s)", file, len(records))

		for _, md := range records {
			plan, err := binder.PlanFor(md, s.methods)
			if errors.Is(err, binder.ErrNoDefinition) {
				continue
			}
			if err != nil {
				result.Errors.Add(asRouteError(file, err))
				continue
			}
			if len(plan.Routes) == 0 && len(plan.Skipped) == 0 {
				continue
			}
			for _, skipped := range plan.Skipped {
				s.diagnostics.Verbose("%s: %s.%s declares @%s without a path, skipped",
					skipped.Location, plan.Name, skipped.Handler, skipped.Annotation)
			}
			result.Controllers = append(result.Controllers, plan)
		}
	}

	return result, nil
}

// Invalidate drops cached file contents so the next scan rereads them
func (s *SourceScanner) Invalidate(files ...string) {
	if len(files) == 0 {
		s.reader.ClearCache()
		return
	}
	for _, file := range files {
		s.reader.InvalidateFile(file)
	}
}

func asRouteError(file string, err error) rterrors.RouteError {
	var routeErr rterrors.RouteError
	if errors.As(err, &routeErr) {
		return routeErr
	}
	return rterrors.WrapExtractError(file, err).WithLocation(rterrors.SourceLocation{File: file})
}
