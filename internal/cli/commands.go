// Package cli implements the annoroute command line: listing the routes
// declared by annotated sources and checking those sources for annotation and
// binding errors.
//
// Configuration comes from flags, ANNOROUTE_* environment variables and an
// optional .annoroute.yml, in that order of precedence:
//
//	dirs: ["./internal/..."]
//	extensions: [".go"]
//	format: table
//	log_level: info
//	watch_delay: 300ms
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toyz/annoroute/internal/utils"
)

// Version is set at build time with -ldflags "-X github.com/toyz/annoroute/internal/cli.Version=v1.2.3"
var Version = "dev"

// ErrCheckFailed is returned by check when any source has errors
var ErrCheckFailed = errors.New("annotation check failed")

type app struct {
	configFile string
	getenv     func(string) string
	v          *viper.Viper
	cfg        *Config
	reader     *utils.FileReader
}

// NewRootCommand builds the annoroute command tree
func NewRootCommand() *cobra.Command {
	a := &app{
		getenv: os.Getenv,
		reader: utils.NewFileReader(),
	}

	root := &cobra.Command{
		Use:   "annoroute",
		Short: "Inspect annotation-declared routes",
		Long: `annoroute reads route annotations from source comments and reports the
route table they declare, or the errors that would stop it from binding.

Scan patterns follow the go tool: ./... scans recursively, ./controllers
scans one directory, a file path scans that file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .annoroute.yml, or ANNOROUTE_CONFIG_FILE)")
	flags.StringP("log-level", "l", "info", "diagnostic level (silent, error, warn, info, verbose, debug)")
	flags.StringSlice("ext", nil, "source file extensions to scan (default .go)")
	flags.StringSlice("methods", nil, "verbs treated as route annotations")
	flags.String("module", "", "module name for package paths (defaults to go.mod)")

	root.AddCommand(a.routesCommand(), a.checkCommand(), versionCommand())
	return root
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	v, err := NewViper(a.configFile, a.getenv)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	bindings := map[string]string{
		"log_level":  "log-level",
		"extensions": "ext",
		"methods":    "methods",
		"module":     "module",
		"format":     "format",
	}
	for key, name := range bindings {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := LoadConfig(v)
	if err != nil {
		return err
	}
	a.v = v
	a.cfg = cfg
	return nil
}

func (a *app) diagnostics(cmd *cobra.Command) *utils.DiagnosticSystem {
	d := a.cfg.Diagnostics()
	d.SetOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	return d
}

func (a *app) patterns(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return a.cfg.Dirs
}

func (a *app) routesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes [patterns...]",
		Short: "List the routes declared by annotated sources",
		Example: `  annoroute routes ./...
  annoroute routes -o json ./internal/controllers`,
		RunE: a.runRoutes,
	}
	cmd.Flags().StringP("format", "o", FormatTable, "output format (table, json, yaml)")
	return cmd
}

func (a *app) runRoutes(cmd *cobra.Command, args []string) error {
	diagnostics := a.diagnostics(cmd)
	scanner := NewSourceScanner(a.cfg, a.reader, diagnostics)

	result, err := scanner.Scan(a.patterns(args))
	if err != nil {
		return err
	}
	if !result.Errors.IsEmpty() {
		reporter := NewDiagnosticReporter(diagnostics.Level() >= utils.DiagnosticVerbose)
		reporter.SetOutput(cmd.ErrOrStderr())
		reporter.ReportErrors(result.Errors)
		return ErrCheckFailed
	}

	entries := BuildRouteEntries(result.Controllers, a.packageResolver(diagnostics))
	diagnostics.Verbose("%d route(s) in %d file(s)", len(entries), len(result.Files))
	return RenderRoutes(cmd.OutOrStdout(), entries, a.cfg.Format)
}

// packageResolver maps files to import paths. Without a resolvable module
// the package column stays empty.
func (a *app) packageResolver(diagnostics *utils.DiagnosticSystem) func(string) string {
	resolver := NewModuleResolver(a.reader)
	return func(file string) string {
		dir := filepath.Dir(file)
		root, err := resolver.ModuleRoot(dir)
		if err != nil {
			diagnostics.Debug("no module for %s: %v", file, err)
			return ""
		}
		module, err := resolver.ResolveModuleName(a.cfg.Module, root)
		if err != nil {
			diagnostics.Debug("no module for %s: %v", file, err)
			return ""
		}
		pkg, err := resolver.PackagePath(module, root, file)
		if err != nil {
			diagnostics.Debug("no package for %s: %v", file, err)
			return ""
		}
		return pkg
	}
}

func (a *app) checkCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "check [patterns...]",
		Short: "Report annotation and binding errors",
		Example: `  annoroute check ./...
  annoroute check --watch ./internal/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.watch(ctx, cmd, a.patterns(args))
			}
			return a.check(cmd, a.patterns(args), nil)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-check whenever a source file changes")
	return cmd
}

func (a *app) check(cmd *cobra.Command, patterns []string, scanner *SourceScanner) error {
	diagnostics := a.diagnostics(cmd)
	if scanner == nil {
		scanner = NewSourceScanner(a.cfg, a.reader, diagnostics)
	}

	result, err := scanner.Scan(patterns)
	if err != nil {
		return err
	}

	reporter := NewDiagnosticReporter(diagnostics.Level() >= utils.DiagnosticVerbose)
	reporter.SetOutput(cmd.ErrOrStderr())
	reporter.ReportErrors(result.Errors)

	diagnostics.Summary("Check complete", map[string]interface{}{
		"Files scanned": len(result.Files),
		"Controllers":   len(result.Controllers),
		"Routes":        result.RouteCount(),
		"Errors":        result.Errors.Count(),
	})

	if !result.Errors.IsEmpty() {
		return fmt.Errorf("%w: %d error(s)", ErrCheckFailed, result.Errors.Count())
	}
	diagnostics.Success("no annotation errors")
	return nil
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, patterns []string) error {
	diagnostics := a.diagnostics(cmd)
	scanner := NewSourceScanner(a.cfg, a.reader, diagnostics)

	w, err := NewWatcher(a.cfg.WatchDelay, a.cfg.Extensions)
	if err != nil {
		return err
	}
	defer w.Close()
	w.OnError(func(err error) {
		diagnostics.Warn("watch: %v", err)
	})

	for _, pattern := range patterns {
		if err := w.AddPattern(pattern); err != nil {
			return err
		}
		diagnostics.Verbose("watching %s", pattern)
	}

	report := func() {
		if err := a.check(cmd, patterns, scanner); err != nil && !errors.Is(err, ErrCheckFailed) {
			diagnostics.Error("%v", err)
		}
	}
	report()

	diagnostics.Info("watching for changes (Ctrl+C to stop)")
	return w.Run(ctx, func(paths []string) {
		diagnostics.Info("%d file(s) changed", len(paths))
		scanner.Invalidate(paths...)
		report()
	})
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "annoroute %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, ErrCheckFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
