package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	rterrors "github.com/toyz/annoroute/internal/errors"
)

// DiagnosticReporter provides user-friendly error reporting
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a new diagnostic reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		verbose: verbose,
		out:     os.Stderr,
	}
}

// SetOutput redirects the reports
func (r *DiagnosticReporter) SetOutput(out io.Writer) {
	r.out = out
}

// ReportWarning prints a one-line warning
func (r *DiagnosticReporter) ReportWarning(message string) {
	orange := color.New(color.FgYellow, color.Bold)
	orange.Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportErrors reports every error of a collection
func (r *DiagnosticReporter) ReportErrors(errs *rterrors.MultipleErrors) {
	for _, err := range errs.Errors {
		r.ReportError(err)
	}
}

// ReportError reports an error with its location, context and suggestions
// when it carries them
func (r *DiagnosticReporter) ReportError(err error) {
	var routeErr rterrors.RouteError
	if errors.As(err, &routeErr) {
		r.reportRouteError(routeErr)
	} else {
		r.reportBasicError(err)
	}
	fmt.Fprintln(r.out)
}

func (r *DiagnosticReporter) reportRouteError(err rterrors.RouteError) {
	loc := err.Location()
	header := errorTitle(err.ErrorCode())
	if !loc.IsEmpty() {
		header = loc.String() + ": " + header
	}
	color.New(color.FgRed, color.Bold).Fprintln(r.out, header)

	fmt.Fprintf(r.out, "   %s\n", rootMessage(err))

	if ctx := err.Context(); len(ctx) > 0 {
		r.printContext(ctx)
	}
	if hints := err.Suggestions(); len(hints) > 0 {
		r.printSuggestions(hints)
	}
	r.printAdditionalHelp(err)

	if r.verbose {
		r.printErrorChain(err)
	}
}

func (r *DiagnosticReporter) reportBasicError(err error) {
	color.New(color.FgRed, color.Bold).Fprintln(r.out, "Error")
	fmt.Fprintf(r.out, "   %s\n", err.Error())
	if r.verbose {
		r.printErrorChain(err)
	}
}

func errorTitle(code rterrors.ErrorCode) string {
	switch code {
	case rterrors.SyntaxErrorCode:
		return "annotation syntax error"
	case rterrors.ExtractionErrorCode:
		return "metadata extraction error"
	case rterrors.BindingErrorCode:
		return "route binding error"
	case rterrors.ConfigurationErrorCode:
		return "configuration error"
	case rterrors.FileSystemErrorCode:
		return "file system error"
	}
	return "error"
}

// rootMessage returns the message of err without its location prefix
func rootMessage(err rterrors.RouteError) string {
	msg := err.Error()
	if loc := err.Location(); !loc.IsEmpty() {
		msg = strings.TrimPrefix(msg, loc.String()+": ")
	}
	return msg
}

func (r *DiagnosticReporter) printContext(context map[string]interface{}) {
	fmt.Fprintf(r.out, "   Context:\n")

	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(r.out, "     %s: %v\n", formatContextKey(key), context[key])
	}
}

// formatContextKey converts snake_case keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out, "   Suggestions:\n")
	for i, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.out, "     %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out, "        %s\n", line)
			}
		}
	}
}

func (r *DiagnosticReporter) printAdditionalHelp(err rterrors.RouteError) {
	var bindErr *rterrors.BindError
	if errors.As(err, &bindErr) && bindErr.Controller != "" {
		target := bindErr.Controller
		if bindErr.Method != "" {
			target += "." + bindErr.Method
		}
		fmt.Fprintf(r.out, "   Controller: %s\n", target)
	}

	if err.ErrorCode() == rterrors.SyntaxErrorCode {
		fmt.Fprintf(r.out, "   Annotations look like @name('value', key=literal); values are strings,\n")
		fmt.Fprintf(r.out, "   numbers, true/false/null, [arrays], {objects} or nested @calls.\n")
	}
}

func (r *DiagnosticReporter) printErrorChain(err error) {
	fmt.Fprintf(r.out, "   Error chain:\n")
	level := 1
	for err != nil {
		fmt.Fprintf(r.out, "     %d. %s\n", level, err.Error())
		err = errors.Unwrap(err)
		level++
	}
}
