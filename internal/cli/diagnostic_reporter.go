package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/abitest/internal/errors"
)

// DiagnosticReporter renders errors with their location, context and suggestions
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: os.Stderr}
}

// SetOutput redirects the reporter
func (r *DiagnosticReporter) SetOutput(out io.Writer) {
	r.out = out
}

// ReportWarning prints a one-line warning followed by its suggestions
func (r *DiagnosticReporter) ReportWarning(message string, suggestions ...string) {
	warn := color.New(color.FgYellow, color.Bold)
	warn.Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
	for _, s := range suggestions {
		fmt.Fprintf(r.out, "    %s\n", s)
	}
}

// ReportFailures prints every per-method failure of a generation as a warning
func (r *DiagnosticReporter) ReportFailures(failures *errors.MultipleErrors) {
	if failures.IsEmpty() {
		return
	}
	for _, f := range failures.Errors {
		r.ReportWarning(f.Error(), f.Suggestions()...)
	}
}

// ReportError prints err in full. Errors carrying a code are shown with their context.
func (r *DiagnosticReporter) ReportError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(r.out, "\nERROR: Test Generation Failed\n")
	fmt.Fprintf(r.out, "=============================\n\n")

	var multi *errors.MultipleErrors
	var ge errors.GeneratorError
	switch {
	case stderrors.As(err, &multi):
		for i, e := range multi.Errors {
			if i > 0 {
				fmt.Fprintf(r.out, "\n")
			}
			r.reportGeneratorError(e)
		}
	case stderrors.As(err, &ge):
		r.reportGeneratorError(ge)
	default:
		fmt.Fprintf(r.out, "Message: %s\n", err.Error())
	}
	fmt.Fprintf(r.out, "\n")
}

func (r *DiagnosticReporter) reportGeneratorError(ge errors.GeneratorError) {
	title := errorTitle(ge.ErrorCode())
	fmt.Fprintf(r.out, "Type: %s\n", title)
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("-", len(title)+6))

	fmt.Fprintf(r.out, "Message: %s\n\n", ge.Error())

	if loc := ge.Location(); !loc.IsEmpty() {
		fmt.Fprintf(r.out, "Location: %s\n\n", loc.String())
	}

	if ctx := ge.Context(); len(ctx) > 0 {
		r.printContext(ctx)
	}

	if hints := ge.Suggestions(); len(hints) > 0 {
		fmt.Fprintf(r.out, "Suggestions:\n")
		for i, s := range hints {
			fmt.Fprintf(r.out, "   %d. %s\n", i+1, s)
		}
		fmt.Fprintf(r.out, "\n")
	}

	if r.verbose && ge.Unwrap() != nil {
		fmt.Fprintf(r.out, "Error Chain:\n")
		level := 1
		for e := ge.Unwrap(); e != nil; e = stderrors.Unwrap(e) {
			fmt.Fprintf(r.out, "    %d. %s\n", level, e.Error())
			level++
		}
		fmt.Fprintf(r.out, "\n")
	}
}

// printContext prints context keys in sorted order
func (r *DiagnosticReporter) printContext(ctx map[string]interface{}) {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(r.out, "Context:\n")
	for _, k := range keys {
		value := ctx[k]
		if list, ok := value.([]string); ok {
			value = strings.Join(list, ", ")
		}
		fmt.Fprintf(r.out, "   %s: %v\n", formatContextKey(k), value)
	}
	fmt.Fprintf(r.out, "\n")
}

func errorTitle(code errors.ErrorCode) string {
	switch code {
	case errors.SyntaxErrorCode:
		return "Syntax Error"
	case errors.NoDeployMethodFoundCode:
		return "No Deploy Method"
	case errors.AmbiguousDeployMethodCode:
		return "Ambiguous Deploy Method"
	case errors.UnrenderableTypeCode:
		return "Unrenderable Type"
	case errors.TemplateErrorCode:
		return "Template Error"
	case errors.FileSystemErrorCode:
		return "File System Error"
	case errors.ConfigurationErrorCode:
		return "Configuration Error"
	default:
		return "Unknown Error"
	}
}

// formatContextKey turns snake_case keys into Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
