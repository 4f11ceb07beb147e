package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/toyz/abitest/internal/cli"
	"github.com/toyz/abitest/internal/utils"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// app carries the global flags and the writers every command reports to
type app struct {
	stdout io.Writer
	stderr io.Writer

	verbose    bool
	quiet      bool
	logLevel   string
	configPath string
}

// reportedError marks an error the command already printed in full
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		var reported reportedError
		if !stderrors.As(err, &reported) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "abitest",
		Short: "Generate testify suites for abigen contract bindings",
		Long: `abitest reads an abigen binding (Go source or ABI JSON), classifies every method of the
wrapper type and writes a testify suite that deploys the contract once and exercises each
method against a live node.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output and detailed error reporting")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only show errors and final results")
	flags.StringVar(&a.logLevel, "log-level", "", "diagnostic level (silent|error|warn|info|verbose|debug)")
	flags.StringVar(&a.configPath, "config", "", "path to abitest.toml (default: abitest.toml in the binding directory)")

	root.AddCommand(
		newGenerateCmd(a),
		newInspectCmd(a),
		newCleanCmd(a),
		newVersionCmd(a),
	)
	return root
}

// diagnostics builds the diagnostic system for the global flags, writing to out
func (a *app) diagnostics(out io.Writer) (*utils.DiagnosticSystem, error) {
	var d *utils.DiagnosticSystem
	switch {
	case a.logLevel != "":
		level, ok := utils.ParseDiagnosticLevel(a.logLevel)
		if !ok {
			return nil, fmt.Errorf("unknown log level %q", a.logLevel)
		}
		d = utils.NewDiagnosticSystem(level)
	case a.quiet:
		d = utils.NewQuietDiagnostics()
	case a.verbose:
		d = utils.NewVerboseDiagnostics()
	default:
		d = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}

	if out != os.Stdout || a.stderr != os.Stderr {
		d.SetOutput(out, a.stderr)
	}
	return d, nil
}

// config loads --config when given; nil lets the generator look in the binding directory
func (a *app) config() (*cli.Config, error) {
	if a.configPath == "" {
		return nil, nil
	}
	return cli.LoadConfig(a.configPath)
}

// fail prints err through the reporter and marks it as reported
func fail(gen *cli.Generator, err error) error {
	gen.Reporter().ReportError(err)
	return reportedError{err}
}
