package cli

import (
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/toyz/abitest/internal/errors"
	"github.com/toyz/abitest/internal/generator"
	"github.com/toyz/abitest/internal/models"
	wrapperparser "github.com/toyz/abitest/internal/parser"
	"github.com/toyz/abitest/internal/resolver"
	"github.com/toyz/abitest/internal/rules"
	"github.com/toyz/abitest/internal/templates"
	"github.com/toyz/abitest/internal/utils"
)

// GenerateOptions describes one generate or inspect invocation
type GenerateOptions struct {
	Dir         string // binding package directory, "." when empty
	Type        string // wrapper type name
	ABIFile     string // read signatures from ABI JSON instead of Go source
	HasBytecode bool   // treat the ABI as deployable even without a constructor
	Package     string // package clause override
	Output      string // output file override
	External    bool   // write a <pkg>_test package that imports the binding
	Module      string // module path override for the binding import
	DryRun      bool   // print instead of writing
	Strict      bool   // fail when any method could not be rendered
	Config      *Config
}

// GenerationSummary describes the last generation run
type GenerationSummary struct {
	Wrapper  string
	Output   string
	Tests    int
	Excluded int
	Failures int
	Written  bool
	Duration time.Duration
}

// InspectRow is one signature with its classification
type InspectRow struct {
	Name         string
	CallName     string
	Category     models.Category
	ResolvedName string // empty for excluded signatures
	TestName     string // empty for excluded signatures
	Source       string
}

// Generator coordinates the CLI generation process
type Generator struct {
	moduleResolver *ModuleResolver
	goParser       wrapperparser.WrapperParser
	reporter       *DiagnosticReporter
	diagnostics    *utils.DiagnosticSystem
	stdout         io.Writer
	summary        GenerationSummary
}

// NewGenerator creates a CLI generator reporting through diagnostics
func NewGenerator(diagnostics *utils.DiagnosticSystem) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	reporter := NewDiagnosticReporter(diagnostics.Level() >= utils.DiagnosticVerbose)
	reporter.SetOutput(diagnostics.ErrorOutput())
	return &Generator{
		moduleResolver: NewModuleResolver(),
		goParser:       wrapperparser.NewParser(),
		reporter:       reporter,
		diagnostics:    diagnostics,
		stdout:         os.Stdout,
	}
}

// SetStdout sets where --dry-run output and inspect tables go
func (g *Generator) SetStdout(w io.Writer) {
	g.stdout = w
}

// Reporter returns the reporter used for errors and warnings
func (g *Generator) Reporter() *DiagnosticReporter {
	return g.reporter
}

// GetSummary returns the summary of the last Generate call
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Generate parses the wrapper, builds its test suite and writes the rendered file.
// Per-method failures are reported as warnings, or returned without writing when Strict is set.
func (g *Generator) Generate(opts GenerateOptions) error {
	start := time.Now()
	g.summary = GenerationSummary{Wrapper: opts.Type}

	cfg, metadata, err := g.load(&opts)
	if err != nil {
		return err
	}

	genOpts, err := cfg.Options()
	if err != nil {
		return err
	}

	pkg := g.packageName(opts, cfg, metadata)
	fileOpts := generator.FileOptions{
		Package:     pkg,
		Imports:     cfg.Imports,
		Placeholder: cfg.Placeholder,
		RPCEnv:      cfg.Suite.RPCEnv,
		KeyEnv:      cfg.Suite.KeyEnv,
	}
	if opts.External {
		binding, err := g.moduleResolver.BuildPackagePath(opts.Dir, opts.Module)
		if err != nil {
			return err
		}
		g.diagnostics.Verbose("Binding import path: %s", binding)
		genOpts.Qualifier = pkg
		fileOpts.Package = pkg + "_test"
		fileOpts.Binding = binding
	}

	output := g.outputPath(opts, cfg)
	fileOpts.FileName = filepath.Base(output)
	g.summary.Output = output

	gen := generator.NewGenerator(genOpts)
	result, err := gen.Generate(metadata)
	if err != nil {
		return err
	}

	g.summary.Tests = len(result.Suite.Tests())
	g.summary.Excluded = len(result.Excluded)
	g.summary.Failures = result.Failures.Count()
	for _, m := range result.Suite.Methods {
		g.diagnostics.Item("%s", m.SourceName)
	}
	for _, ex := range result.Excluded {
		g.diagnostics.Debug("excluded %s", ex.Name)
	}

	if opts.Strict {
		if err := result.Failures.ErrOrNil(); err != nil {
			return err
		}
	} else {
		g.reporter.ReportFailures(result.Failures)
	}

	code, err := gen.RenderFile(result, fileOpts)
	if err != nil {
		return err
	}

	if opts.DryRun {
		if _, err := g.stdout.Write(code); err != nil {
			return errors.WrapFileSystemError("write", "stdout", err)
		}
	} else {
		g.diagnostics.Writing(output)
		if err := utils.WriteGoFile(output, code); err != nil {
			return err
		}
		g.summary.Written = true
	}

	g.summary.Duration = time.Since(start)
	return nil
}

// Inspect classifies every signature of the wrapper without rendering anything.
// Rows follow declaration order.
func (g *Generator) Inspect(opts GenerateOptions) ([]InspectRow, error) {
	cfg, metadata, err := g.load(&opts)
	if err != nil {
		return nil, err
	}
	genOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	classified := generator.NewGenerator(genOpts).Classifier().
		ClassifyAll(rules.Env{Wrapper: metadata.Wrapper}, metadata.Signatures)

	var rest []models.ClassifiedSignature
	for _, c := range classified {
		if c.Category == models.CategoryView || c.Category == models.CategoryTransaction {
			rest = append(rest, c)
		}
	}
	resolved := resolver.Resolve(rest)

	rows := make([]InspectRow, 0, len(classified))
	next := 0
	for _, c := range classified {
		row := InspectRow{
			Name:     c.Signature.Name,
			CallName: c.Signature.Callee(),
			Category: c.Category,
			Source:   c.Signature.Source,
		}
		switch c.Category {
		case models.CategoryDeploy:
			row.ResolvedName = c.Signature.Name
			row.TestName = "SetupSuite"
		case models.CategoryView, models.CategoryTransaction:
			row.ResolvedName = resolved[next].ResolvedName
			row.TestName = templates.TestName(row.ResolvedName)
			next++
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PrintInspect writes rows as an aligned table
func (g *Generator) PrintInspect(rows []InspectRow) error {
	w := tabwriter.NewWriter(g.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tCALL\tCATEGORY\tEMITTED\tSOURCE")
	for _, r := range rows {
		emitted := r.TestName
		if emitted == "" {
			emitted = "-"
		}
		source := r.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.CallName, r.Category, emitted, source)
	}
	return w.Flush()
}

// load resolves defaults on opts, then reads the configuration and the wrapper metadata
func (g *Generator) load(opts *GenerateOptions) (*Config, *models.WrapperMetadata, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Type == "" {
		return nil, nil, errors.New(errors.ConfigurationErrorCode, "wrapper type name is required").
			WithSuggestions("Pass --type with the binding's wrapper type, e.g. --type Greeter")
	}

	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = LoadConfig(FindConfig(opts.Dir))
		if err != nil {
			return nil, nil, err
		}
	}
	if cfg.Path != "" {
		g.diagnostics.Verbose("Using configuration %s", cfg.Path)
	}

	var metadata *models.WrapperMetadata
	var err error
	if opts.ABIFile != "" {
		g.diagnostics.Verbose("Reading ABI %s", opts.ABIFile)
		metadata, err = wrapperparser.NewABIParser(opts.HasBytecode).ParseFile(opts.ABIFile, opts.Type)
	} else {
		g.diagnostics.Verbose("Parsing package %s", opts.Dir)
		metadata, err = g.goParser.ParseDirectory(opts.Dir, opts.Type)
	}
	if err != nil {
		return nil, nil, err
	}
	g.diagnostics.Debug("%d signatures on %s", len(metadata.Signatures), metadata.Wrapper)
	return cfg, metadata, nil
}

// packageName picks the binding package: flag, config, the Go files in Dir, then the metadata
func (g *Generator) packageName(opts GenerateOptions, cfg *Config, metadata *models.WrapperMetadata) string {
	if opts.Package != "" {
		return opts.Package
	}
	if cfg.Suite.Package != "" {
		return cfg.Suite.Package
	}
	if opts.ABIFile != "" {
		if name := packageClause(opts.Dir); name != "" {
			return name
		}
	}
	return metadata.PackageName
}

func (g *Generator) outputPath(opts GenerateOptions, cfg *Config) string {
	if opts.Output != "" {
		return opts.Output
	}
	name := strings.ToLower(opts.Type) + "_abitest_test.go"
	if cfg.Suite.Output != "" {
		name = cfg.Suite.Output
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(opts.Dir, name)
}

// packageClause returns the package name of the first non-test Go file in dir
func packageClause(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.PackageClauseOnly)
		if err == nil {
			return f.Name.Name
		}
	}
	return ""
}
