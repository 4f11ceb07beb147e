package main

import (
	"github.com/spf13/cobra"

	"github.com/toyz/abitest/internal/cli"
	"github.com/toyz/abitest/internal/utils"
)

// inputFlags are shared by generate and inspect
type inputFlags struct {
	typeName    string
	abiFile     string
	hasBytecode bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.typeName, "type", "t", "", "wrapper type name, e.g. Greeter")
	cmd.Flags().StringVar(&f.abiFile, "abi", "", "read the wrapper from an ABI JSON file or Hardhat/Foundry artifact")
	cmd.Flags().BoolVar(&f.hasBytecode, "bin", false, "treat the ABI as deployable even without a constructor")
	_ = cmd.MarkFlagRequired("type")
}

func (f *inputFlags) options(args []string) cli.GenerateOptions {
	opts := cli.GenerateOptions{
		Dir:         ".",
		Type:        f.typeName,
		ABIFile:     f.abiFile,
		HasBytecode: f.hasBytecode,
	}
	if len(args) > 0 && args[0] != "" {
		opts.Dir = args[0]
	}
	return opts
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		input    inputFlags
		pkg      string
		output   string
		external bool
		module   string
		dryRun   bool
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Write a testify suite for a binding's wrapper type",
		Example: `  abitest generate ./bindings/greeter --type Greeter
  abitest generate . --type Greeter --abi Greeter.json --external
  abitest generate . --type Greeter --dry-run --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// generated code owns stdout during a dry run
			diagOut := a.stdout
			if dryRun {
				diagOut = a.stderr
			}
			diagnostics, err := a.diagnostics(diagOut)
			if err != nil {
				return err
			}
			gen := cli.NewGenerator(diagnostics)
			gen.SetStdout(a.stdout)

			cfg, err := a.config()
			if err != nil {
				return fail(gen, err)
			}

			opts := input.options(args)
			opts.Package = pkg
			opts.Output = output
			opts.External = external
			opts.Module = module
			opts.DryRun = dryRun
			opts.Strict = strict
			opts.Config = cfg

			diagnostics.Section("Generating tests for " + opts.Type)
			diagnostics.Indent()
			err = gen.Generate(opts)
			diagnostics.Unindent()
			if err != nil {
				return fail(gen, err)
			}

			summary := gen.GetSummary()
			diagnostics.Summary("Generation Complete", []utils.Stat{
				{Label: "Tests", Value: summary.Tests},
				{Label: "Excluded", Value: summary.Excluded},
				{Label: "Skipped", Value: summary.Failures},
			})
			if summary.Written {
				diagnostics.Success("Wrote %s", summary.Output)
			}
			diagnostics.Verbose("Finished in %s", summary.Duration)
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().StringVar(&pkg, "pkg", "", "package clause of the test file (default: the binding package)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file (default: <dir>/<type>_abitest_test.go)")
	cmd.Flags().BoolVar(&external, "external", false, "write a <pkg>_test package that imports the binding")
	cmd.Flags().StringVar(&module, "module", "", "module path of the binding (default: read from go.mod)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the generated file instead of writing it")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any method has an argument with no default literal")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var input inputFlags

	cmd := &cobra.Command{
		Use:   "inspect [dir]",
		Short: "List every method of the wrapper with its category and emitted test",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnostics, err := a.diagnostics(a.stderr)
			if err != nil {
				return err
			}
			gen := cli.NewGenerator(diagnostics)
			gen.SetStdout(a.stdout)

			cfg, err := a.config()
			if err != nil {
				return fail(gen, err)
			}
			opts := input.options(args)
			opts.Config = cfg

			rows, err := gen.Inspect(opts)
			if err != nil {
				return fail(gen, err)
			}
			return gen.PrintInspect(rows)
		},
	}
	input.register(cmd)
	return cmd
}
