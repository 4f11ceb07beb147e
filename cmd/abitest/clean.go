package main

import (
	"github.com/spf13/cobra"

	"github.com/toyz/abitest/internal/cli"
)

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [dirs...]",
		Short: "Remove test files previously generated by abitest",
		Long: `Remove every _test.go file whose first line is the abitest generated-code header.
Directories accept Go-style patterns such as ./... and default to ./... when omitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnostics, err := a.diagnostics(a.stdout)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"./..."}
			}

			diagnostics.Section("Cleaning generated tests")
			removed, err := cli.NewCleaner().CleanGeneratedFiles(args)
			for _, f := range removed {
				diagnostics.List("removed %s", f)
			}
			if err != nil {
				return fail(cli.NewGenerator(diagnostics), err)
			}
			diagnostics.Success("Removed %d generated files", len(removed))
			return nil
		},
	}
}
