package main

import (
	"github.com/spf13/cobra"

	form "github.com/reoring/goskemaform"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate a data document",
		Long:  `Validates --data against --schema once and prints the field errors. Exits non-zero when the data is invalid.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer f.Dispose()
			return runCheck(cmd, g, f)
		},
	}
}

func runCheck(cmd *cobra.Command, g *globalFlags, f *form.Form) error {
	valid, err := f.ValidateSchema(cmd.Context())
	if err != nil {
		return err
	}
	p := newPrinter(cmd.OutOrStdout(), g.format, g.noColor)
	if err := p.report(newReport(f, false)); err != nil {
		return err
	}
	if !valid {
		return errInvalid
	}
	return nil
}
