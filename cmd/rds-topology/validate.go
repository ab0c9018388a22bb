package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/single-instance-rds/infra/lib/topology"
)

// errInvalidOptions is returned after the individual problems were printed.
var errInvalidOptions = errors.New("options are invalid")

func newValidateCmd() *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate options",
		Long: `Validate loads the options and reports every problem at once.

Examples:
    rds-topology validate --file rds.yaml
    APP_NAME=mycooldb rds-topology validate --file rds.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := topology.Validate(opts); err != nil {
				fmt.Fprintln(out, "Validation FAILED:")
				for _, e := range multierr.Errors(err) {
					fmt.Fprintf(out, "  - %s\n", e)
				}
				return errInvalidOptions
			}
			fmt.Fprintf(out, "Validation passed: %s\n", opts.ApplicationName)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
