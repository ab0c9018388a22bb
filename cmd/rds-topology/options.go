package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/single-instance-rds/infra/config"
)

func newOptionsCmd() *cobra.Command {
	var (
		flags    planFlags
		defaults bool
	)

	cmd := &cobra.Command{
		Use:   "options",
		Short: "List options with their file keys, environment variables and values",
		Long: `Options prints every option, where it can be set and the value loaded from
the options file and environment.

Examples:
    rds-topology options --file rds.yaml
    rds-topology options --file rds.yaml --defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if defaults {
				opts = opts.WithDefaults()
			}
			descriptors, err := config.GetOptionDescriptors(&opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tENV\tREQUIRED\tVALUE")
			for _, d := range descriptors {
				required := ""
				if d.Required {
					required = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Key, d.EnvName, required, d.Value)
			}
			return w.Flush()
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Apply defaults before printing")
	return cmd
}
