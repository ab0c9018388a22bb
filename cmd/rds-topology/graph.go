package main

import (
	"github.com/spf13/cobra"

	"github.com/single-instance-rds/infra/lib/graphexport"
)

func newGraphCmd() *cobra.Command {
	var (
		flags        planFlags
		outputFormat string
		security     bool
		cluster      bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of the planned environment",
		Long: `Generate a DOT or Mermaid graph of the declaration dependencies, or of
the security boundaries and their allow-edges.

The output can be rendered with Graphviz:
    rds-topology graph --file rds.yaml | dot -Tpng -o deps.png

Examples:
    rds-topology graph --file rds.yaml -c          # cluster by stage
    rds-topology graph --file rds.yaml --security  # allow-edges
    rds-topology graph --file rds.yaml -f mermaid  # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := graphexport.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			plan, err := flags.plan()
			if err != nil {
				return err
			}
			kind := graphexport.KindDependencies
			if security {
				kind = graphexport.KindSecurity
			}
			gen := &graphexport.Generator{Format: format, ClusterByStage: cluster}
			return gen.Generate(plan, kind, cmd.OutOrStdout())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&security, "security", "s", false, "Graph security boundaries instead of dependencies")
	cmd.Flags().BoolVarP(&cluster, "cluster", "c", false, "Cluster dependency nodes by stage")
	return cmd
}
