package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/single-instance-rds/infra/lib/topology"
)

type edgeSummary struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Port        int    `yaml:"port"`
	Description string `yaml:"description"`
}

type planSummary struct {
	Application    string        `yaml:"application"`
	Exposed        bool          `yaml:"exposed"`
	QueryActionKey string        `yaml:"queryActionKey,omitempty"`
	Boundaries     []string      `yaml:"boundaries"`
	Edges          []edgeSummary `yaml:"edges"`
	Order          []string      `yaml:"order"`
	Alarms         []string      `yaml:"alarms"`
	Outputs        []string      `yaml:"outputs"`
}

func summarize(plan topology.Plan) planSummary {
	s := planSummary{
		Application: plan.Options().ApplicationName,
		Boundaries: lo.Map(plan.Security().Boundaries(), func(b topology.BoundaryID, _ int) string {
			return string(b)
		}),
		Edges: lo.Map(plan.Security().Edges(), func(e topology.AllowEdge, _ int) edgeSummary {
			return edgeSummary{
				Source:      e.Source.String(),
				Destination: string(e.Destination),
				Port:        e.Port,
				Description: e.Description,
			}
		}),
		Order: lo.Map(plan.Dependencies().Order(), func(n topology.NodeID, _ int) string {
			return string(n)
		}),
		Alarms: lo.Map(plan.Alarms(), func(a topology.AlarmSpec, _ int) string {
			return a.Name
		}),
		Outputs: lo.Map(plan.Outputs(), func(o topology.OutputSpec, _ int) string {
			return string(o.Name)
		}),
	}
	if e, ok := plan.Exposure(); ok {
		s.Exposed = true
		s.QueryActionKey = e.Query.Key
	}
	return s
}

func newPlanCmd() *cobra.Command {
	var (
		flags  planFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Summarize the planned environment",
		Long: `Plan builds the environment plan and prints its security boundaries,
allow-edges, declaration order, alarms and outputs.

Examples:
    rds-topology plan --file rds.yaml
    rds-topology plan --file rds.yaml --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := flags.plan()
			if err != nil {
				return err
			}
			s := summarize(plan)
			switch output {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(s)
			case "text":
				writeSummary(cmd.OutOrStdout(), s)
				return nil
			default:
				return fmt.Errorf("unknown output: %s (use 'text' or 'yaml')", output)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or yaml")
	return cmd
}

func writeSummary(w io.Writer, s planSummary) {
	fmt.Fprintf(w, "Application: %s\n", s.Application)
	if s.Exposed {
		fmt.Fprintf(w, "Exposed: yes (query %s)\n", s.QueryActionKey)
	} else {
		fmt.Fprintln(w, "Exposed: no")
	}

	fmt.Fprintf(w, "\nBoundaries (%d):\n", len(s.Boundaries))
	for _, b := range s.Boundaries {
		fmt.Fprintf(w, "  %s\n", b)
	}

	fmt.Fprintf(w, "\nAllow-edges (%d):\n", len(s.Edges))
	for _, e := range s.Edges {
		fmt.Fprintf(w, "  %s -> %s tcp/%d  %s\n", e.Source, e.Destination, e.Port, e.Description)
	}

	fmt.Fprintf(w, "\nOrder:\n")
	for i, n := range s.Order {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, n)
	}

	fmt.Fprintf(w, "\nAlarms: %s\n", strings.Join(s.Alarms, ", "))
	fmt.Fprintf(w, "Outputs: %s\n", strings.Join(s.Outputs, ", "))
}
