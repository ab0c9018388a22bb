package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/single-instance-rds/infra/config"
	"github.com/single-instance-rds/infra/lib/topology"
)

func newRootCmd() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "rds-topology",
		Short: "Inspect the single-instance RDS environment",
		Long: `rds-topology validates options and prints what the CDK app would declare.

Options are read from a yaml or toml file, then overridden by environment
variables (APP_NAME, ADMIN_IP_ADDRESS, ...), exactly as cdk synth does.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable development logging")

	rootCmd.AddCommand(
		newValidateCmd(),
		newPlanCmd(),
		newGraphCmd(),
		newResolveCmd(),
		newOptionsCmd(),
	)
	return rootCmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// planFlags are shared by commands that build a plan.
type planFlags struct {
	file      string
	buildTime string
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", config.DefaultOptionsFile, "Options file (.yaml, .yml or .toml)")
	cmd.Flags().StringVar(&f.buildTime, "build-time", "", "Build instant as RFC 3339 (default: now)")
}

func (f *planFlags) options() (topology.Options, error) {
	opts, err := config.LoadOptions(f.file)
	if err != nil {
		return topology.Options{}, err
	}
	zap.L().Debug("Loaded options", zap.String("file", f.file), zap.String("application", opts.ApplicationName))
	return opts, nil
}

func (f *planFlags) plan() (topology.Plan, error) {
	now := time.Now()
	if f.buildTime != "" {
		t, err := time.Parse(time.RFC3339Nano, f.buildTime)
		if err != nil {
			return topology.Plan{}, fmt.Errorf("invalid --build-time: %w", err)
		}
		now = t
	}

	opts, err := f.options()
	if err != nil {
		return topology.Plan{}, err
	}
	validated, err := topology.Validate(opts)
	if err != nil {
		return topology.Plan{}, err
	}
	return topology.Build(topology.NewBuildContext(now), validated)
}
