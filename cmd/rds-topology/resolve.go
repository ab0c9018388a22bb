package main

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/single-instance-rds/infra/lib/eniresolver"
)

type addressResolver interface {
	Resolve(ctx context.Context, groupID string) (netip.Addr, error)
}

// newResolver is replaced in tests.
var newResolver = func(region string, logger *zap.Logger) (addressResolver, error) {
	return eniresolver.NewForRegion(region, logger)
}

func newResolveCmd() *cobra.Command {
	var (
		groupID string
		region  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Look up the private address behind a security group",
		Long: `Resolve runs the same network-interface lookup the exposed stack performs
before registering the load balancer target, and prints the address.

Examples:
    rds-topology resolve --group-id sg-0123456789abcdef0 --region us-east-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newResolver(region, zap.L())
			if err != nil {
				return fmt.Errorf("creating EC2 client: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			addr, err := r.Resolve(ctx, groupID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}

	cmd.Flags().StringVar(&groupID, "group-id", "", "Security group of the database")
	cmd.Flags().StringVar(&region, "region", "", "AWS region")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Lookup timeout")
	_ = cmd.MarkFlagRequired("group-id")
	_ = cmd.MarkFlagRequired("region")
	return cmd
}
