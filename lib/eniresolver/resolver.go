// Package eniresolver looks up the private address of the network interface
// attached to a security group, the same lookup the deployed stack performs
// before registering the load balancer target.
package eniresolver

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"go.uber.org/zap"

	"github.com/single-instance-rds/infra/lib/topology"
)

// GroupIDFilter is the DescribeNetworkInterfaces filter keyed on security group.
const GroupIDFilter = "group-id"

// Client is the subset of ec2iface.EC2API used here.
type Client interface {
	DescribeNetworkInterfacesWithContext(aws.Context, *ec2.DescribeNetworkInterfacesInput, ...request.Option) (*ec2.DescribeNetworkInterfacesOutput, error)
}

// Resolver resolves security groups to private addresses.
type Resolver struct {
	client Client
	l      *zap.Logger
}

// New returns a Resolver using client. A nil logger disables logging.
func New(client Client, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{client: client, l: logger.Named("eniresolver")}
}

// NewForRegion builds an EC2 client from the default credential chain.
func NewForRegion(region string, logger *zap.Logger) (*Resolver, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(region), MaxRetries: aws.Int(5)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}
	return New(ec2.New(sess), logger), nil
}

// Resolve returns the private address of the first network interface in
// groupID. Zero interfaces, or an interface without a private address, is a
// *topology.ResolutionError; API failures are returned wrapped.
func (r *Resolver) Resolve(ctx context.Context, groupID string) (netip.Addr, error) {
	l := r.l.With(zap.String("groupID", groupID))

	resp, err := r.client.DescribeNetworkInterfacesWithContext(ctx, &ec2.DescribeNetworkInterfacesInput{
		Filters: []*ec2.Filter{
			{
				Name:   aws.String(GroupIDFilter),
				Values: []*string{aws.String(groupID)},
			},
		},
	})
	if err != nil {
		l.Error("DescribeNetworkInterfaces failed", zap.Error(err))
		return netip.Addr{}, fmt.Errorf("describing network interfaces of %s: %w", groupID, err)
	}
	if len(resp.NetworkInterfaces) == 0 {
		return netip.Addr{}, &topology.ResolutionError{BoundaryID: groupID, Reason: "no network interfaces in group"}
	}

	first := resp.NetworkInterfaces[0]
	raw := aws.StringValue(first.PrivateIpAddress)
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, &topology.ResolutionError{BoundaryID: groupID, Reason: "interface has no private address"}
	}

	l.Debug("Resolved network interface",
		zap.String("interfaceID", aws.StringValue(first.NetworkInterfaceId)),
		zap.Stringer("privateIp", addr),
		zap.Int("interfaces", len(resp.NetworkInterfaces)))
	return addr, nil
}
