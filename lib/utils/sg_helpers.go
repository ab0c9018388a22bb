package utils

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/topology"
)

// SecurityGroups maps declared boundaries to their CDK security groups.
type SecurityGroups map[topology.BoundaryID]awsec2.ISecurityGroup

// Peer converts an allow-edge source to a CDK peer.
func (g SecurityGroups) Peer(p topology.Peer) (awsec2.IPeer, error) {
	if id, ok := p.Boundary(); ok {
		sg, found := g[id]
		if !found {
			return nil, fmt.Errorf("%w: %s", topology.ErrUnknownBoundary, id)
		}
		return sg, nil
	}
	if p.IsAnyIPv4() {
		return awsec2.Peer_AnyIpv4(), nil
	}
	cidr, _ := p.CIDR()
	return awsec2.Peer_Ipv4(jsii.String(cidr)), nil
}

// ApplyIngressRules adds one TCP ingress rule per edge to the destination
// security group.
func ApplyIngressRules(groups SecurityGroups, edges []topology.AllowEdge) error {
	for _, e := range edges {
		dst, ok := groups[e.Destination]
		if !ok {
			return fmt.Errorf("%w: %s", topology.ErrUnknownBoundary, e.Destination)
		}
		peer, err := groups.Peer(e.Source)
		if err != nil {
			return err
		}
		dst.AddIngressRule(
			peer,
			awsec2.Port_Tcp(jsii.Number(e.Port)),
			jsii.String(e.Description),
			jsii.Bool(false),
		)
	}
	return nil
}
