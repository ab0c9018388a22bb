// Package security turns the plan's security graph into security groups and
// ingress rules.
package security

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/cdklogger"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/lib/utils"
)

type NewSecurityGroupsInput struct {
	Vpc   awsec2.IVpc
	Graph topology.SecurityGraphView
	// Owned holds boundaries whose group is created by another construct,
	// such as the NAT instance or an interface endpoint.
	Owned utils.SecurityGroups
}

// NewSecurityGroups declares one group per boundary not already owned, then
// one ingress rule per allow-edge. The group name is the boundary id.
func NewSecurityGroups(scope constructs.Construct, input NewSecurityGroupsInput) (utils.SecurityGroups, error) {
	groups := utils.SecurityGroups{}
	created := 0
	for _, id := range input.Graph.Boundaries() {
		if sg, ok := input.Owned[id]; ok {
			groups[id] = sg
			continue
		}
		groups[id] = awsec2.NewSecurityGroup(scope, jsii.String(string(id)), &awsec2.SecurityGroupProps{
			SecurityGroupName: jsii.String(string(id)),
			Vpc:               input.Vpc,
		})
		created++
	}

	edges := input.Graph.Edges()
	if err := utils.ApplyIngressRules(groups, edges); err != nil {
		return nil, err
	}

	cdklogger.LogInfo(scope, "", "Declared %d security groups (%d owned elsewhere) and %d ingress rules",
		created, len(groups)-created, len(edges))
	return groups, nil
}
