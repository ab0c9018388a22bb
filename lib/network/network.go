// Package network declares the VPC, its NAT egress path, the Secrets Manager
// endpoint and the optional flow logs.
package network

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/samber/lo"

	"github.com/single-instance-rds/infra/lib/cdklogger"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/lib/utils"
)

const (
	SecretsEndpointID = "SMEndpoint"
	flowLogsKeyAlias  = "VPCFlowLogsKMSKey"
)

type NewNetworkInput struct {
	Spec          topology.NetworkSpec
	RemovalPolicy awscdk.RemovalPolicy
}

type Network struct {
	Vpc             awsec2.Vpc
	NatProvider     awsec2.NatInstanceProviderV2
	SecretsEndpoint awsec2.InterfaceVpcEndpoint
	// FlowLogGroup and FlowLogsKey are nil when flow logs are disabled.
	FlowLogGroup awslogs.LogGroup
	FlowLogsKey  awskms.Key
}

// NatSecurityGroup is the group of the NAT instance.
func (n Network) NatSecurityGroup() awsec2.ISecurityGroup {
	return n.NatProvider.SecurityGroup()
}

// EndpointSecurityGroup is the group created for the Secrets Manager endpoint.
func (n Network) EndpointSecurityGroup() awsec2.ISecurityGroup {
	return (*n.SecretsEndpoint.Connections().SecurityGroups())[0]
}

// SubnetType maps a plan tier to the CDK subnet type.
func SubnetType(tier topology.SubnetTier) awsec2.SubnetType {
	switch tier {
	case topology.TierPublic:
		return awsec2.SubnetType_PUBLIC
	case topology.TierPrivateWithEgress:
		return awsec2.SubnetType_PRIVATE_WITH_EGRESS
	default:
		panic(fmt.Sprintf("unknown subnet tier %q", tier))
	}
}

// Selection selects every subnet of tier.
func Selection(tier topology.SubnetTier) *awsec2.SubnetSelection {
	return &awsec2.SubnetSelection{SubnetType: SubnetType(tier)}
}

func NewNetwork(scope constructs.Construct, input NewNetworkInput) Network {
	spec := input.Spec
	var n Network

	n.NatProvider = awsec2.NatProvider_InstanceV2(&awsec2.NatInstanceProps{
		InstanceType: awsec2.NewInstanceType(jsii.String(spec.NatInstanceClass)),
	})

	props := &awsec2.VpcProps{
		IpAddresses: awsec2.IpAddresses_Cidr(jsii.String(spec.CIDR)),
		VpcName:     jsii.String(spec.Name),
		SubnetConfiguration: lo.ToPtr(lo.Map(spec.Tiers, func(tier topology.SubnetTier, _ int) *awsec2.SubnetConfiguration {
			return &awsec2.SubnetConfiguration{
				Name:       jsii.String(string(tier)),
				SubnetType: SubnetType(tier),
			}
		})),
		MaxAzs:             jsii.Number(spec.AvailabilityZones),
		NatGatewayProvider: n.NatProvider,
		NatGateways:        jsii.Number(spec.NatGateways),
	}

	if spec.FlowLogs {
		n.FlowLogsKey = utils.NewRotatingKey(scope, flowLogsKeyAlias, flowLogsKeyAlias, input.RemovalPolicy)
		n.FlowLogsKey.GrantEncryptDecrypt(awsiam.NewServicePrincipal(jsii.String("logs.amazonaws.com"), nil))

		n.FlowLogGroup = awslogs.NewLogGroup(scope, jsii.String("VPCFlowLogs"), &awslogs.LogGroupProps{
			EncryptionKey: n.FlowLogsKey,
			RemovalPolicy: input.RemovalPolicy,
			LogGroupName:  jsii.String(spec.FlowLogGroupName),
			Retention:     awslogs.RetentionDays_ONE_YEAR,
		})
		props.FlowLogs = &map[string]*awsec2.FlowLogOptions{
			"cw": {
				Destination: awsec2.FlowLogDestination_ToCloudWatchLogs(n.FlowLogGroup, nil),
				TrafficType: awsec2.FlowLogTrafficType_ALL,
			},
		}
	}

	n.Vpc = awsec2.NewVpc(scope, jsii.String(spec.Name), props)

	n.SecretsEndpoint = n.Vpc.AddInterfaceEndpoint(jsii.String(SecretsEndpointID), &awsec2.InterfaceVpcEndpointOptions{
		Service: awsec2.InterfaceVpcEndpointAwsService_SECRETS_MANAGER(),
		Subnets: Selection(spec.EndpointTier),
	})

	cdklogger.LogInfo(scope, spec.Name, "VPC %s with %d subnets across %d AZs, flow logs: %t",
		spec.CIDR, spec.SubnetCount(), spec.AvailabilityZones, spec.FlowLogs)

	return n
}
