// Package exposure declares the optional internet-facing path to the database:
// a network-interface query, a network load balancer and its listener.
package exposure

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	elbv2 "github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	elbv2targets "github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2targets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/customresources"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/cdklogger"
	"github.com/single-instance-rds/infra/lib/network"
	"github.com/single-instance-rds/infra/lib/topology"
)

type NewExposureInput struct {
	Spec topology.ExposureSpec
	Vpc  awsec2.IVpc
	// SecurityGroup is the load balancer group.
	SecurityGroup awsec2.ISecurityGroup
	// FilterGroup is the group whose network interface is looked up.
	FilterGroup awsec2.ISecurityGroup
}

type Exposure struct {
	QueryAction  customresources.AwsCustomResource
	LoadBalancer elbv2.NetworkLoadBalancer
	TargetGroup  elbv2.NetworkTargetGroup
	Listener     elbv2.NetworkListener
}

// NewExposure declares the exposure resources. Ordering between the query,
// the database and the load balancer is applied by the caller from the plan's
// dependency graph.
func NewExposure(scope constructs.Construct, input NewExposureInput) Exposure {
	spec := input.Spec
	q := spec.Query
	var e Exposure

	e.QueryAction = customresources.NewAwsCustomResource(scope, jsii.String(q.Key), &customresources.AwsCustomResourceProps{
		OnUpdate: &customresources.AwsSdkCall{
			Service: jsii.String(q.Service),
			Action:  jsii.String(q.Action),
			Parameters: map[string]interface{}{
				"Filters": []map[string]interface{}{
					{
						"Name":   q.FilterName,
						"Values": []*string{input.FilterGroup.SecurityGroupId()},
					},
				},
			},
			PhysicalResourceId: customresources.PhysicalResourceId_Of(jsii.String(q.Key)),
		},
		Policy: customresources.AwsCustomResourcePolicy_FromSdkCalls(&customresources.SdkCallsPolicyOptions{
			Resources: customresources.AwsCustomResourcePolicy_ANY_RESOURCE(),
		}),
		LogRetention: awslogs.RetentionDays_ONE_DAY,
	})

	e.LoadBalancer = elbv2.NewNetworkLoadBalancer(scope, jsii.String(spec.LoadBalancerName), &elbv2.NetworkLoadBalancerProps{
		Vpc:              input.Vpc,
		VpcSubnets:       network.Selection(spec.Tier),
		InternetFacing:   jsii.Bool(true),
		SecurityGroups:   &[]awsec2.ISecurityGroup{input.SecurityGroup},
		LoadBalancerName: jsii.String(spec.LoadBalancerName),
	})

	e.TargetGroup = elbv2.NewNetworkTargetGroup(scope, jsii.String(spec.TargetGroupName), &elbv2.NetworkTargetGroupProps{
		Port:       jsii.Number(spec.ListenerPort),
		TargetType: elbv2.TargetType_IP,
		Targets: &[]elbv2.INetworkLoadBalancerTarget{
			elbv2targets.NewIpTarget(e.QueryAction.GetResponseField(jsii.String(q.ResponseField)), nil, nil),
		},
		Vpc:             input.Vpc,
		TargetGroupName: jsii.String(spec.TargetGroupName),
	})

	e.Listener = e.LoadBalancer.AddListener(jsii.String(spec.ListenerName), &elbv2.BaseNetworkListenerProps{
		Port:                jsii.Number(spec.ListenerPort),
		DefaultTargetGroups: &[]elbv2.INetworkTargetGroup{e.TargetGroup},
	})

	if spec.Source.Unrestricted() {
		cdklogger.LogWarning(scope, spec.LoadBalancerName, "Database port %d is open to any IPv4 address", spec.ListenerPort)
	} else {
		cdklogger.LogInfo(scope, spec.LoadBalancerName, "Database port %d exposed to %s", spec.ListenerPort, spec.Source.Host().CIDR())
	}

	return e
}
