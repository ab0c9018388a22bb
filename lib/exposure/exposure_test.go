package exposure_test

import (
	"strings"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/single-instance-rds/infra/lib/exposure"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/tests/testutil"
)

func synth(t *testing.T, source string) assertions.Template {
	t.Helper()
	plan := testutil.MustPlan(t, testutil.ExposedOptions(source))
	spec, ok := plan.Exposure()
	require.True(t, ok)

	stack := testutil.NewTestStack("ExposureStack")
	vpc := awsec2.NewVpc(stack, jsii.String("Vpc"), &awsec2.VpcProps{NatGateways: jsii.Number(0)})
	exposure.NewExposure(stack, exposure.NewExposureInput{
		Spec:          spec,
		Vpc:           vpc,
		SecurityGroup: awsec2.NewSecurityGroup(stack, jsii.String("NlbSg"), &awsec2.SecurityGroupProps{Vpc: vpc}),
		FilterGroup:   awsec2.NewSecurityGroup(stack, jsii.String("DbSg"), &awsec2.SecurityGroupProps{Vpc: vpc}),
	})
	return assertions.Template_FromStack(stack, nil)
}

func TestExposure_Resources(t *testing.T) {
	template := synth(t, "1.2.3.4")

	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("Custom::AWS"), jsii.Number(1))

	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), map[string]interface{}{
		"Name":   "RDSNLB",
		"Scheme": "internet-facing",
		"Type":   "network",
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), map[string]interface{}{
		"Port":     5432,
		"Protocol": "TCP",
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::TargetGroup"), map[string]interface{}{
		"Name":       "RDSTargetGroup",
		"TargetType": "ip",
		"Port":       5432,
		"Targets": []interface{}{
			map[string]interface{}{
				"Id": map[string]interface{}{
					"Fn::GetAtt": assertions.Match_ArrayWith(&[]interface{}{"NetworkInterfaces.0.PrivateIpAddress"}),
				},
			},
		},
	})
}

func TestExposure_QueryActionKeyedByBuildTime(t *testing.T) {
	template := synth(t, topology.AnyAddress)

	found := template.FindResources(jsii.String("Custom::AWS"), nil)
	require.Len(t, *found, 1)
	for logicalID := range *found {
		assert.True(t, strings.HasPrefix(logicalID, "GetPrivateIp20240102T030405678Z"), logicalID)
	}
}

func TestExposure_UnrestrictedWarns(t *testing.T) {
	plan := testutil.MustPlan(t, testutil.ExposedOptions(topology.AnyAddress))
	spec, _ := plan.Exposure()

	stack := testutil.NewTestStack("ExposureStack")
	vpc := awsec2.NewVpc(stack, jsii.String("Vpc"), &awsec2.VpcProps{NatGateways: jsii.Number(0)})
	exposure.NewExposure(stack, exposure.NewExposureInput{
		Spec:          spec,
		Vpc:           vpc,
		SecurityGroup: awsec2.NewSecurityGroup(stack, jsii.String("NlbSg"), &awsec2.SecurityGroupProps{Vpc: vpc}),
		FilterGroup:   awsec2.NewSecurityGroup(stack, jsii.String("DbSg"), &awsec2.SecurityGroupProps{Vpc: vpc}),
	})

	assertions.Annotations_FromStack(stack).HasWarning(jsii.String("*"),
		assertions.Match_StringLikeRegexp(jsii.String("open to any IPv4 address")))
}
