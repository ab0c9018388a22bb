package single_instance_rds_test

import (
	"strings"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/single-instance-rds/infra/lib/constructs/single_instance_rds"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/tests/testutil"
)

func synth(t *testing.T, opts topology.Options) (*single_instance_rds.SingleInstanceRds, assertions.Template) {
	t.Helper()
	plan := testutil.MustPlan(t, opts)
	stack := testutil.NewTestStack("RdsStack")
	r := single_instance_rds.NewSingleInstanceRds(stack, "Rds", &single_instance_rds.SingleInstanceRdsProps{Plan: plan})
	return r, assertions.Template_FromStack(stack, nil)
}

func TestSingleInstanceRds_PrivateOnly(t *testing.T) {
	r, template := synth(t, testutil.ValidOptions())

	assert.Nil(t, r.Exposure)
	assert.Len(t, r.SecurityGroups, 5)
	assert.Len(t, r.Outputs, 5)

	template.ResourceCountIs(jsii.String("AWS::RDS::DBInstance"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::EC2::SecurityGroup"), jsii.Number(5))
	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), jsii.Number(0))
	template.ResourceCountIs(jsii.String("Custom::AWS"), jsii.Number(0))
	template.ResourceCountIs(jsii.String("AWS::CloudWatch::Alarm"), jsii.Number(2))
	template.ResourceCountIs(jsii.String("AWS::CloudWatch::Dashboard"), jsii.Number(1))
}

func TestSingleInstanceRds_Exposed(t *testing.T) {
	r, template := synth(t, testutil.ExposedOptions("198.51.100.7"))

	require.NotNil(t, r.Exposure)
	assert.Len(t, r.SecurityGroups, 6)
	assert.Len(t, r.Outputs, 6)

	template.ResourceCountIs(jsii.String("AWS::EC2::SecurityGroup"), jsii.Number(6))
	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), jsii.Number(1))
	template.HasResourceProperties(jsii.String("AWS::EC2::SecurityGroup"), map[string]interface{}{
		"GroupName": "NLBSecurityGroup",
		"SecurityGroupIngress": assertions.Match_ArrayWith(&[]interface{}{
			map[string]interface{}{
				"CidrIp":   "198.51.100.7/32",
				"FromPort": 5432,
			},
		}),
	})
}

func TestSingleInstanceRds_LoadBalancerWaitsForQuery(t *testing.T) {
	_, template := synth(t, testutil.ExposedOptions(topology.AnyAddress))

	queries := template.FindResources(jsii.String("Custom::AWS"), nil)
	require.Len(t, *queries, 1)
	var queryID string
	for id := range *queries {
		queryID = id
	}
	assert.Contains(t, queryID, "GetPrivateIp20240102T030405678Z")

	nlbs := template.FindResources(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), nil)
	require.Len(t, *nlbs, 1)
	for _, res := range *nlbs {
		require.NotNil(t, res)
		body := *res
		deps, ok := body["DependsOn"].([]interface{})
		require.True(t, ok, "load balancer has no DependsOn")
		assert.Contains(t, deps, queryID)
	}

	dbs := template.FindResources(jsii.String("AWS::RDS::DBInstance"), nil)
	require.Len(t, *dbs, 1)
	for dbID := range *dbs {
		query := *(*queries)[queryID]
		deps, ok := query["DependsOn"].([]interface{})
		require.True(t, ok, "query action has no DependsOn")
		assert.Contains(t, deps, dbID)
	}
}

func TestSingleInstanceRds_ProjectTag(t *testing.T) {
	_, template := synth(t, testutil.ValidOptions())

	template.HasResourceProperties(jsii.String("AWS::RDS::DBInstance"), map[string]interface{}{
		"Tags": assertions.Match_ArrayWith(&[]interface{}{
			map[string]interface{}{"Key": "project", "Value": "mycooldb"},
		}),
	})
}

func TestSingleInstanceRds_OutputsExported(t *testing.T) {
	_, template := synth(t, testutil.ValidOptions())

	outputs := template.FindOutputs(jsii.String("*"), nil)
	names := make([]string, 0, len(*outputs))
	for id := range *outputs {
		names = append(names, id)
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, string(topology.OutputVpcID))
	assert.Contains(t, joined, string(topology.OutputCredentialReference))
	assert.NotContains(t, joined, string(topology.OutputLoadBalancerPublicDNS))
}
