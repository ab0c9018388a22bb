package stacks_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/stacks"
	"github.com/single-instance-rds/infra/tests/testutil"
)

func newStack(t *testing.T, app awscdk.App, opts topology.Options) (awscdk.Stack, error) {
	t.Helper()
	return stacks.SingleInstanceRdsStack(app, "SingleInstanceRdsStack", &stacks.SingleInstanceRdsStackProps{
		Options:      opts,
		BuildContext: topology.NewBuildContext(testutil.BuildTime),
	})
}

func TestSingleInstanceRdsStack_PrivateOnly(t *testing.T) {
	stack, err := newStack(t, awscdk.NewApp(nil), testutil.ValidOptions())
	require.NoError(t, err)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::EC2::SecurityGroup"), jsii.Number(5))
	template.ResourceCountIs(jsii.String("AWS::RDS::DBInstance"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::EC2::Instance"), jsii.Number(2)) // bastion and NAT
	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), jsii.Number(0))

	template.HasResourceProperties(jsii.String("AWS::RDS::DBInstance"), map[string]interface{}{
		"DBInstanceIdentifier":               "mycooldb",
		"DBName":                             "mycooldb",
		"DBInstanceClass":                    "db.t4g.micro",
		"AllocatedStorage":                   "20",
		"PerformanceInsightsRetentionPeriod": 93,
	})
	template.HasResourceProperties(jsii.String("AWS::SecretsManager::RotationSchedule"), map[string]interface{}{
		"RotationRules": map[string]interface{}{
			"ScheduleExpression": "rate(1 day)",
		},
	})

	outputs := template.FindOutputs(jsii.String("*"), nil)
	assert.Len(t, *outputs, 5)
}

func TestSingleInstanceRdsStack_Exposed(t *testing.T) {
	stack, err := newStack(t, awscdk.NewApp(nil), testutil.ExposedOptions(topology.AnyAddress))
	require.NoError(t, err)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::EC2::SecurityGroup"), jsii.Number(6))
	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), jsii.Number(1))

	outputs := template.FindOutputs(jsii.String("*"), nil)
	assert.Len(t, *outputs, 6)
}

func TestSingleInstanceRdsStack_InvalidOptionsDeclareNothing(t *testing.T) {
	app := awscdk.NewApp(nil)
	opts := testutil.ValidOptions()
	opts.ApplicationName = "my-cool-db"
	opts.AdministratorSourceAddress = "not-an-ip"

	stack, err := newStack(t, app, opts)
	require.Error(t, err)
	assert.Nil(t, stack)

	var cfgErr *topology.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, *app.Node().Children())
}

func TestSingleInstanceRdsStack_DefaultDescription(t *testing.T) {
	stack, err := newStack(t, awscdk.NewApp(nil), testutil.ValidOptions())
	require.NoError(t, err)
	assert.Equal(t, "Single-instance PostgreSQL database for mycooldb", *stack.TemplateOptions().Description())
}

func TestSingleInstanceRdsStack_RejectedOptionsDeclareNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*topology.Options)
		field  string
	}{
		{"exposure without source", func(o *topology.Options) {
			o.WithExposure = true
			o.ExposureSourceAddress = ""
		}, "exposureSourceAddress"},
		{"rotation under four hours", func(o *topology.Options) { o.RotationInterval = 2 * time.Hour }, "rotationInterval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := awscdk.NewApp(nil)
			opts := testutil.ValidOptions()
			tt.mutate(&opts)

			stack, err := newStack(t, app, opts)
			require.Error(t, err)
			assert.Nil(t, stack)

			var cfgErr *topology.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Empty(t, *app.Node().Children())
		})
	}
}

func TestSingleInstanceRdsStack_SnapshotOnlyOnDatabase(t *testing.T) {
	opts := testutil.ValidOptions()
	opts.RemovalPolicy = topology.RemovalPolicySnapshot
	stack, err := newStack(t, awscdk.NewApp(nil), opts)
	require.NoError(t, err)

	template := assertions.Template_FromStack(stack, nil)
	template.HasResource(jsii.String("AWS::RDS::DBInstance"), map[string]interface{}{
		"DeletionPolicy": "Snapshot",
	})

	resources, ok := (*template.ToJSON())["Resources"].(map[string]interface{})
	require.True(t, ok)
	for id, raw := range resources {
		res := raw.(map[string]interface{})
		if res["Type"] == "AWS::RDS::DBInstance" {
			continue
		}
		assert.NotEqual(t, "Snapshot", res["DeletionPolicy"], "%s (%s)", id, res["Type"])
	}

	keys := template.FindResources(jsii.String("AWS::KMS::Key"), map[string]interface{}{
		"DeletionPolicy": "Retain",
	})
	// storage, secret, bastion and flow-log keys; the insights key is always deleted
	assert.Len(t, *keys, 4)
	template.HasResource(jsii.String("AWS::Logs::LogGroup"), map[string]interface{}{
		"Properties":     map[string]interface{}{"LogGroupName": "vpcflowlogs"},
		"DeletionPolicy": "Retain",
	})
}
