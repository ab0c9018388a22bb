package utils_test

import (
	"testing"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/stretchr/testify/assert"

	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/lib/utils"
)

func TestCdkDuration(t *testing.T) {
	assert.Equal(t, float64(1), *utils.CdkDuration(24*time.Hour).ToDays(nil))
	assert.Equal(t, float64(7), *utils.CdkDuration(7*24*time.Hour).ToDays(nil))
	assert.Equal(t, float64(36), *utils.CdkDuration(36*time.Hour).ToHours(nil))
	assert.Equal(t, float64(90), *utils.CdkDuration(90*time.Minute).ToMinutes(nil))
	assert.Equal(t, float64(45), *utils.CdkDuration(45*time.Second).ToSeconds(nil))
}

func TestCdkRemovalPolicy(t *testing.T) {
	assert.Equal(t, awscdk.RemovalPolicy_DESTROY, utils.CdkRemovalPolicy(topology.RemovalPolicyDestroy))
	assert.Equal(t, awscdk.RemovalPolicy_RETAIN, utils.CdkRemovalPolicy(topology.RemovalPolicyRetain))
	assert.Equal(t, awscdk.RemovalPolicy_SNAPSHOT, utils.CdkRemovalPolicy(topology.RemovalPolicySnapshot))
}

func TestCdkRemovalPolicyFor(t *testing.T) {
	assert.Equal(t, awscdk.RemovalPolicy_RETAIN, utils.CdkRemovalPolicyFor(topology.RemovalPolicySnapshot, false))
	assert.Equal(t, awscdk.RemovalPolicy_SNAPSHOT, utils.CdkRemovalPolicyFor(topology.RemovalPolicySnapshot, true))
	assert.Equal(t, awscdk.RemovalPolicy_DESTROY, utils.CdkRemovalPolicyFor(topology.RemovalPolicyDestroy, false))
	assert.Equal(t, awscdk.RemovalPolicy_RETAIN, utils.CdkRemovalPolicyFor(topology.RemovalPolicyRetain, false))
}

func TestCdkEnv(t *testing.T) {
	t.Setenv("CDK_DEFAULT_ACCOUNT", "111111111111")
	t.Setenv("CDK_DEFAULT_REGION", "us-east-1")
	t.Setenv("CDK_DEPLOY_ACCOUNT", "")
	t.Setenv("CDK_DEPLOY_REGION", "")

	e := utils.CdkEnv()
	assert.Equal(t, "111111111111", *e.Account)
	assert.Equal(t, "us-east-1", *e.Region)

	t.Setenv("CDK_DEPLOY_ACCOUNT", "222222222222")
	t.Setenv("CDK_DEPLOY_REGION", "eu-west-1")
	e = utils.CdkEnv()
	assert.Equal(t, "222222222222", *e.Account)
	assert.Equal(t, "eu-west-1", *e.Region)
}
