package utils

import (
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/topology"
)

const day = 24 * time.Hour

// CdkDuration converts d to the coarsest exact CDK unit, so 24h renders as
// "rate(1 day)" in schedules.
func CdkDuration(d time.Duration) awscdk.Duration {
	switch {
	case d >= day && d%day == 0:
		return awscdk.Duration_Days(jsii.Number(float64(d / day)))
	case d >= time.Hour && d%time.Hour == 0:
		return awscdk.Duration_Hours(jsii.Number(float64(d / time.Hour)))
	case d%time.Minute == 0:
		return awscdk.Duration_Minutes(jsii.Number(float64(d / time.Minute)))
	default:
		return awscdk.Duration_Seconds(jsii.Number(d.Seconds()))
	}
}

// CdkRemovalPolicy maps the option value to the CDK enum.
func CdkRemovalPolicy(p topology.RemovalPolicy) awscdk.RemovalPolicy {
	switch p {
	case topology.RemovalPolicyRetain:
		return awscdk.RemovalPolicy_RETAIN
	case topology.RemovalPolicySnapshot:
		return awscdk.RemovalPolicy_SNAPSHOT
	default:
		return awscdk.RemovalPolicy_DESTROY
	}
}

// CdkRemovalPolicyFor is CdkRemovalPolicy for a resource type that may not
// support snapshots. Snapshot becomes Retain when snapshots is false, as for
// KMS keys and log groups.
func CdkRemovalPolicyFor(p topology.RemovalPolicy, snapshots bool) awscdk.RemovalPolicy {
	if p == topology.RemovalPolicySnapshot && !snapshots {
		return awscdk.RemovalPolicy_RETAIN
	}
	return CdkRemovalPolicy(p)
}
