package testutil

import (
	"testing"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/topology"
)

//---------------------------------------------------------------------
// 1. Option fixtures
//---------------------------------------------------------------------

// BuildTime is the fixed build instant used by fixtures.
var BuildTime = time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)

// ValidOptions returns the private-only mycooldb options.
func ValidOptions() topology.Options {
	return topology.Options{
		ApplicationName:            "mycooldb",
		AdministratorKeyReference:  "admin-key",
		AdministratorSourceAddress: "203.0.113.10",
		StorageGiB:                 20,
	}
}

// ExposedOptions returns ValidOptions with exposure to source.
func ExposedOptions(source string) topology.Options {
	opts := ValidOptions()
	opts.WithExposure = true
	opts.ExposureSourceAddress = source
	return opts
}

// MustPlan validates opts and builds a plan at BuildTime.
func MustPlan(t *testing.T, opts topology.Options) topology.Plan {
	t.Helper()
	v, err := topology.Validate(opts)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	plan, err := topology.Build(topology.NewBuildContext(BuildTime), v)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return plan
}

//---------------------------------------------------------------------
// 2. CDK fixtures
//---------------------------------------------------------------------

// NewTestStack returns an environment-agnostic stack in a fresh app.
func NewTestStack(id string) awscdk.Stack {
	app := awscdk.NewApp(nil)
	return awscdk.NewStack(app, jsii.String(id), nil)
}
