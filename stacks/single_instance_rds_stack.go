package stacks

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/constructs/single_instance_rds"
	"github.com/single-instance-rds/infra/lib/topology"
)

type SingleInstanceRdsStackProps struct {
	awscdk.StackProps
	Options      topology.Options
	BuildContext topology.BuildContext
}

// SingleInstanceRdsStack validates the options and plans the environment
// before declaring anything, so invalid options never leave a partial stack
// in scope.
func SingleInstanceRdsStack(scope constructs.Construct, id string, props *SingleInstanceRdsStackProps) (awscdk.Stack, error) {
	validated, err := topology.Validate(props.Options)
	if err != nil {
		return nil, err
	}
	plan, err := topology.Build(props.BuildContext, validated)
	if err != nil {
		return nil, err
	}

	sprops := props.StackProps
	if sprops.Description == nil {
		sprops.Description = jsii.String("Single-instance PostgreSQL database for " + plan.Options().ApplicationName)
	}
	stack := awscdk.NewStack(scope, jsii.String(id), &sprops)

	single_instance_rds.NewSingleInstanceRds(stack, "SingleInstanceRds", &single_instance_rds.SingleInstanceRdsProps{
		Plan: plan,
	})

	return stack, nil
}
