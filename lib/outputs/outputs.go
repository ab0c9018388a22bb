// Package outputs exports the plan's named stack outputs.
package outputs

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/topology"
)

// Values holds the token for each output. Every output in the plan must have
// a value.
type Values map[topology.OutputName]*string

func NewOutputs(scope constructs.Construct, specs []topology.OutputSpec, values Values) []awscdk.CfnOutput {
	out := make([]awscdk.CfnOutput, 0, len(specs))
	for _, spec := range specs {
		v, ok := values[spec.Name]
		if !ok || v == nil {
			panic(fmt.Sprintf("no value for output %s", spec.Name))
		}
		out = append(out, awscdk.NewCfnOutput(scope, jsii.String(string(spec.Name)), &awscdk.CfnOutputProps{
			Value:       v,
			ExportName:  jsii.String(spec.ExportName),
			Description: jsii.String(spec.Description),
		}))
	}
	return out
}
