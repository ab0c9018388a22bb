package config

import (
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

const (
	DefaultStackName   = "SingleInstanceRdsStack"
	DefaultOptionsFile = "rds.yaml"
)

// StackName is read from 'cdk.json/context/stackName'.
func StackName(scope constructs.Construct) string {
	stackName := DefaultStackName

	ctxValue := scope.Node().TryGetContext(jsii.String("stackName"))
	if v, ok := ctxValue.(string); ok && v != "" {
		stackName = v
	}

	return stackName
}

// OptionsFile is read from 'cdk.json/context/optionsFile' or
// '--context optionsFile=...'.
func OptionsFile(scope constructs.Construct) string {
	path := DefaultOptionsFile

	ctxValue := scope.Node().TryGetContext(jsii.String("optionsFile"))
	if v, ok := ctxValue.(string); ok && v != "" {
		path = v
	}

	return path
}
