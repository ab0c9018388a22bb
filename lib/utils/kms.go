package utils

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// NewRotatingKey creates a customer managed key with yearly rotation enabled.
func NewRotatingKey(scope constructs.Construct, id string, alias string, removal awscdk.RemovalPolicy) awskms.Key {
	return awskms.NewKey(scope, jsii.String(id), &awskms.KeyProps{
		EnableKeyRotation: jsii.Bool(true),
		Alias:             jsii.String(alias),
		RemovalPolicy:     removal,
	})
}
