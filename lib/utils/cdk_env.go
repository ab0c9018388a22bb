package utils

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/caarlos0/env/v11"
)

type deployEnvironment struct {
	DeployAccount  string `env:"CDK_DEPLOY_ACCOUNT"`
	DeployRegion   string `env:"CDK_DEPLOY_REGION"`
	DefaultAccount string `env:"CDK_DEFAULT_ACCOUNT"`
	DefaultRegion  string `env:"CDK_DEFAULT_REGION"`
}

// CdkEnv determines the AWS environment (account+region) in which our stack is to
// be deployed. CDK_DEPLOY_* wins when both are set, CDK_DEFAULT_* otherwise.
// For more information see: https://docs.aws.amazon.com/cdk/latest/guide/environments.html
func CdkEnv() *awscdk.Environment {
	var e deployEnvironment
	// string fields only, Parse cannot fail
	_ = env.Parse(&e)

	account, region := e.DeployAccount, e.DeployRegion
	if account == "" || region == "" {
		account, region = e.DefaultAccount, e.DefaultRegion
	}

	return &awscdk.Environment{
		Account: jsii.String(account),
		Region:  jsii.String(region),
	}
}
