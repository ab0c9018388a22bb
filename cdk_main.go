package main

import (
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"go.uber.org/zap"

	"github.com/single-instance-rds/infra/config"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/lib/utils"
	"github.com/single-instance-rds/infra/stacks"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	optionsFile := config.OptionsFile(app)
	opts, err := config.LoadOptions(optionsFile)
	if err != nil {
		zap.L().Fatal("Failed to load options", zap.String("file", optionsFile), zap.Error(err))
	}

	stackName := config.StackName(app)
	_, err = stacks.SingleInstanceRdsStack(app, stackName, &stacks.SingleInstanceRdsStackProps{
		StackProps: awscdk.StackProps{
			Env: utils.CdkEnv(),
		},
		Options:      opts,
		BuildContext: topology.NewBuildContext(time.Now()),
	})
	if err != nil {
		zap.L().Fatal("Invalid configuration", zap.String("stack", stackName), zap.Error(err))
	}

	app.Synth(nil)
}

func init() {
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))
}
