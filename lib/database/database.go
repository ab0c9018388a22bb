// Package database declares the PostgreSQL instance, its generated credential
// and the hosted rotation of that credential.
package database

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsrds"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/samber/lo"

	"github.com/single-instance-rds/infra/lib/cdklogger"
	"github.com/single-instance-rds/infra/lib/network"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/lib/utils"
)

const InstanceID = "RDSDB"

type NewDatabaseInput struct {
	Spec                  topology.DatabaseSpec
	Rotation              topology.RotationSpec
	Vpc                   awsec2.IVpc
	SecurityGroup         awsec2.ISecurityGroup
	RotationSecurityGroup awsec2.ISecurityGroup
}

type Database struct {
	Instance awsrds.DatabaseInstance
	Secret   awssecretsmanager.ISecret
	Rotation awssecretsmanager.RotationSchedule

	StorageKey  awskms.Key
	SecretKey   awskms.Key
	InsightsKey awskms.Key
}

// CredentialReference is the full ARN of the generated secret.
func (d Database) CredentialReference() *string {
	if arn := d.Secret.SecretFullArn(); arn != nil {
		return arn
	}
	return d.Secret.SecretArn()
}

func NewDatabase(scope constructs.Construct, input NewDatabaseInput) Database {
	spec := input.Spec
	removal := utils.CdkRemovalPolicy(spec.RemovalPolicy)
	keyRemoval := utils.CdkRemovalPolicyFor(spec.RemovalPolicy, false)

	var d Database
	d.SecretKey = utils.NewRotatingKey(scope, "RDSDBSecretKMSKey", "RDSDBSecretKMSKey", keyRemoval)
	d.StorageKey = utils.NewRotatingKey(scope, "RDSDBKMSKey", "RDSDBDBKMSKey", keyRemoval)
	// Performance Insights data is never retained past the instance.
	d.InsightsKey = utils.NewRotatingKey(scope, "RDSDBInsightsKMSKey", "RDSDBInsightsKMSKey", awscdk.RemovalPolicy_DESTROY)

	d.Instance = awsrds.NewDatabaseInstance(scope, jsii.String(InstanceID), &awsrds.DatabaseInstanceProps{
		Engine: awsrds.DatabaseInstanceEngine_Postgres(&awsrds.PostgresInstanceEngineProps{
			Version: engineVersion(spec.EngineVersion),
		}),
		Vpc:                      input.Vpc,
		AllowMajorVersionUpgrade: jsii.Bool(true),
		Credentials: awsrds.Credentials_FromGeneratedSecret(jsii.String(spec.Username), &awsrds.CredentialsBaseOptions{
			SecretName:    jsii.String(spec.SecretName),
			EncryptionKey: d.SecretKey,
		}),
		DatabaseName:                    jsii.String(spec.DatabaseName),
		IamAuthentication:               jsii.Bool(true),
		InstanceIdentifier:              jsii.String(spec.Identifier),
		InstanceType:                    awsec2.NewInstanceType(jsii.String(spec.InstanceClass)),
		RemovalPolicy:                   removal,
		StorageEncryptionKey:            d.StorageKey,
		VpcSubnets:                      network.Selection(spec.Tier),
		SecurityGroups:                  &[]awsec2.ISecurityGroup{input.SecurityGroup},
		Port:                            jsii.Number(spec.Port),
		AllocatedStorage:                jsii.Number(spec.StorageGiB),
		StorageType:                     awsrds.StorageType_GP3,
		MonitoringInterval:              utils.CdkDuration(spec.MonitoringInterval),
		EnablePerformanceInsights:       jsii.Bool(true),
		PerformanceInsightRetention:     insightsRetention(spec.PerformanceInsightsRetentionDays),
		PerformanceInsightEncryptionKey: d.InsightsKey,
		CloudwatchLogsRetention:         awslogs.RetentionDays_ONE_YEAR,
		CloudwatchLogsExports:           jsii.Strings(spec.LogExports...),
		Parameters: lo.ToPtr(lo.MapValues(spec.Parameters, func(v string, _ string) *string {
			return jsii.String(v)
		})),
	})
	d.Secret = d.Instance.Secret()

	rot := input.Rotation
	d.Rotation = d.Secret.AddRotationSchedule(jsii.String(rot.FunctionName), &awssecretsmanager.RotationScheduleOptions{
		AutomaticallyAfter: utils.CdkDuration(rot.Interval),
		HostedRotation: awssecretsmanager.HostedRotation_PostgreSqlSingleUser(&awssecretsmanager.SingleUserHostedRotationOptions{
			Vpc:            input.Vpc,
			VpcSubnets:     network.Selection(rot.Tier),
			SecurityGroups: &[]awsec2.ISecurityGroup{input.RotationSecurityGroup},
			FunctionName:   jsii.String(rot.FunctionName),
		}),
	})

	cdklogger.LogInfo(scope, InstanceID, "PostgreSQL %s %s, %d GiB on port %d, credential rotated every %s",
		spec.EngineVersion, spec.InstanceClass, spec.StorageGiB, spec.Port, rot.Interval)

	return d
}

func engineVersion(major string) awsrds.PostgresEngineVersion {
	if major == "16" {
		return awsrds.PostgresEngineVersion_VER_16()
	}
	return awsrds.PostgresEngineVersion_Of(jsii.String(major), jsii.String(major), nil)
}

func insightsRetention(days int) awsrds.PerformanceInsightRetention {
	switch {
	case days <= 7:
		return awsrds.PerformanceInsightRetention_DEFAULT
	case days <= 31:
		return awsrds.PerformanceInsightRetention_MONTHS_1
	case days <= 93:
		return awsrds.PerformanceInsightRetention_MONTHS_3
	case days <= 186:
		return awsrds.PerformanceInsightRetention_MONTHS_6
	case days <= 372:
		return awsrds.PerformanceInsightRetention_MONTHS_12
	default:
		return awsrds.PerformanceInsightRetention_LONG_TERM
	}
}
