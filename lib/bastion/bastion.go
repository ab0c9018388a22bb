// Package bastion declares the administrative jump host.
package bastion

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/cdklogger"
	"github.com/single-instance-rds/infra/lib/network"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/lib/utils"
)

const InstanceID = "BastionHost"

type NewBastionInput struct {
	Spec          topology.BastionSpec
	Vpc           awsec2.IVpc
	SecurityGroup awsec2.ISecurityGroup
	RemovalPolicy awscdk.RemovalPolicy
}

type Bastion struct {
	Instance  awsec2.Instance
	KeyPair   awsec2.IKeyPair
	VolumeKey awskms.Key
}

func NewBastion(scope constructs.Construct, input NewBastionInput) Bastion {
	spec := input.Spec
	var b Bastion

	// referenced by name only
	b.KeyPair = awsec2.KeyPair_FromKeyPairName(scope, jsii.String("BastionKeyPair"), jsii.String(spec.KeyReference))
	b.VolumeKey = utils.NewRotatingKey(scope, "BastionKMSKey", "BastionKMSKey", input.RemovalPolicy)

	b.Instance = awsec2.NewInstance(scope, jsii.String(InstanceID), &awsec2.InstanceProps{
		InstanceType:  awsec2.NewInstanceType(jsii.String(spec.InstanceClass)),
		MachineImage:  awsec2.MachineImage_LatestAmazonLinux2023(nil),
		Vpc:           input.Vpc,
		VpcSubnets:    network.Selection(spec.Tier),
		KeyPair:       b.KeyPair,
		SecurityGroup: input.SecurityGroup,
		BlockDevices: &[]*awsec2.BlockDevice{
			{
				DeviceName:     jsii.String(spec.RootDeviceName),
				MappingEnabled: jsii.Bool(true),
				Volume: awsec2.BlockDeviceVolume_Ebs(jsii.Number(spec.RootVolumeGiB), &awsec2.EbsDeviceOptions{
					DeleteOnTermination: jsii.Bool(true),
					VolumeType:          awsec2.EbsDeviceVolumeType_GP3,
					Encrypted:           jsii.Bool(true),
					KmsKey:              b.VolumeKey,
				}),
			},
		},
	})

	cdklogger.LogInfo(scope, InstanceID, "Bastion %s reachable over SSH from %s", spec.InstanceClass, spec.AdministratorHost.CIDR())
	return b
}
