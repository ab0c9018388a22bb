package single_instance_rds

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/single-instance-rds/infra/lib/bastion"
	"github.com/single-instance-rds/infra/lib/cdklogger"
	"github.com/single-instance-rds/infra/lib/database"
	"github.com/single-instance-rds/infra/lib/exposure"
	"github.com/single-instance-rds/infra/lib/monitoring"
	"github.com/single-instance-rds/infra/lib/network"
	"github.com/single-instance-rds/infra/lib/outputs"
	"github.com/single-instance-rds/infra/lib/security"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/lib/utils"
)

// orderedNodes get explicit dependencies from the plan. Every other ordering
// follows from attribute references.
var orderedNodes = []topology.NodeID{topology.NodeQueryAction, topology.NodeLoadBalancer}

// SingleInstanceRdsProps holds inputs for creating a SingleInstanceRds.
type SingleInstanceRdsProps struct {
	Plan topology.Plan
}

// SingleInstanceRds is the whole environment: network, security groups,
// database, bastion, optional exposure, monitoring and outputs.
type SingleInstanceRds struct {
	constructs.Construct

	Network        network.Network
	SecurityGroups utils.SecurityGroups
	Database       database.Database
	Bastion        bastion.Bastion
	// Exposure is nil unless the plan exposes the database.
	Exposure   *exposure.Exposure
	Monitoring monitoring.Monitoring
	Outputs    []awscdk.CfnOutput

	// declared maps plan nodes to the constructs that realize them.
	declared map[topology.NodeID]constructs.IConstruct
}

// NewSingleInstanceRds declares every resource of plan under a new construct.
func NewSingleInstanceRds(scope constructs.Construct, id string, props *SingleInstanceRdsProps) *SingleInstanceRds {
	plan := props.Plan
	opts := plan.Options()
	// keys, log groups and volumes cannot be snapshotted
	removal := utils.CdkRemovalPolicyFor(opts.RemovalPolicy, false)

	c := constructs.NewConstruct(scope, jsii.String(id))
	r := &SingleInstanceRds{Construct: c, declared: map[topology.NodeID]constructs.IConstruct{}}

	cdklogger.LogInfo(c, "", "Declaring %s (query key %s)", opts.ApplicationName, plan.BuildContext().QueryActionKey())

	r.Network = network.NewNetwork(c, network.NewNetworkInput{Spec: plan.Network(), RemovalPolicy: removal})
	r.declare(topology.NodeVpc, r.Network.Vpc)
	r.declare(topology.NodeSecretsEndpoint, r.Network.SecretsEndpoint)
	if r.Network.FlowLogGroup != nil {
		r.declare(topology.NodeFlowLogs, r.Network.FlowLogGroup)
	}

	groups, err := security.NewSecurityGroups(c, security.NewSecurityGroupsInput{
		Vpc:   r.Network.Vpc,
		Graph: plan.Security(),
		Owned: utils.SecurityGroups{
			topology.NatEgress:       r.Network.NatSecurityGroup(),
			topology.ServiceEndpoint: r.Network.EndpointSecurityGroup(),
		},
	})
	if err != nil {
		// Build already checked every edge against the declared boundaries.
		panic(err)
	}
	r.SecurityGroups = groups
	for b, sg := range groups {
		r.declare(topology.BoundaryNode(b), sg)
	}

	r.Database = database.NewDatabase(c, database.NewDatabaseInput{
		Spec:                  plan.Database(),
		Rotation:              plan.Rotation(),
		Vpc:                   r.Network.Vpc,
		SecurityGroup:         groups[topology.Database],
		RotationSecurityGroup: groups[topology.RotationExecutor],
	})
	r.declare(topology.NodeDatabase, r.Database.Instance)
	r.declare(topology.NodeCredential, r.Database.Secret)
	r.declare(topology.NodeRotationSchedule, r.Database.Rotation)

	r.Bastion = bastion.NewBastion(c, bastion.NewBastionInput{
		Spec:          plan.Bastion(),
		Vpc:           r.Network.Vpc,
		SecurityGroup: groups[topology.Bastion],
		RemovalPolicy: removal,
	})
	r.declare(topology.NodeBastion, r.Bastion.Instance)

	if spec, ok := plan.Exposure(); ok {
		e := exposure.NewExposure(c, exposure.NewExposureInput{
			Spec:          spec,
			Vpc:           r.Network.Vpc,
			SecurityGroup: groups[spec.Boundary],
			FilterGroup:   groups[spec.Query.FilterBoundary],
		})
		r.Exposure = &e
		r.declare(topology.NodeQueryAction, e.QueryAction)
		r.declare(topology.NodeLoadBalancer, e.LoadBalancer)
		r.declare(topology.NodeTargetGroup, e.TargetGroup)
		r.declare(topology.NodeListener, e.Listener)
	}

	r.Monitoring = monitoring.NewMonitoring(c, monitoring.NewMonitoringInput{
		Alarms:    plan.Alarms(),
		Dashboard: plan.Dashboard(),
		Database:  r.Database.Instance,
	})
	r.declare(topology.NodeDashboard, r.Monitoring.Dashboard)
	for name, alarm := range r.Monitoring.Alarms {
		r.declare(topology.AlarmNode(name), alarm)
	}

	r.Outputs = outputs.NewOutputs(c, plan.Outputs(), r.outputValues())

	r.applyOrdering(plan.Dependencies())

	for k, v := range plan.Tags() {
		awscdk.Tags_Of(c).Add(jsii.String(k), jsii.String(v), nil)
	}

	return r
}

func (r *SingleInstanceRds) declare(node topology.NodeID, c constructs.IConstruct) {
	r.declared[node] = c
}

func (r *SingleInstanceRds) applyOrdering(deps topology.DependencyGraphView) {
	for _, node := range orderedNodes {
		target, ok := r.declared[node]
		if !ok {
			continue
		}
		for _, dep := range deps.DirectDependencies(node) {
			if c, found := r.declared[dep]; found {
				target.Node().AddDependency(c)
			}
		}
	}
}

func (r *SingleInstanceRds) outputValues() outputs.Values {
	v := outputs.Values{
		topology.OutputVpcID:                 r.Network.Vpc.VpcId(),
		topology.OutputDatabaseSecurityGroup: r.SecurityGroups[topology.Database].SecurityGroupId(),
		topology.OutputBastionSecurityGroup:  r.SecurityGroups[topology.Bastion].SecurityGroupId(),
		topology.OutputBastionPublicDNS:      r.Bastion.Instance.InstancePublicDnsName(),
		topology.OutputCredentialReference:   r.Database.CredentialReference(),
	}
	if r.Exposure != nil {
		v[topology.OutputLoadBalancerPublicDNS] = r.Exposure.LoadBalancer.LoadBalancerDnsName()
	}
	return v
}
