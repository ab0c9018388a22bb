package topology

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/single-instance-rds/infra/lib/renderer"
)

// Network constants.
const (
	VpcName           = "MainVPC"
	VpcCIDR           = "10.0.0.0/16"
	AvailabilityZones = 2
	NatInstanceClass  = "t3.micro"
	FlowLogGroupName  = "vpcflowlogs"
)

// SubnetTier is a subnet group of the network.
type SubnetTier string

const (
	TierPrivateWithEgress SubnetTier = "private"
	TierPublic            SubnetTier = "public"
)

// Dependency graph nodes.
const (
	NodeVpc              NodeID = "network/vpc"
	NodeFlowLogs         NodeID = "network/flow-logs"
	NodeSecretsEndpoint  NodeID = "network/secrets-endpoint"
	NodeDatabase         NodeID = "database/instance"
	NodeCredential       NodeID = "database/credential"
	NodeRotationSchedule NodeID = "database/rotation-schedule"
	NodeBastion          NodeID = "bastion/instance"
	NodeQueryAction      NodeID = "exposure/query-action"
	NodeLoadBalancer     NodeID = "exposure/load-balancer"
	NodeTargetGroup      NodeID = "exposure/target-group"
	NodeListener         NodeID = "exposure/listener"
	NodeDashboard        NodeID = "monitoring/dashboard"
)

// BoundaryNode is the dependency node of a security boundary.
func BoundaryNode(id BoundaryID) NodeID {
	return NodeID("security/" + string(id))
}

// AlarmNode is the dependency node of an alarm.
func AlarmNode(name string) NodeID {
	return NodeID("monitoring/alarm/" + name)
}

// OutputNode is the dependency node of an output.
func OutputNode(name OutputName) NodeID {
	return NodeID("output/" + string(name))
}

// NetworkSpec describes the VPC.
type NetworkSpec struct {
	Name              string
	CIDR              string
	AvailabilityZones int
	Tiers             []SubnetTier
	NatGateways       int
	NatInstanceClass  string
	// EndpointTier hosts the Secrets Manager interface endpoint.
	EndpointTier     SubnetTier
	FlowLogs         bool
	FlowLogGroupName string
}

// SubnetCount is tiers times zones.
func (n NetworkSpec) SubnetCount() int {
	return len(n.Tiers) * n.AvailabilityZones
}

// DatabaseSpec describes the database instance and its credential.
type DatabaseSpec struct {
	Identifier    string
	DatabaseName  string
	Username      string
	SecretName    string
	EngineVersion string
	InstanceClass string
	StorageGiB    int
	Port          int
	RemovalPolicy RemovalPolicy
	Tier          SubnetTier
	Boundary      BoundaryID

	MonitoringInterval               time.Duration
	PerformanceInsightsRetentionDays int
	LogExports                       []string
	Parameters                       map[string]string
}

// LogGroupName is the CloudWatch log group receiving the postgresql export.
func (d DatabaseSpec) LogGroupName() string {
	return fmt.Sprintf("/aws/rds/instance/%s/postgresql", d.Identifier)
}

// RotationSpec describes the recurring credential rotation.
type RotationSpec struct {
	Interval     time.Duration
	FunctionName string
	Tier         SubnetTier
	Boundary     BoundaryID
	SecretName   string
}

// BastionSpec describes the jump host.
type BastionSpec struct {
	KeyReference      string
	AdministratorHost HostAddress
	InstanceClass     string
	Tier              SubnetTier
	Boundary          BoundaryID
	RootDeviceName    string
	RootVolumeGiB     int
}

// QueryActionSpec is the control-plane lookup of the database's network
// interface.
type QueryActionSpec struct {
	// Key is the identity of the action, fresh for every build.
	Key            string
	Service        string
	Action         string
	FilterName     string
	FilterBoundary BoundaryID
	// ResponseField selects the first private address of the response.
	ResponseField string
}

// ExposureSpec describes the optional load balancer path.
type ExposureSpec struct {
	Source           ExposureSource
	ListenerPort     int
	LoadBalancerName string
	ListenerName     string
	TargetGroupName  string
	Tier             SubnetTier
	Boundary         BoundaryID
	Query            QueryActionSpec
}

// OutputName is both the output id and its export name.
type OutputName string

const (
	OutputVpcID                 OutputName = "VpcIdOutput"
	OutputDatabaseSecurityGroup OutputName = "RDSSecurityGroupOutput"
	OutputBastionSecurityGroup  OutputName = "BastionSecurityGroupOutput"
	OutputBastionPublicDNS      OutputName = "BastionHostDNSOutput"
	OutputCredentialReference   OutputName = "RDSSecretARNOutput"
	OutputLoadBalancerPublicDNS OutputName = "NLBDNSOutput"
)

// OutputSpec is one named export.
type OutputSpec struct {
	Name        OutputName
	ExportName  string
	Description string
	// Source is the node whose attribute is exported.
	Source NodeID
}

// Plan is the complete, immutable description of one environment.
type Plan struct {
	ctx       BuildContext
	options   Options
	tags      map[string]string
	network   NetworkSpec
	security  *SecurityGraph
	database  DatabaseSpec
	rotation  RotationSpec
	bastion   BastionSpec
	exposure  *ExposureSpec
	alarms    []AlarmSpec
	dashboard DashboardSpec
	outputs   []OutputSpec
	deps      *DependencyGraph
}

func (p Plan) BuildContext() BuildContext { return p.ctx }
func (p Plan) Options() Options { return p.options }

func (p Plan) Network() NetworkSpec {
	n := p.network
	n.Tiers = append([]SubnetTier(nil), n.Tiers...)
	return n
}

func (p Plan) Database() DatabaseSpec {
	d := p.database
	d.LogExports = append([]string(nil), d.LogExports...)
	d.Parameters = lo.Assign(d.Parameters)
	return d
}

func (p Plan) Rotation() RotationSpec { return p.rotation }
func (p Plan) Bastion() BastionSpec { return p.bastion }

func (p Plan) Dashboard() DashboardSpec {
	d := p.dashboard
	d.AlarmWidgets = append([]string(nil), d.AlarmWidgets...)
	d.LogQueries = append([]LogQuerySpec(nil), d.LogQueries...)
	return d
}

// Tags returns the tags applied to every resource.
func (p Plan) Tags() map[string]string {
	return lo.Assign(p.tags)
}

// Security returns a copy of the security graph. Changes to it never reach
// the plan.
func (p Plan) Security() SecurityGraphView { return p.security.Clone() }

// Dependencies returns a copy of the dependency graph.
func (p Plan) Dependencies() DependencyGraphView { return p.deps.Clone() }

// Exposure returns the exposure spec, or false when exposure is disabled.
func (p Plan) Exposure() (ExposureSpec, bool) {
	if p.exposure == nil {
		return ExposureSpec{}, false
	}
	return *p.exposure, true
}

// Alarms returns the alarm specs.
func (p Plan) Alarms() []AlarmSpec {
	return append([]AlarmSpec(nil), p.alarms...)
}

// Outputs returns the output specs in export order.
func (p Plan) Outputs() []OutputSpec {
	return append([]OutputSpec(nil), p.outputs...)
}

// SecurityGraphView is the read side of SecurityGraph.
type SecurityGraphView interface {
	Boundaries() []BoundaryID
	HasBoundary(id BoundaryID) bool
	Edges() []AllowEdge
	Inbound(id BoundaryID) []AllowEdge
	HasEdge(source Peer, destination BoundaryID, port int) bool
}

// DependencyGraphView is the read side of DependencyGraph.
type DependencyGraphView interface {
	Has(node NodeID) bool
	Order() []NodeID
	DirectDependencies(node NodeID) []NodeID
	DependsOn(from, to NodeID) bool
	Precedes(a, b NodeID) bool
	TopologicalOrder() ([]NodeID, error)
}

type edgeDecl struct {
	src  Peer
	dst  BoundaryID
	port int
	desc string
}

// planner accumulates declarations for one Build call.
type planner struct {
	plan Plan
	opts ValidatedOptions
}

// Build turns validated options into a Plan. It is pure: the same context and
// options always give the same plan.
func Build(ctx BuildContext, opts ValidatedOptions) (Plan, error) {
	o := opts.Options()
	p := &planner{
		opts: opts,
		plan: Plan{
			ctx:      ctx,
			options:  o,
			tags:     map[string]string{"project": o.ApplicationName},
			security: NewSecurityGraph(),
			deps:     NewDependencyGraph(),
		},
	}

	stages := []struct {
		name string
		fn   func() error
	}{
		{"network", p.planNetwork},
		{"security", p.planSecurity},
		{"database", p.planDatabase},
		{"bastion", p.planBastion},
		{"exposure", p.planExposure},
		{"monitoring", p.planMonitoring},
		{"outputs", p.planOutputs},
	}
	for _, s := range stages {
		if err := s.fn(); err != nil {
			return Plan{}, fmt.Errorf("planning %s: %w", s.name, err)
		}
	}
	return p.plan, nil
}

func (p *planner) declare(node NodeID, dependsOn ...NodeID) error {
	return p.plan.deps.Declare(node, dependsOn...)
}

func (p *planner) planNetwork() error {
	o := p.plan.options
	p.plan.network = NetworkSpec{
		Name:              VpcName,
		CIDR:              VpcCIDR,
		AvailabilityZones: AvailabilityZones,
		Tiers:             []SubnetTier{TierPrivateWithEgress, TierPublic},
		NatGateways:       1,
		NatInstanceClass:  NatInstanceClass,
		EndpointTier:      TierPrivateWithEgress,
		FlowLogs:          o.FlowLogsEnabled(),
		FlowLogGroupName:  FlowLogGroupName,
	}
	if err := p.declare(NodeVpc); err != nil {
		return err
	}
	if o.FlowLogsEnabled() {
		if err := p.declare(NodeFlowLogs, NodeVpc); err != nil {
			return err
		}
	}
	return nil
}

func (p *planner) planSecurity() error {
	o := p.plan.options
	g := p.plan.security

	boundaries := []BoundaryID{NatEgress, ServiceEndpoint, Database, RotationExecutor, Bastion}
	_, exposed := p.opts.Exposure()
	if exposed {
		boundaries = append(boundaries, LoadBalancer)
	}
	for _, b := range boundaries {
		g.DeclareBoundary(b)
		if err := p.declare(BoundaryNode(b), NodeVpc); err != nil {
			return err
		}
	}
	if err := p.declare(NodeSecretsEndpoint, NodeVpc, BoundaryNode(ServiceEndpoint)); err != nil {
		return err
	}

	edges := []edgeDecl{
		{FromBoundary(RotationExecutor), Database, o.DatabasePort, "Rotation function to database"},
		{FromBoundary(Bastion), Database, o.DatabasePort, "Bastion to database"},
		{FromHost(p.opts.AdministratorHost()), Bastion, SSHPort, "Administrator SSH to bastion"},
	}
	if src, ok := p.opts.Exposure(); ok {
		edges = append(edges,
			edgeDecl{FromBoundary(LoadBalancer), Database, o.DatabasePort, "Load balancer to database"},
			edgeDecl{src.Peer(), LoadBalancer, o.DatabasePort, "Application to load balancer"},
		)
	}
	for _, e := range edges {
		if err := g.Allow(e.src, e.dst, e.port, e.desc); err != nil {
			return err
		}
	}
	return nil
}

func (p *planner) planDatabase() error {
	o := p.plan.options
	p.plan.database = DatabaseSpec{
		Identifier:                       o.ApplicationName,
		DatabaseName:                     o.ApplicationName,
		Username:                         o.ApplicationName,
		SecretName:                       o.ApplicationName,
		EngineVersion:                    "16",
		InstanceClass:                    o.InstanceClass,
		StorageGiB:                       o.StorageGiB,
		Port:                             o.DatabasePort,
		RemovalPolicy:                    o.RemovalPolicy,
		Tier:                             TierPrivateWithEgress,
		Boundary:                         Database,
		MonitoringInterval:               time.Minute,
		PerformanceInsightsRetentionDays: 93,
		LogExports:                       []string{"postgresql"},
		// Log every statement.
		Parameters: map[string]string{"log_min_duration_statement": "0"},
	}
	p.plan.rotation = RotationSpec{
		Interval:     o.RotationInterval,
		FunctionName: "RDSDBSecretRotation",
		Tier:         TierPrivateWithEgress,
		Boundary:     RotationExecutor,
		SecretName:   o.ApplicationName,
	}

	if err := p.declare(NodeDatabase, NodeVpc, BoundaryNode(Database)); err != nil {
		return err
	}
	if err := p.declare(NodeCredential, NodeDatabase); err != nil {
		return err
	}
	return p.declare(NodeRotationSchedule, NodeCredential, NodeDatabase, BoundaryNode(RotationExecutor), NodeSecretsEndpoint)
}

func (p *planner) planBastion() error {
	o := p.plan.options
	p.plan.bastion = BastionSpec{
		KeyReference:      o.AdministratorKeyReference,
		AdministratorHost: p.opts.AdministratorHost(),
		InstanceClass:     "t3.micro",
		Tier:              TierPublic,
		Boundary:          Bastion,
		RootDeviceName:    "/dev/xvda",
		RootVolumeGiB:     8,
	}
	return p.declare(NodeBastion, NodeVpc, BoundaryNode(Bastion))
}

func (p *planner) planExposure() error {
	src, ok := p.opts.Exposure()
	if !ok {
		return nil
	}
	o := p.plan.options
	p.plan.exposure = &ExposureSpec{
		Source:           src,
		ListenerPort:     o.DatabasePort,
		LoadBalancerName: "RDSNLB",
		ListenerName:     "RDSListener",
		TargetGroupName:  "RDSTargetGroup",
		Tier:             TierPublic,
		Boundary:         LoadBalancer,
		Query: QueryActionSpec{
			Key:            p.plan.ctx.QueryActionKey(),
			Service:        "EC2",
			Action:         "describeNetworkInterfaces",
			FilterName:     "group-id",
			FilterBoundary: Database,
			ResponseField:  "NetworkInterfaces.0.PrivateIpAddress",
		},
	}

	// database -> query action -> load balancer, target group -> listener
	if err := p.declare(NodeQueryAction, NodeDatabase, BoundaryNode(Database)); err != nil {
		return err
	}
	if err := p.declare(NodeLoadBalancer, NodeQueryAction, BoundaryNode(LoadBalancer)); err != nil {
		return err
	}
	if err := p.declare(NodeTargetGroup, NodeQueryAction, NodeVpc); err != nil {
		return err
	}
	return p.declare(NodeListener, NodeLoadBalancer, NodeTargetGroup)
}

func (p *planner) planMonitoring() error {
	db := p.plan.database
	p.plan.alarms = []AlarmSpec{cpuAlarm(), storageAlarm(db.StorageGiB)}

	queries := []LogQuerySpec{{
		Title:         "Last 100 queries and durations",
		LogGroupNames: []string{db.LogGroupName()},
		Query: renderer.MustRender(renderer.TplStatementLogQuery, renderer.StatementLogQueryData{
			InstanceIdentifier: db.Identifier,
		}),
	}}
	if p.plan.network.FlowLogs {
		queries = append(queries, LogQuerySpec{
			Title:         "Last 100 VPC flow logs",
			LogGroupNames: []string{p.plan.network.FlowLogGroupName},
			Query:         renderer.MustRender(renderer.TplFlowLogQuery, renderer.FlowLogQueryData{}),
		})
	}

	p.plan.dashboard = DashboardSpec{
		Name:            DashboardName,
		DefaultInterval: 12 * time.Hour,
		AlarmWidgets:    lo.Map(p.plan.alarms, func(a AlarmSpec, _ int) string { return a.Name }),
		LogQueries:      queries,
		WidgetWidth:     6,
		WidgetHeight:    6,
	}

	for _, a := range p.plan.alarms {
		if err := p.declare(AlarmNode(a.Name), NodeDatabase); err != nil {
			return err
		}
	}
	dashboardDeps := lo.Map(p.plan.alarms, func(a AlarmSpec, _ int) NodeID { return AlarmNode(a.Name) })
	if p.plan.network.FlowLogs {
		dashboardDeps = append(dashboardDeps, NodeFlowLogs)
	}
	return p.declare(NodeDashboard, dashboardDeps...)
}

func (p *planner) planOutputs() error {
	outputs := []OutputSpec{
		{Name: OutputVpcID, Description: "Network identifier", Source: NodeVpc},
		{Name: OutputDatabaseSecurityGroup, Description: "Database security group", Source: BoundaryNode(Database)},
		{Name: OutputBastionSecurityGroup, Description: "Bastion security group", Source: BoundaryNode(Bastion)},
		{Name: OutputBastionPublicDNS, Description: "Bastion public DNS name", Source: NodeBastion},
		{Name: OutputCredentialReference, Description: "Database credential secret ARN", Source: NodeCredential},
	}
	if p.plan.exposure != nil {
		outputs = append(outputs, OutputSpec{Name: OutputLoadBalancerPublicDNS, Description: "Load balancer public DNS name", Source: NodeLoadBalancer})
	}
	for i := range outputs {
		outputs[i].ExportName = string(outputs[i].Name)
		if err := p.declare(OutputNode(outputs[i].Name), outputs[i].Source); err != nil {
			return err
		}
	}
	p.plan.outputs = outputs
	return nil
}
