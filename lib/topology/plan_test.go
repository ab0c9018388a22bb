package topology_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/single-instance-rds/infra/lib/topology"
)

var buildTime = time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)

func mycooldb() topology.Options {
	return topology.Options{
		ApplicationName:            "mycooldb",
		AdministratorKeyReference:  "admin-key",
		AdministratorSourceAddress: "203.0.113.10",
		StorageGiB:                 20,
	}
}

func mustPlan(t *testing.T, opts topology.Options, at time.Time) topology.Plan {
	t.Helper()
	v, err := topology.Validate(opts)
	require.NoError(t, err)
	plan, err := topology.Build(topology.NewBuildContext(at), v)
	require.NoError(t, err)
	return plan
}

func TestBuild_PrivateOnly(t *testing.T) {
	plan := mustPlan(t, mycooldb(), buildTime)

	assert.Equal(t, 4, plan.Network().SubnetCount())
	assert.Len(t, plan.Security().Boundaries(), 5)
	assert.Equal(t, 5432, plan.Database().Port)
	assert.Equal(t, 20, plan.Database().StorageGiB)
	assert.Len(t, plan.Alarms(), 2)
	assert.Len(t, plan.Outputs(), 5)

	_, exposed := plan.Exposure()
	assert.False(t, exposed)
	assert.False(t, plan.Security().HasBoundary(topology.LoadBalancer))
	assert.False(t, plan.Dependencies().Has(topology.NodeLoadBalancer))
	assert.False(t, plan.Dependencies().Has(topology.NodeQueryAction))

	for _, o := range plan.Outputs() {
		assert.NotEqual(t, topology.OutputLoadBalancerPublicDNS, o.Name)
		assert.Equal(t, string(o.Name), o.ExportName)
	}
	assert.Equal(t, map[string]string{"project": "mycooldb"}, plan.Tags())
}

func TestBuild_WithExposure(t *testing.T) {
	opts := mycooldb()
	opts.WithExposure = true
	opts.ExposureSourceAddress = "1.2.3.4"
	plan := mustPlan(t, opts, buildTime)

	exp, ok := plan.Exposure()
	require.True(t, ok)
	assert.Equal(t, "RDSNLB", exp.LoadBalancerName)
	assert.Equal(t, "RDSListener", exp.ListenerName)
	assert.Equal(t, 5432, exp.ListenerPort)
	assert.False(t, exp.Source.Unrestricted())

	assert.Len(t, plan.Security().Boundaries(), 6)
	assert.Len(t, plan.Outputs(), 6)
	assert.True(t, plan.Dependencies().Has(topology.NodeLoadBalancer))
	assert.True(t, plan.Dependencies().Has(topology.NodeListener))

	inbound := plan.Security().Inbound(topology.LoadBalancer)
	require.Len(t, inbound, 1)
	cidr, isAddr := inbound[0].Source.CIDR()
	require.True(t, isAddr)
	assert.Equal(t, "1.2.3.4/32", cidr)
	assert.Equal(t, 5432, inbound[0].Port)

	assert.True(t, plan.Security().HasEdge(topology.FromBoundary(topology.LoadBalancer), topology.Database, 5432))
}

func TestBuild_UnrestrictedExposure(t *testing.T) {
	for _, src := range []string{topology.AnyAddress, "0.0.0.0"} {
		t.Run(src, func(t *testing.T) {
			opts := mycooldb()
			opts.WithExposure = true
			opts.ExposureSourceAddress = src
			plan := mustPlan(t, opts, buildTime)

			inbound := plan.Security().Inbound(topology.LoadBalancer)
			require.Len(t, inbound, 1)
			assert.True(t, inbound[0].Source.IsAnyIPv4())
		})
	}
}

func TestBuild_SecurityEdges(t *testing.T) {
	plan := mustPlan(t, mycooldb(), buildTime)
	g := plan.Security()

	dbInbound := g.Inbound(topology.Database)
	require.Len(t, dbInbound, 2)
	for _, e := range dbInbound {
		src, ok := e.Source.Boundary()
		require.True(t, ok)
		assert.Contains(t, []topology.BoundaryID{topology.RotationExecutor, topology.Bastion}, src)
		assert.Equal(t, 5432, e.Port)
	}

	bastionInbound := g.Inbound(topology.Bastion)
	require.Len(t, bastionInbound, 1)
	cidr, _ := bastionInbound[0].Source.CIDR()
	assert.Equal(t, "203.0.113.10/32", cidr)
	assert.Equal(t, topology.SSHPort, bastionInbound[0].Port)

	// directed only
	assert.False(t, g.HasEdge(topology.FromBoundary(topology.Database), topology.Bastion, 5432))
	assert.Empty(t, g.Inbound(topology.RotationExecutor))
}

func TestBuild_CustomPort(t *testing.T) {
	opts := mycooldb()
	opts.DatabasePort = 6543
	opts.WithExposure = true
	opts.ExposureSourceAddress = "1.2.3.4"
	plan := mustPlan(t, opts, buildTime)

	for _, e := range plan.Security().Edges() {
		if e.Destination == topology.Bastion {
			continue
		}
		assert.Equal(t, 6543, e.Port, e.String())
	}
	exp, _ := plan.Exposure()
	assert.Equal(t, 6543, exp.ListenerPort)
}

func TestBuild_DependencyOrder(t *testing.T) {
	opts := mycooldb()
	opts.WithExposure = true
	opts.ExposureSourceAddress = "1.2.3.4"
	deps := mustPlan(t, opts, buildTime).Dependencies()

	assert.True(t, deps.Precedes(topology.NodeDatabase, topology.NodeQueryAction))
	assert.True(t, deps.Precedes(topology.NodeQueryAction, topology.NodeLoadBalancer))
	assert.True(t, deps.Precedes(topology.NodeQueryAction, topology.NodeListener))
	assert.True(t, deps.DependsOn(topology.NodeListener, topology.NodeDatabase))
	assert.True(t, deps.DependsOn(topology.NodeLoadBalancer, topology.NodeQueryAction))
	assert.True(t, deps.DependsOn(topology.NodeRotationSchedule, topology.NodeCredential))
	assert.True(t, deps.DependsOn(topology.NodeDatabase, topology.BoundaryNode(topology.Database)))

	order, err := deps.TopologicalOrder()
	require.NoError(t, err)
	pos := map[topology.NodeID]int{}
	for i, n := range order {
		pos[n] = i
	}
	for _, n := range order {
		for _, d := range deps.DirectDependencies(n) {
			assert.Less(t, pos[d], pos[n], "%s must come after %s", n, d)
		}
	}
}

func TestBuild_RoundTrip(t *testing.T) {
	opts := mycooldb()
	opts.WithExposure = true
	opts.ExposureSourceAddress = "1.2.3.4"

	a := mustPlan(t, opts, buildTime)
	b := mustPlan(t, opts, buildTime.Add(time.Hour))

	assert.Equal(t, a.Dependencies().Order(), b.Dependencies().Order())
	assert.Equal(t, a.Security().Edges(), b.Security().Edges())
	assert.Equal(t, a.Outputs(), b.Outputs())

	ea, _ := a.Exposure()
	eb, _ := b.Exposure()
	assert.NotEqual(t, ea.Query.Key, eb.Query.Key)
	ea.Query.Key, eb.Query.Key = "", ""
	assert.Equal(t, ea, eb)
}

func TestBuild_FlowLogs(t *testing.T) {
	plan := mustPlan(t, mycooldb(), buildTime)
	assert.True(t, plan.Network().FlowLogs)
	assert.True(t, plan.Dependencies().Has(topology.NodeFlowLogs))
	assert.Len(t, plan.Dashboard().LogQueries, 2)

	opts := mycooldb()
	opts.DisableFlowLogs = true
	plan = mustPlan(t, opts, buildTime)
	assert.False(t, plan.Network().FlowLogs)
	assert.False(t, plan.Dependencies().Has(topology.NodeFlowLogs))
	require.Len(t, plan.Dashboard().LogQueries, 1)
	assert.Equal(t, []string{"/aws/rds/instance/mycooldb/postgresql"}, plan.Dashboard().LogQueries[0].LogGroupNames)
}

func TestBuild_Dashboard(t *testing.T) {
	d := mustPlan(t, mycooldb(), buildTime).Dashboard()

	assert.Equal(t, topology.DashboardName, d.Name)
	assert.Equal(t, 12*time.Hour, d.DefaultInterval)
	assert.Equal(t, []string{topology.CPUAlarmName, topology.StorageAlarmName}, d.AlarmWidgets)
	assert.Contains(t, d.LogQueries[0].Query, "filter @logStream = 'mycooldb.0'")
}

func TestPlan_AccessorsReturnCopies(t *testing.T) {
	plan := mustPlan(t, mycooldb(), buildTime)

	plan.Tags()["project"] = "changed"
	plan.Database().Parameters["log_min_duration_statement"] = "100"
	outs := plan.Outputs()
	outs[0].Name = "changed"

	assert.Equal(t, "mycooldb", plan.Tags()["project"])
	assert.Equal(t, "0", plan.Database().Parameters["log_min_duration_statement"])
	assert.Equal(t, topology.OutputVpcID, plan.Outputs()[0].Name)
}

func TestPlan_GraphsCannotBeMutated(t *testing.T) {
	plan := mustPlan(t, mycooldb(), buildTime)

	sec, ok := plan.Security().(*topology.SecurityGraph)
	require.True(t, ok)
	sec.DeclareBoundary(topology.LoadBalancer)
	require.NoError(t, sec.Allow(topology.AnyIPv4(), topology.Database, 5432, "sneaky"))

	deps, ok := plan.Dependencies().(*topology.DependencyGraph)
	require.True(t, ok)
	require.NoError(t, deps.Declare(topology.NodeID("extra"), topology.NodeVpc))

	assert.False(t, plan.Security().HasBoundary(topology.LoadBalancer))
	assert.False(t, plan.Security().HasEdge(topology.AnyIPv4(), topology.Database, 5432))
	assert.Len(t, plan.Security().Edges(), 3)
	assert.False(t, plan.Dependencies().Has(topology.NodeID("extra")))
}
