package topology

import (
	"fmt"

	"github.com/samber/lo"
)

// BoundaryID names a node of the security-authorization graph. The value is
// also the security group name declared for it.
type BoundaryID string

const (
	RotationExecutor BoundaryID = "RDSRotationSecurityGroup"
	Bastion          BoundaryID = "BastionSecurityGroup"
	Database         BoundaryID = "RDSSecurityGroup"
	LoadBalancer     BoundaryID = "NLBSecurityGroup"
	ServiceEndpoint  BoundaryID = "SMEndpointSecurityGroup"
	NatEgress        BoundaryID = "NATInstanceSecurityGroup"
)

// SSHPort is the administrative port opened on the bastion.
const SSHPort = 22

// anyIPv4CIDR is the CIDR used for unrestricted ingress.
const anyIPv4CIDR = "0.0.0.0/0"

// Peer is the source side of an allow-edge: a declared boundary or a literal
// address block. Only /32 blocks and the any-IPv4 block can be built.
type Peer struct {
	boundary BoundaryID
	cidr     string
}

// FromBoundary returns a peer for a declared boundary.
func FromBoundary(id BoundaryID) Peer {
	return Peer{boundary: id}
}

// FromHost returns a /32 peer.
func FromHost(h HostAddress) Peer {
	return Peer{cidr: h.CIDR()}
}

// AnyIPv4 returns the unrestricted IPv4 peer.
func AnyIPv4() Peer {
	return Peer{cidr: anyIPv4CIDR}
}

// Boundary returns the source boundary and true if the peer is a boundary.
func (p Peer) Boundary() (BoundaryID, bool) {
	return p.boundary, p.boundary != ""
}

// CIDR returns the address block and true if the peer is an address.
func (p Peer) CIDR() (string, bool) {
	return p.cidr, p.cidr != ""
}

// IsAnyIPv4 reports whether the peer is unrestricted.
func (p Peer) IsAnyIPv4() bool {
	return p.cidr == anyIPv4CIDR
}

func (p Peer) String() string {
	if p.boundary != "" {
		return string(p.boundary)
	}
	return p.cidr
}

// AllowEdge permits Source to reach Destination on a TCP port. Edges are
// directed; no reverse edge is implied.
type AllowEdge struct {
	Source      Peer
	Destination BoundaryID
	Port        int
	Description string
}

func (e AllowEdge) key() string {
	return fmt.Sprintf("%s->%s:%d", e.Source, e.Destination, e.Port)
}

func (e AllowEdge) String() string {
	return e.key()
}

// SecurityGraph is an additive allow-list graph. Re-declaring a boundary or an
// edge is a no-op and nothing is ever revoked.
type SecurityGraph struct {
	boundaries []BoundaryID
	declared   map[BoundaryID]struct{}
	edges      []AllowEdge
	edgeKeys   map[string]struct{}
}

// NewSecurityGraph returns an empty graph.
func NewSecurityGraph() *SecurityGraph {
	return &SecurityGraph{
		declared: map[BoundaryID]struct{}{},
		edgeKeys: map[string]struct{}{},
	}
}

// Clone returns an independent copy of g.
func (g *SecurityGraph) Clone() *SecurityGraph {
	if g == nil {
		return NewSecurityGraph()
	}
	return &SecurityGraph{
		boundaries: append([]BoundaryID(nil), g.boundaries...),
		declared:   lo.Assign(g.declared),
		edges:      append([]AllowEdge(nil), g.edges...),
		edgeKeys:   lo.Assign(g.edgeKeys),
	}
}

// DeclareBoundary adds id to the graph.
func (g *SecurityGraph) DeclareBoundary(id BoundaryID) {
	if _, ok := g.declared[id]; ok {
		return
	}
	g.declared[id] = struct{}{}
	g.boundaries = append(g.boundaries, id)
}

// Allow adds an edge. Both ends must be declared boundaries, unless the source
// is an address.
func (g *SecurityGraph) Allow(source Peer, destination BoundaryID, port int, description string) error {
	if _, ok := g.declared[destination]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBoundary, destination)
	}
	if src, ok := source.Boundary(); ok {
		if _, declared := g.declared[src]; !declared {
			return fmt.Errorf("%w: %s", ErrUnknownBoundary, src)
		}
	}
	edge := AllowEdge{Source: source, Destination: destination, Port: port, Description: description}
	if _, ok := g.edgeKeys[edge.key()]; ok {
		return nil
	}
	g.edgeKeys[edge.key()] = struct{}{}
	g.edges = append(g.edges, edge)
	return nil
}

// Boundaries returns the declared boundaries in declaration order.
func (g *SecurityGraph) Boundaries() []BoundaryID {
	return append([]BoundaryID(nil), g.boundaries...)
}

// HasBoundary reports whether id was declared.
func (g *SecurityGraph) HasBoundary(id BoundaryID) bool {
	_, ok := g.declared[id]
	return ok
}

// Edges returns the edges in declaration order.
func (g *SecurityGraph) Edges() []AllowEdge {
	return append([]AllowEdge(nil), g.edges...)
}

// Inbound returns the edges whose destination is id.
func (g *SecurityGraph) Inbound(id BoundaryID) []AllowEdge {
	return lo.Filter(g.edges, func(e AllowEdge, _ int) bool {
		return e.Destination == id
	})
}

// HasEdge reports whether the exact edge exists.
func (g *SecurityGraph) HasEdge(source Peer, destination BoundaryID, port int) bool {
	_, ok := g.edgeKeys[AllowEdge{Source: source, Destination: destination, Port: port}.key()]
	return ok
}
