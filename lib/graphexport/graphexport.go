// Package graphexport renders a plan's dependency and security graphs in DOT
// or Mermaid format.
package graphexport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emicklei/dot"

	"github.com/single-instance-rds/infra/lib/topology"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for markdown rendering.
	FormatMermaid Format = "mermaid"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatDOT:
		return FormatDOT, nil
	case FormatMermaid:
		return FormatMermaid, nil
	default:
		return "", fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", s)
	}
}

// Kind selects which graph of the plan is exported.
type Kind string

const (
	KindDependencies Kind = "dependencies"
	KindSecurity     Kind = "security"
)

// Generator writes plan graphs.
type Generator struct {
	// Format defaults to dot.
	Format Format

	// ClusterByStage groups dependency nodes by their stage prefix
	// (network, security, database, ...).
	ClusterByStage bool
}

// Generate writes the selected graph of plan to w.
func (g *Generator) Generate(plan topology.Plan, kind Kind, w io.Writer) error {
	var graph *dot.Graph
	switch kind {
	case KindDependencies, "":
		graph = g.dependencyGraph(plan.Dependencies())
	case KindSecurity:
		graph = securityGraph(plan.Security())
	default:
		return fmt.Errorf("unknown graph kind: %s", kind)
	}

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(plan topology.Plan, kind Kind) (string, error) {
	var sb strings.Builder
	if err := g.Generate(plan, kind, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func newGraph() *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")
	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})
	return graph
}

// dependencyGraph draws an edge from each node to the nodes it waits for.
func (g *Generator) dependencyGraph(deps topology.DependencyGraphView) *dot.Graph {
	graph := newGraph()

	clusters := map[string]*dot.Graph{}
	nodes := map[topology.NodeID]dot.Node{}
	for _, id := range deps.Order() {
		parent := graph
		if g.ClusterByStage {
			stage := stageOf(id)
			c, ok := clusters[stage]
			if !ok {
				c = graph.Subgraph("cluster_"+stage, dot.ClusterOption{})
				c.Attr("label", stage)
				c.Attr("style", "rounded")
				clusters[stage] = c
			}
			parent = c
		}
		n := parent.Node(string(id))
		n.Label(string(id))
		nodes[id] = n
	}

	for _, id := range deps.Order() {
		for _, dep := range deps.DirectDependencies(id) {
			graph.Edge(nodes[id], nodes[dep])
		}
	}
	return graph
}

// securityGraph draws allow-edges from source to destination, labelled with
// the port. Address sources are drawn as ellipses.
func securityGraph(sec topology.SecurityGraphView) *dot.Graph {
	graph := newGraph()

	for _, b := range sec.Boundaries() {
		graph.Node(string(b)).Label(string(b))
	}
	for _, e := range sec.Edges() {
		from := graph.Node(e.Source.String())
		if _, isAddr := e.Source.CIDR(); isAddr {
			from.Attr("shape", "ellipse")
			from.Attr("style", "dashed")
			from.Label(e.Source.String())
		}
		edge := graph.Edge(from, graph.Node(string(e.Destination)))
		edge.Label("tcp/" + strconv.Itoa(e.Port))
		if e.Source.IsAnyIPv4() {
			edge.Attr("color", "red")
		}
	}
	return graph
}

func stageOf(id topology.NodeID) string {
	stage, _, _ := strings.Cut(string(id), "/")
	return stage
}
