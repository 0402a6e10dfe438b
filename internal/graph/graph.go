package graph

import (
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/util"
)

type (
	// Graph is the parsed, immutable node and edge set of one flow. Every
	// edge it holds references nodes that exist in the graph
	Graph struct {
		nodes    map[api.NodeID]*api.Node
		incoming map[api.NodeID][]*api.Edge
		outgoing map[api.NodeID][]*api.Edge
		ids      []api.NodeID
		edges    []*api.Edge
	}
)

// New creates an empty Graph
func New() *Graph {
	return &Graph{
		nodes:    map[api.NodeID]*api.Node{},
		incoming: map[api.NodeID][]*api.Edge{},
		outgoing: map[api.NodeID][]*api.Edge{},
	}
}

// AddNode adds a node to the graph. It reports false if a node with the
// same ID is already present
func (g *Graph) AddNode(n *api.Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = n
	g.ids = append(g.ids, n.ID)
	return true
}

// AddEdge adds a dependency edge. Edges referencing an unknown node are
// not added and AddEdge reports false
func (g *Graph) AddEdge(e *api.Edge) bool {
	if !g.Contains(e.From) || !g.Contains(e.To) {
		return false
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e)
	g.incoming[e.To] = append(g.incoming[e.To], e)
	return true
}

// Contains reports whether the graph has a node with the given ID
func (g *Graph) Contains(id api.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given ID
func (g *Graph) Node(id api.NodeID) (*api.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns the node IDs in definition order
func (g *Graph) NodeIDs() []api.NodeID {
	res := make([]api.NodeID, len(g.ids))
	copy(res, g.ids)
	return res
}

// Edges returns every edge of the graph in definition order
func (g *Graph) Edges() []*api.Edge {
	res := make([]*api.Edge, len(g.edges))
	copy(res, g.edges)
	return res
}

// Len returns the number of nodes in the graph
func (g *Graph) Len() int {
	return len(g.ids)
}

// Incoming returns the edges that end at the given node
func (g *Graph) Incoming(id api.NodeID) []*api.Edge {
	return g.incoming[id]
}

// Outgoing returns the edges that start at the given node
func (g *Graph) Outgoing(id api.NodeID) []*api.Edge {
	return g.outgoing[id]
}

// Successors returns the distinct direct successors of a node in edge
// definition order
func (g *Graph) Successors(id api.NodeID) []api.NodeID {
	return distinct(g.outgoing[id], func(e *api.Edge) api.NodeID {
		return e.To
	})
}

// Predecessors returns the distinct direct predecessors of a node in edge
// definition order
func (g *Graph) Predecessors(id api.NodeID) []api.NodeID {
	return distinct(g.incoming[id], func(e *api.Edge) api.NodeID {
		return e.From
	})
}

func distinct(
	edges []*api.Edge, endpoint func(*api.Edge) api.NodeID,
) []api.NodeID {
	seen := util.Set[api.NodeID]{}
	var res []api.NodeID
	for _, e := range edges {
		id := endpoint(e)
		if seen.Contains(id) {
			continue
		}
		seen.Add(id)
		res = append(res, id)
	}
	return res
}
