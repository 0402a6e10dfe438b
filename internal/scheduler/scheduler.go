package scheduler

import (
	"github.com/kode4food/tartan/internal/graph"
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/util"
)

type layering struct {
	graph     *graph.Graph
	completed util.Set[api.NodeID]
	inDegree  map[api.NodeID]int
}

// ReadySets computes the execution layers of a graph. Each layer holds the
// nodes whose dependencies are satisfied by completed nodes or by earlier
// layers, in definition order. Nodes in completed are never scheduled and
// their outgoing edges count as satisfied. Nodes that can never become
// ready produce a CyclicGraphError naming them
func ReadySets(
	g *graph.Graph, completed util.Set[api.NodeID],
) ([][]api.NodeID, error) {
	l := newLayering(g, completed)

	var res [][]api.NodeID
	scheduled := 0
	ready := l.initial()
	for len(ready) > 0 {
		res = append(res, ready)
		scheduled += len(ready)
		ready = l.next(ready)
	}

	if pending := l.pending(); scheduled < pending {
		return nil, &api.CyclicGraphError{Unresolved: l.unresolved()}
	}
	return res, nil
}

// Order computes a flat execution order that respects every edge of the
// graph. It is the concatenation of the graph's ready sets
func Order(
	g *graph.Graph, completed util.Set[api.NodeID],
) ([]api.NodeID, error) {
	sets, err := ReadySets(g, completed)
	if err != nil {
		return nil, err
	}
	return Flatten(sets), nil
}

// Flatten concatenates ready sets into a single execution order
func Flatten(sets [][]api.NodeID) []api.NodeID {
	var res []api.NodeID
	for _, set := range sets {
		res = append(res, set...)
	}
	return res
}

// PredecessorsOf returns every node with a path to target, excluding the
// target itself. An unknown target has no predecessors
func PredecessorsOf(g *graph.Graph, target api.NodeID) util.Set[api.NodeID] {
	res := util.Set[api.NodeID]{}
	if !g.Contains(target) {
		return res
	}

	stack := g.Predecessors(target)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target || res.Contains(id) {
			continue
		}
		res.Add(id)
		stack = append(stack, g.Predecessors(id)...)
	}
	return res
}

func newLayering(g *graph.Graph, completed util.Set[api.NodeID]) *layering {
	if completed == nil {
		completed = util.Set[api.NodeID]{}
	}
	l := &layering{
		graph:     g,
		completed: completed,
		inDegree:  map[api.NodeID]int{},
	}
	for _, id := range g.NodeIDs() {
		if completed.Contains(id) {
			continue
		}
		l.inDegree[id] = 0
	}
	for _, e := range g.Edges() {
		if completed.Contains(e.From) || completed.Contains(e.To) {
			continue
		}
		l.inDegree[e.To]++
	}
	return l
}

func (l *layering) initial() []api.NodeID {
	var res []api.NodeID
	for _, id := range l.graph.NodeIDs() {
		if deg, ok := l.inDegree[id]; ok && deg == 0 {
			res = append(res, id)
		}
	}
	return res
}

func (l *layering) next(layer []api.NodeID) []api.NodeID {
	ready := util.Set[api.NodeID]{}
	for _, id := range layer {
		delete(l.inDegree, id)
		for _, e := range l.graph.Outgoing(id) {
			if _, ok := l.inDegree[e.To]; !ok {
				continue
			}
			l.inDegree[e.To]--
			if l.inDegree[e.To] == 0 {
				ready.Add(e.To)
			}
		}
	}
	return l.sorted(ready)
}

func (l *layering) pending() int {
	res := 0
	for _, id := range l.graph.NodeIDs() {
		if !l.completed.Contains(id) {
			res++
		}
	}
	return res
}

func (l *layering) unresolved() []api.NodeID {
	res := util.Set[api.NodeID]{}
	for id := range l.inDegree {
		res.Add(id)
	}
	return l.sorted(res)
}

func (l *layering) sorted(ids util.Set[api.NodeID]) []api.NodeID {
	res := make([]api.NodeID, 0, len(ids))
	for _, id := range l.graph.NodeIDs() {
		if ids.Contains(id) {
			res = append(res, id)
		}
	}
	return res
}
