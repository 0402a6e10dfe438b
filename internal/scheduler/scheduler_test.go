package scheduler_test

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/internal/graph"
	"github.com/kode4food/tartan/internal/scheduler"
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/util"
)

type edge [2]api.NodeID

func TestOrder(t *testing.T) {
	tests := []struct {
		name      string
		nodes     []api.NodeID
		edges     []edge
		completed []api.NodeID
		expected  []api.NodeID
		unresolve []api.NodeID
	}{
		{
			name:     "linear chain",
			nodes:    ids("a", "b", "c"),
			edges:    []edge{{"a", "b"}, {"b", "c"}},
			expected: ids("a", "b", "c"),
		},
		{
			name:     "definition order breaks ties",
			nodes:    ids("c", "b", "a"),
			expected: ids("c", "b", "a"),
		},
		{
			name:  "diamond",
			nodes: ids("a", "b", "c", "d"),
			edges: []edge{
				{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
			},
			expected: ids("a", "b", "c", "d"),
		},
		{
			name:     "edges declared against definition order",
			nodes:    ids("c", "b", "a"),
			edges:    []edge{{"a", "b"}, {"b", "c"}},
			expected: ids("a", "b", "c"),
		},
		{
			name:      "completed nodes are skipped",
			nodes:     ids("a", "b", "c"),
			edges:     []edge{{"a", "b"}, {"b", "c"}},
			completed: ids("a"),
			expected:  ids("b", "c"),
		},
		{
			name:      "everything completed",
			nodes:     ids("a", "b"),
			edges:     []edge{{"a", "b"}},
			completed: ids("a", "b"),
			expected:  nil,
		},
		{
			name:     "duplicate edges",
			nodes:    ids("a", "b"),
			edges:    []edge{{"a", "b"}, {"a", "b"}},
			expected: ids("a", "b"),
		},
		{
			name:      "two node cycle",
			nodes:     ids("a", "b"),
			edges:     []edge{{"a", "b"}, {"b", "a"}},
			unresolve: ids("a", "b"),
		},
		{
			name:      "cycle downstream of a valid prefix",
			nodes:     ids("a", "b", "c", "d"),
			edges:     []edge{{"a", "b"}, {"b", "c"}, {"c", "b"}, {"c", "d"}},
			unresolve: ids("b", "c", "d"),
		},
		{
			name:      "self edge",
			nodes:     ids("a", "b"),
			edges:     []edge{{"b", "b"}},
			unresolve: ids("b"),
		},
		{
			name:     "empty graph",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(tt.nodes, tt.edges)
			order, err := scheduler.Order(g, util.SetOf(tt.completed...))

			if tt.unresolve != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, api.ErrCyclicGraph)
				var ce *api.CyclicGraphError
				require.True(t, errors.As(err, &ce))
				assert.Equal(t, tt.unresolve, ce.Unresolved)
				assert.Nil(t, order)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, order)
			assertRespectsEdges(t, g, order)
		})
	}
}

func TestReadySets(t *testing.T) {
	g := build(
		ids("a", "b", "c", "d", "e"),
		[]edge{{"a", "c"}, {"b", "c"}, {"c", "d"}, {"a", "e"}},
	)

	sets, err := scheduler.ReadySets(g, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]api.NodeID{
		ids("a", "b"),
		ids("c", "e"),
		ids("d"),
	}, sets)

	order, err := scheduler.Order(g, nil)
	require.NoError(t, err)
	assert.Equal(t, scheduler.Flatten(sets), order)
}

func TestPredecessorsOf(t *testing.T) {
	g := build(
		ids("a", "b", "c", "d", "e"),
		[]edge{{"a", "b"}, {"b", "c"}, {"d", "c"}, {"c", "e"}},
	)

	t.Run("transitive", func(t *testing.T) {
		preds := scheduler.PredecessorsOf(g, "c")
		assert.Equal(t, ids("a", "b", "d"), util.Sorted(preds))
	})

	t.Run("root", func(t *testing.T) {
		assert.True(t, scheduler.PredecessorsOf(g, "a").IsEmpty())
	})

	t.Run("unknown target", func(t *testing.T) {
		assert.True(t, scheduler.PredecessorsOf(g, "zz").IsEmpty())
	})

	t.Run("excludes target in cycle", func(t *testing.T) {
		cyc := build(ids("x", "y"), []edge{{"x", "y"}, {"y", "x"}})
		preds := scheduler.PredecessorsOf(cyc, "x")
		assert.Equal(t, ids("y"), util.Sorted(preds))
	})
}

func TestResumeCompleteness(t *testing.T) {
	g := build(
		ids("a", "b", "c", "d", "e"),
		[]edge{{"a", "b"}, {"b", "c"}, {"d", "c"}, {"c", "e"}},
	)

	for _, target := range g.NodeIDs() {
		t.Run(string(target), func(t *testing.T) {
			preds := scheduler.PredecessorsOf(g, target)
			order, err := scheduler.Order(g, preds)
			require.NoError(t, err)

			assert.Contains(t, order, target)
			for id := range preds {
				assert.NotContains(t, order, id)
			}
			assertRespectsEdges(t, g, order)
		})
	}
}

func TestOrderRespectsEdgesRandomDAGs(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		size := 2 + rng.IntN(12)
		nodes := make([]api.NodeID, size)
		for i := range nodes {
			nodes[i] = api.NodeID(rune('a' + i))
		}

		var edges []edge
		for i := range size {
			for j := i + 1; j < size; j++ {
				if rng.IntN(3) == 0 {
					edges = append(edges, edge{nodes[i], nodes[j]})
				}
			}
		}
		shuffled := slices.Clone(nodes)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		g := build(shuffled, edges)
		order, err := scheduler.Order(g, nil)
		require.NoError(t, err)
		assert.Len(t, order, size)
		assertRespectsEdges(t, g, order)
	}
}

func assertRespectsEdges(t *testing.T, g *graph.Graph, order []api.NodeID) {
	t.Helper()
	for _, e := range g.Edges() {
		from := slices.Index(order, e.From)
		to := slices.Index(order, e.To)
		if from < 0 || to < 0 {
			continue
		}
		assert.Less(t, from, to, "%s must precede %s", e.From, e.To)
	}
}

func build(nodes []api.NodeID, edges []edge) *graph.Graph {
	g := graph.New()
	for _, id := range nodes {
		g.AddNode(&api.Node{ID: id, ExecutionCode: "unit"})
	}
	for _, e := range edges {
		g.AddEdge(&api.Edge{From: e[0], To: e[1]})
	}
	return g
}

func ids(names ...string) []api.NodeID {
	res := make([]api.NodeID, len(names))
	for i, n := range names {
		res[i] = api.NodeID(n)
	}
	return res
}
