package helpers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/pkg/api"
)

// NewNode creates a node whose ID and execution code are the same
func NewNode(id string) *api.Node {
	return &api.Node{
		ID:            api.NodeID(id),
		ExecutionCode: api.ExecutionCode(id),
	}
}

// Chain links the given nodes into a sequence of edges
func Chain(ids ...api.NodeID) []*api.Edge {
	var res []*api.Edge
	for i := 1; i < len(ids); i++ {
		res = append(res, &api.Edge{From: ids[i-1], To: ids[i]})
	}
	return res
}

// NewFlow builds a flow with an explicit node and edge definition
func NewFlow(
	t *testing.T, id api.FlowID, nodes []*api.Node, edges []*api.Edge,
) *api.Flow {
	t.Helper()
	rawNodes, err := api.NewNodeDefinition(nodes...)
	require.NoError(t, err)
	rawEdges, err := api.NewEdgeDefinition(edges...)
	require.NoError(t, err)
	return &api.Flow{
		ID:   id,
		Name: string(id),
		Definition: api.FlowDefinition{
			Nodes: rawNodes,
			Edges: rawEdges,
		},
	}
}

// NewLinearFlow builds a flow of nodes named after their execution codes,
// each depending on the one before it
func NewLinearFlow(t *testing.T, id api.FlowID, ids ...string) *api.Flow {
	t.Helper()
	nodes := make([]*api.Node, len(ids))
	nodeIDs := make([]api.NodeID, len(ids))
	for i, n := range ids {
		nodes[i] = NewNode(n)
		nodeIDs[i] = api.NodeID(n)
	}
	return NewFlow(t, id, nodes, Chain(nodeIDs...))
}

// RawEntries converts JSON strings into raw definition entries
func RawEntries(entries ...string) []json.RawMessage {
	res := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		res[i] = json.RawMessage(e)
	}
	return res
}
