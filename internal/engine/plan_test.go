package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/internal/assert"
	"github.com/kode4food/tartan/internal/assert/helpers"
	"github.com/kode4food/tartan/pkg/api"
)

func diamond(t *testing.T) *api.Flow {
	nodes := []*api.Node{
		helpers.NewNode("a"), helpers.NewNode("b"),
		helpers.NewNode("c"), helpers.NewNode("d"),
	}
	edges := []*api.Edge{
		{From: "a", To: "b"}, {From: "a", To: "c"},
		{From: "b", To: "d"}, {From: "c", To: "d"},
	}
	return helpers.NewFlow(t, "diamond", nodes, edges)
}

func TestPlan(t *testing.T) {
	as := assert.New(t)
	env := helpers.NewTestEngine(t)
	ctx := context.Background()
	env.SeedProject(t, "p1", diamond(t))

	plan, err := env.Engine.Plan(ctx, "p1", "")
	require.NoError(t, err)
	as.Equal([][]api.NodeID{{"a"}, {"b", "c"}, {"d"}}, plan.ReadySets)
	as.Equal([]api.NodeID{"a", "b", "c", "d"}, plan.Order)
	as.Empty(plan.Satisfied)
	as.Equal(api.FlowID("diamond"), plan.FlowID)

	plan, err = env.Engine.Plan(ctx, "p1", "d")
	require.NoError(t, err)
	as.Equal([][]api.NodeID{{"d"}}, plan.ReadySets)
	as.Equal([]api.NodeID{"a", "b", "c"}, plan.Satisfied)

	plan, err = env.Engine.Plan(ctx, "p1", "b")
	require.NoError(t, err)
	as.Equal([][]api.NodeID{{"b", "c"}, {"d"}}, plan.ReadySets)

	_, err = env.Engine.Plan(ctx, "p1", "zzz")
	as.ErrorIs(err, api.ErrNodeNotFound)
	as.Empty(env.MockRunner.GetInvocations())
}

func TestPlanFollowsFlowUpdates(t *testing.T) {
	as := assert.New(t)
	env := helpers.NewTestEngine(t)
	ctx := context.Background()
	env.SeedProject(t, "p1", helpers.NewLinearFlow(t, "f1", "a", "b"))

	plan, err := env.Engine.Plan(ctx, "p1", "")
	require.NoError(t, err)
	as.Equal([]api.NodeID{"a", "b"}, plan.Order)

	require.NoError(t, env.Engine.UpdateFlow(ctx,
		helpers.NewLinearFlow(t, "f1", "a", "b", "c"),
	))

	plan, err = env.Engine.Plan(ctx, "p1", "")
	require.NoError(t, err)
	as.Equal([]api.NodeID{"a", "b", "c"}, plan.Order)
}
