package helpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/internal/artifact"
	"github.com/kode4food/tartan/internal/checkpoint"
	"github.com/kode4food/tartan/internal/engine"
	"github.com/kode4food/tartan/pkg/api"
)

// CheckpointStoreContract exercises the versioned save and delete rules
// every checkpoint.Store must follow
func CheckpointStoreContract(t *testing.T, s checkpoint.Store) {
	t.Helper()
	ctx := context.Background()
	const id api.ProjectID = "contract"

	_, err := s.Load(ctx, id)
	assert.ErrorIs(t, err, api.ErrCheckpointNotFound)
	require.NoError(t, s.Delete(ctx, id, 0))

	cp := &api.Checkpoint{
		ProjectID:      id,
		FlowID:         "f",
		CompletedNodes: []api.NodeID{"a"},
		CurrentNode:    "a",
		Version:        1,
	}
	require.NoError(t, s.Save(ctx, cp, 0))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, []api.NodeID{"a"}, got.CompletedNodes)
	assert.Equal(t, api.NodeID("a"), got.CurrentNode)
	assert.Equal(t, api.FlowID("f"), got.FlowID)

	stale := cp.Clone()
	stale.Version = 1
	assert.ErrorIs(t, s.Save(ctx, stale, 0), api.ErrCheckpointConflict)

	next := cp.Clone()
	next.CompletedNodes = append(next.CompletedNodes, "b")
	next.Version = 2
	require.NoError(t, s.Save(ctx, next, 1))

	got, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, []api.NodeID{"a", "b"}, got.CompletedNodes)

	assert.ErrorIs(t, s.Delete(ctx, id, 1), api.ErrCheckpointConflict)
	require.NoError(t, s.Delete(ctx, id, 2))

	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, api.ErrCheckpointNotFound)
}

// ArtifactStoreContract exercises the ordering and lookup rules every
// artifact.Store must follow
func ArtifactStoreContract(t *testing.T, s artifact.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "p1", "a")
	assert.ErrorIs(t, err, api.ErrArtifactNotFound)
	empty, err := s.ListByProject(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	entries := []*api.ArtifactEntry{
		{ID: "e1", ProjectID: "p1", ArtifactID: "a", CreatedBy: "n1",
			Path: "n1/a.json", Type: api.ArtifactTypeJSON},
		{ID: "e2", ProjectID: "p1", ArtifactID: "b", CreatedBy: "n2",
			Path: "n2/b.txt", Type: api.ArtifactTypeText,
			Dependencies: []api.ArtifactID{"a"}},
		{ID: "e3", ProjectID: "p1", ArtifactID: "a", CreatedBy: "n1",
			Path: "n1/a.json", Type: api.ArtifactTypeJSON},
		{ID: "e4", ProjectID: "p2", ArtifactID: "a", CreatedBy: "n1",
			Path: "n1/a.json", Type: api.ArtifactTypeJSON},
	}
	for _, e := range entries {
		require.NoError(t, s.Add(ctx, e))
	}

	got, err := s.Get(ctx, "p1", "a")
	require.NoError(t, err)
	assert.Equal(t, "e3", got.ID)

	got, err = s.Get(ctx, "p1", "b")
	require.NoError(t, err)
	assert.Equal(t, []api.ArtifactID{"a"}, got.Dependencies)
	assert.Equal(t, "n2/b.txt", got.Path)

	all, err := s.ListByProject(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2", "e1"}, entryIDs(all))

	limited, err := s.ListByProject(ctx, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2"}, entryIDs(limited))

	byNode, err := s.ListByNode(ctx, "p1", "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e1"}, entryIDs(byNode))

	other, err := s.ListByProject(ctx, "p2", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"e4"}, entryIDs(other))
}

// ProjectStoreContract exercises every engine.ProjectStore
func ProjectStoreContract(t *testing.T, s engine.ProjectStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.GetProject(ctx, "p1")
	assert.ErrorIs(t, err, api.ErrProjectNotFound)
	assert.Error(t, s.UpdateProject(ctx, &api.Project{}))

	require.NoError(t, s.UpdateProject(ctx, &api.Project{
		ID:          "p1",
		WorkspaceID: "w1",
		FlowID:      "f1",
		Name:        "First",
		Metadata:    api.Metadata{api.MetaLastStatus: "completed"},
	}))

	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, api.WorkspaceID("w1"), got.WorkspaceID)
	assert.Equal(t, api.FlowID("f1"), got.FlowID)
	assert.Equal(t, "First", got.Name)
	status, ok := got.Metadata.GetString(api.MetaLastStatus)
	assert.True(t, ok)
	assert.Equal(t, "completed", status)

	got.FlowID = "f2"
	require.NoError(t, s.UpdateProject(ctx, got))
	got, err = s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, api.FlowID("f2"), got.FlowID)
}

// FlowStoreContract exercises every engine.FlowStore. The store's clock
// must advance between readings
func FlowStoreContract(t *testing.T, s engine.FlowStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.GetFlow(ctx, "f1")
	assert.ErrorIs(t, err, api.ErrFlowNotFound)
	assert.ErrorIs(t,
		s.UpdateFlow(ctx, &api.Flow{ID: "f1"}), api.ErrFlowNotFound,
	)
	assert.Error(t, s.PutFlow(ctx, &api.Flow{}))

	f1 := &api.Flow{
		ID:   "f1",
		Name: "First",
		Definition: api.FlowDefinition{
			Codes: []api.ExecutionCode{"x", "y"},
		},
	}
	require.NoError(t, s.PutFlow(ctx, f1))
	assert.False(t, f1.CreatedAt.IsZero())

	got, err := s.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)
	assert.Equal(t, []api.ExecutionCode{"x", "y"}, got.Definition.Codes)
	created := got.CreatedAt
	updated := got.UpdatedAt

	require.NoError(t, s.PutFlow(ctx, &api.Flow{
		ID:         "f1",
		Name:       "Replaced",
		Definition: api.FlowDefinition{Codes: []api.ExecutionCode{"z"}},
	}))
	got, err = s.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Replaced", got.Name)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.UpdatedAt.After(updated))
	updated = got.UpdatedAt

	got.Description = "changed"
	require.NoError(t, s.UpdateFlow(ctx, got))
	got, err = s.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Description)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.UpdatedAt.After(updated))

	require.NoError(t, s.PutFlow(ctx, &api.Flow{
		ID:         "f0",
		Definition: api.FlowDefinition{Codes: []api.ExecutionCode{"x"}},
	}))
	flows, err := s.ListFlows(ctx)
	require.NoError(t, err)
	if assert.Len(t, flows, 2) {
		assert.Equal(t, api.FlowID("f0"), flows[0].ID)
		assert.Equal(t, api.FlowID("f1"), flows[1].ID)
	}
}

func entryIDs(entries []*api.ArtifactEntry) []string {
	res := make([]string, len(entries))
	for i, e := range entries {
		res[i] = e.ID
	}
	return res
}
