package artifact_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/internal/artifact"
	"github.com/kode4food/tartan/pkg/api"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	reg := artifact.NewRegistry(artifact.NewMemoryStore(),
		func() time.Time { return now },
	)

	deps := []api.ArtifactID{"outline"}
	e, err := reg.Register(ctx, &api.ArtifactEntry{
		ProjectID:    "p1",
		ArtifactID:   "draft",
		Path:         "writer/draft.md",
		Type:         api.ArtifactTypeMarkdown,
		CreatedBy:    "writer",
		Dependencies: deps,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, now, e.UpdatedAt)

	deps[0] = "mutated"
	got, err := reg.Get(ctx, "p1", "draft")
	require.NoError(t, err)
	assert.Equal(t, []api.ArtifactID{"outline"}, got.Dependencies)
	assert.Equal(t, api.NodeID("writer"), got.CreatedBy)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	reg := artifact.NewRegistry(artifact.NewMemoryStore(), nil)

	_, err := reg.Register(ctx, &api.ArtifactEntry{
		ArtifactID: "a", CreatedBy: "n",
	})
	assert.ErrorIs(t, err, artifact.ErrProjectIDEmpty)

	_, err = reg.Register(ctx, &api.ArtifactEntry{
		ProjectID: "p", CreatedBy: "n",
	})
	assert.ErrorIs(t, err, api.ErrArtifactIDEmpty)

	_, err = reg.Register(ctx, &api.ArtifactEntry{
		ProjectID: "p", ArtifactID: "a",
	})
	assert.ErrorIs(t, err, artifact.ErrCreatorEmpty)
}

func TestRegisterDoesNotDeduplicate(t *testing.T) {
	ctx := context.Background()
	reg := artifact.NewRegistry(artifact.NewMemoryStore(), nil)

	first := register(t, reg, "p1", "report", "a")
	second := register(t, reg, "p1", "report", "b")
	assert.NotEqual(t, first.ID, second.ID)

	all, err := reg.ListByProject(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := reg.Get(ctx, "p1", "report")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestListing(t *testing.T) {
	ctx := context.Background()
	reg := artifact.NewRegistry(artifact.NewMemoryStore(), nil)

	register(t, reg, "p1", "one", "a")
	register(t, reg, "p1", "two", "b")
	register(t, reg, "p1", "three", "a")
	register(t, reg, "p2", "other", "a")

	t.Run("by_project_newest_first", func(t *testing.T) {
		res, err := reg.ListByProject(ctx, "p1", 0)
		require.NoError(t, err)
		assert.Equal(t,
			[]api.ArtifactID{"three", "two", "one"}, artifactIDs(res),
		)
	})

	t.Run("by_project_limit", func(t *testing.T) {
		res, err := reg.ListByProject(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Equal(t, []api.ArtifactID{"three", "two"}, artifactIDs(res))
	})

	t.Run("by_node", func(t *testing.T) {
		res, err := reg.ListByNode(ctx, "p1", "a")
		require.NoError(t, err)
		assert.Equal(t, []api.ArtifactID{"three", "one"}, artifactIDs(res))
	})

	t.Run("has_artifacts", func(t *testing.T) {
		ok, err := reg.HasArtifacts(ctx, "p1", "b")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = reg.HasArtifacts(ctx, "p2", "b")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown_project", func(t *testing.T) {
		res, err := reg.ListByProject(ctx, "nope", 0)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("get_missing", func(t *testing.T) {
		_, err := reg.Get(ctx, "p1", "missing")
		assert.ErrorIs(t, err, api.ErrArtifactNotFound)
	})
}

func TestDependenciesOf(t *testing.T) {
	ctx := context.Background()
	reg := artifact.NewRegistry(artifact.NewMemoryStore(), nil)

	register(t, reg, "p1", "outline", "a")
	register(t, reg, "p1", "notes", "a")
	register(t, reg, "p2", "sources", "a")
	_, err := reg.Register(ctx, &api.ArtifactEntry{
		ProjectID:    "p1",
		ArtifactID:   "draft",
		CreatedBy:    "b",
		Dependencies: []api.ArtifactID{"outline", "missing", "notes", "sources"},
	})
	require.NoError(t, err)

	deps, err := reg.DependenciesOf(ctx, "p1", "draft")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]api.ArtifactID{"outline", "notes"}, artifactIDs(deps),
	)

	deps, err = reg.DependenciesOf(ctx, "p1", "outline")
	require.NoError(t, err)
	assert.Empty(t, deps)

	_, err = reg.DependenciesOf(ctx, "p1", "missing")
	assert.ErrorIs(t, err, api.ErrArtifactNotFound)
}

func register(
	t *testing.T, reg *artifact.Registry,
	projectID api.ProjectID, artifactID api.ArtifactID, nodeID api.NodeID,
) *api.ArtifactEntry {
	t.Helper()
	e, err := reg.Register(context.Background(), &api.ArtifactEntry{
		ProjectID:  projectID,
		ArtifactID: artifactID,
		CreatedBy:  nodeID,
		Type:       api.ArtifactTypeText,
	})
	require.NoError(t, err)
	return e
}

func artifactIDs(entries []*api.ArtifactEntry) []api.ArtifactID {
	res := make([]api.ArtifactID, len(entries))
	for i, e := range entries {
		res[i] = e.ArtifactID
	}
	return res
}
