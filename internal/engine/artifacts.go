package engine

import (
	"context"

	"github.com/kode4food/tartan/pkg/api"
)

// ListArtifacts returns a project's artifact entries newest-first
func (e *Engine) ListArtifacts(
	ctx context.Context, projectID api.ProjectID, limit int,
) ([]*api.ArtifactEntry, error) {
	return e.registry.ListByProject(ctx, projectID, limit)
}

// GetArtifact returns the newest entry for an artifact ID
func (e *Engine) GetArtifact(
	ctx context.Context, projectID api.ProjectID, id api.ArtifactID,
) (*api.ArtifactEntry, error) {
	return e.registry.Get(ctx, projectID, id)
}

// ArtifactDependencies resolves the direct dependencies of an artifact
func (e *Engine) ArtifactDependencies(
	ctx context.Context, projectID api.ProjectID, id api.ArtifactID,
) ([]*api.ArtifactEntry, error) {
	return e.registry.DependenciesOf(ctx, projectID, id)
}

// NodeArtifacts returns the entries produced by a node
func (e *Engine) NodeArtifacts(
	ctx context.Context, projectID api.ProjectID, nodeID api.NodeID,
) ([]*api.ArtifactEntry, error) {
	return e.registry.ListByNode(ctx, projectID, nodeID)
}

// ArtifactContent reads the stored content of an artifact's newest entry
func (e *Engine) ArtifactContent(
	ctx context.Context, projectID api.ProjectID, id api.ArtifactID,
) (*api.ArtifactEntry, []byte, error) {
	if e.storage == nil {
		return nil, nil, ErrNoArtifactStorage
	}
	entry, err := e.registry.Get(ctx, projectID, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := e.storage.Read(ctx, projectID, entry.Path)
	if err != nil {
		return nil, nil, err
	}
	return entry, data, nil
}
