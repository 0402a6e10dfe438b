package artifact

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/tartan/pkg/api"
)

type (
	// Store is the durable backing of a Registry. Get returns the newest
	// entry for an artifact ID and api.ErrArtifactNotFound if there is none.
	// Lists are ordered newest-first
	Store interface {
		Add(context.Context, *api.ArtifactEntry) error
		Get(
			context.Context, api.ProjectID, api.ArtifactID,
		) (*api.ArtifactEntry, error)
		ListByProject(
			context.Context, api.ProjectID, int,
		) ([]*api.ArtifactEntry, error)
		ListByNode(
			context.Context, api.ProjectID, api.NodeID,
		) ([]*api.ArtifactEntry, error)
	}

	// Registry records the artifacts produced by nodes within a project
	Registry struct {
		store Store
		clock Clock
	}

	// Clock provides registration timestamps
	Clock func() time.Time
)

var (
	ErrProjectIDEmpty = errors.New("artifact project ID empty")
	ErrCreatorEmpty   = errors.New("artifact creator empty")
)

// NewRegistry creates a Registry over the given Store
func NewRegistry(store Store, clock Clock) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		store: store,
		clock: clock,
	}
}

// Register always creates a new entry, even when the project already has
// one with the same artifact ID
func (r *Registry) Register(
	ctx context.Context, e *api.ArtifactEntry,
) (*api.ArtifactEntry, error) {
	if e.ProjectID == "" {
		return nil, ErrProjectIDEmpty
	}
	if e.ArtifactID == "" {
		return nil, api.ErrArtifactIDEmpty
	}
	if e.CreatedBy == "" {
		return nil, fmt.Errorf("%w: %s", ErrCreatorEmpty, e.ArtifactID)
	}

	now := r.clock()
	res := *e
	res.ID = uuid.NewString()
	res.Dependencies = slices.Clone(e.Dependencies)
	res.CreatedAt = now
	res.UpdatedAt = now

	if err := r.store.Add(ctx, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Get returns the newest entry registered for an artifact ID
func (r *Registry) Get(
	ctx context.Context, projectID api.ProjectID, artifactID api.ArtifactID,
) (*api.ArtifactEntry, error) {
	return r.store.Get(ctx, projectID, artifactID)
}

// ListByProject returns a project's entries newest-first. A limit of zero
// or less returns every entry
func (r *Registry) ListByProject(
	ctx context.Context, projectID api.ProjectID, limit int,
) ([]*api.ArtifactEntry, error) {
	return r.store.ListByProject(ctx, projectID, limit)
}

// ListByNode returns the entries created by the given node
func (r *Registry) ListByNode(
	ctx context.Context, projectID api.ProjectID, nodeID api.NodeID,
) ([]*api.ArtifactEntry, error) {
	return r.store.ListByNode(ctx, projectID, nodeID)
}

// HasArtifacts reports whether the node has produced any artifact in the
// project
func (r *Registry) HasArtifacts(
	ctx context.Context, projectID api.ProjectID, nodeID api.NodeID,
) (bool, error) {
	entries, err := r.store.ListByNode(ctx, projectID, nodeID)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// DependenciesOf resolves the direct dependencies of an artifact into
// entries. Dependencies that do not resolve are omitted
func (r *Registry) DependenciesOf(
	ctx context.Context, projectID api.ProjectID, artifactID api.ArtifactID,
) ([]*api.ArtifactEntry, error) {
	entry, err := r.store.Get(ctx, projectID, artifactID)
	if err != nil {
		return nil, err
	}

	res := make([]*api.ArtifactEntry, 0, len(entry.Dependencies))
	for _, dep := range entry.Dependencies {
		d, err := r.store.Get(ctx, projectID, dep)
		if errors.Is(err, api.ErrArtifactNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}
