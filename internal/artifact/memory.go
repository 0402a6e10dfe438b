package artifact

import (
	"context"
	"fmt"
	"sync"

	"github.com/kode4food/tartan/pkg/api"
)

// MemoryStore is an in-process Store
type MemoryStore struct {
	entries map[api.ProjectID][]*api.ArtifactEntry
	mu      sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[api.ProjectID][]*api.ArtifactEntry{},
	}
}

func (s *MemoryStore) Add(_ context.Context, e *api.ArtifactEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := *e
	s.entries[e.ProjectID] = append(s.entries[e.ProjectID], &cpy)
	return nil
}

func (s *MemoryStore) Get(
	_ context.Context, projectID api.ProjectID, artifactID api.ArtifactID,
) (*api.ArtifactEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[projectID]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].ArtifactID == artifactID {
			cpy := *entries[i]
			return &cpy, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", api.ErrArtifactNotFound, artifactID)
}

func (s *MemoryStore) ListByProject(
	_ context.Context, projectID api.ProjectID, limit int,
) ([]*api.ArtifactEntry, error) {
	return s.collect(projectID, limit, func(*api.ArtifactEntry) bool {
		return true
	}), nil
}

func (s *MemoryStore) ListByNode(
	_ context.Context, projectID api.ProjectID, nodeID api.NodeID,
) ([]*api.ArtifactEntry, error) {
	return s.collect(projectID, 0, func(e *api.ArtifactEntry) bool {
		return e.CreatedBy == nodeID
	}), nil
}

func (s *MemoryStore) collect(
	projectID api.ProjectID, limit int, match func(*api.ArtifactEntry) bool,
) []*api.ArtifactEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[projectID]
	res := []*api.ArtifactEntry{}
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(res) >= limit {
			break
		}
		if match(entries[i]) {
			cpy := *entries[i]
			res = append(res, &cpy)
		}
	}
	return res
}
