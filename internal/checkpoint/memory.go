package checkpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/kode4food/tartan/pkg/api"
)

// MemoryStore is an in-process Store
type MemoryStore struct {
	checkpoints map[api.ProjectID]*api.Checkpoint
	mu          sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: map[api.ProjectID]*api.Checkpoint{},
	}
}

func (s *MemoryStore) Load(
	_ context.Context, id api.ProjectID,
) (*api.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.checkpoints[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrCheckpointNotFound, id)
	}
	return cp.Clone(), nil
}

func (s *MemoryStore) Save(
	_ context.Context, cp *api.Checkpoint, expected int64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(cp.ProjectID, expected); err != nil {
		return err
	}
	s.checkpoints[cp.ProjectID] = cp.Clone()
	return nil
}

func (s *MemoryStore) Delete(
	_ context.Context, id api.ProjectID, expected int64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(id, expected); err != nil {
		return err
	}
	delete(s.checkpoints, id)
	return nil
}

func (s *MemoryStore) check(id api.ProjectID, expected int64) error {
	var current int64
	if cp, ok := s.checkpoints[id]; ok {
		current = cp.Version
	}
	if current != expected {
		return fmt.Errorf("%w: %s: expected %d, found %d",
			api.ErrCheckpointConflict, id, expected, current)
	}
	return nil
}
