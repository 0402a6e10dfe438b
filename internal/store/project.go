package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/tartan/pkg/api"
)

type (
	// RedisProjectStore keeps each project as a JSON document
	RedisProjectStore struct {
		*RedisStore
	}

	// MemoryProjectStore is an in-process project store
	MemoryProjectStore struct {
		projects map[api.ProjectID]*api.Project
		mu       sync.RWMutex
	}
)

var ErrProjectIDEmpty = errors.New("project ID empty")

func (s *RedisProjectStore) GetProject(
	ctx context.Context, id api.ProjectID,
) (*api.Project, error) {
	data, err := s.client.Get(ctx, s.projectKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", api.ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var p api.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisProjectStore) UpdateProject(
	ctx context.Context, p *api.Project,
) error {
	if p.ID == "" {
		return ErrProjectIDEmpty
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.projectKey(p.ID), data, 0).Err()
}

func (s *RedisProjectStore) projectKey(id api.ProjectID) string {
	return s.key("project", string(id))
}

// NewMemoryProjectStore creates an empty MemoryProjectStore
func NewMemoryProjectStore() *MemoryProjectStore {
	return &MemoryProjectStore{
		projects: map[api.ProjectID]*api.Project{},
	}
}

func (s *MemoryProjectStore) GetProject(
	_ context.Context, id api.ProjectID,
) (*api.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrProjectNotFound, id)
	}
	cpy := *p
	cpy.Metadata = p.Metadata.Apply(nil)
	return &cpy, nil
}

func (s *MemoryProjectStore) UpdateProject(
	_ context.Context, p *api.Project,
) error {
	if p.ID == "" {
		return ErrProjectIDEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := *p
	cpy.Metadata = p.Metadata.Apply(nil)
	s.projects[p.ID] = &cpy
	return nil
}
