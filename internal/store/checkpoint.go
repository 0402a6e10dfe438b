package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/tartan/internal/checkpoint"
	"github.com/kode4food/tartan/pkg/api"
)

// RedisCheckpointStore keeps one checkpoint per project. Writes are
// optimistic transactions that WATCH the checkpoint key and compare its
// stored version before replacing or deleting it
type RedisCheckpointStore struct {
	*RedisStore
}

var _ checkpoint.Store = (*RedisCheckpointStore)(nil)

func (s *RedisCheckpointStore) Load(
	ctx context.Context, id api.ProjectID,
) (*api.Checkpoint, error) {
	cp, err := load(ctx, s.client, s.checkpointKey(id))
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, fmt.Errorf("%w: %s", api.ErrCheckpointNotFound, id)
	}
	return cp, nil
}

func (s *RedisCheckpointStore) Save(
	ctx context.Context, cp *api.Checkpoint, expected int64,
) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	key := s.checkpointKey(cp.ProjectID)
	return s.swap(ctx, cp.ProjectID, key, expected,
		func(p redis.Pipeliner) {
			p.Set(ctx, key, data, 0)
		},
	)
}

func (s *RedisCheckpointStore) Delete(
	ctx context.Context, id api.ProjectID, expected int64,
) error {
	key := s.checkpointKey(id)
	return s.swap(ctx, id, key, expected, func(p redis.Pipeliner) {
		p.Del(ctx, key)
	})
}

func (s *RedisCheckpointStore) swap(
	ctx context.Context, id api.ProjectID, key string, expected int64,
	write func(redis.Pipeliner),
) error {
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		var version int64
		if current != nil {
			version = current.Version
		}
		if version != expected {
			return fmt.Errorf("%w: %s: expected %d, found %d",
				api.ErrCheckpointConflict, id, expected, version)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			write(p)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %s", api.ErrCheckpointConflict, id)
	}
	return err
}

func (s *RedisCheckpointStore) checkpointKey(id api.ProjectID) string {
	return s.key("checkpoint", string(id))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(
	ctx context.Context, c getter, key string,
) (*api.Checkpoint, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cp api.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}
