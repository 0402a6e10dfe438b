package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/tartan/internal/artifact"
	"github.com/kode4food/tartan/pkg/api"
)

// RedisArtifactStore keeps artifact registry entries as JSON documents,
// indexed per project, per node, and per artifact ID by sorted sets scored
// with a per-project registration sequence
type RedisArtifactStore struct {
	*RedisStore
}

var ErrIndexCorrupt = errors.New("artifact index references missing entry")

var _ artifact.Store = (*RedisArtifactStore)(nil)

func (s *RedisArtifactStore) Add(
	ctx context.Context, e *api.ArtifactEntry,
) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	seq, err := s.client.Incr(ctx, s.seqKey(e.ProjectID)).Result()
	if err != nil {
		return err
	}

	member := redis.Z{Score: float64(seq), Member: e.ID}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.entryKey(e.ProjectID, e.ID), data, 0)
		p.ZAdd(ctx, s.projectIndex(e.ProjectID), member)
		p.ZAdd(ctx, s.nodeIndex(e.ProjectID, e.CreatedBy), member)
		p.ZAdd(ctx, s.artifactIndex(e.ProjectID, e.ArtifactID), member)
		return nil
	})
	return err
}

func (s *RedisArtifactStore) Get(
	ctx context.Context, projectID api.ProjectID, artifactID api.ArtifactID,
) (*api.ArtifactEntry, error) {
	res, err := s.list(ctx, projectID, s.artifactIndex(projectID, artifactID), 1)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: %s", api.ErrArtifactNotFound, artifactID)
	}
	return res[0], nil
}

func (s *RedisArtifactStore) ListByProject(
	ctx context.Context, projectID api.ProjectID, limit int,
) ([]*api.ArtifactEntry, error) {
	return s.list(ctx, projectID, s.projectIndex(projectID), limit)
}

func (s *RedisArtifactStore) ListByNode(
	ctx context.Context, projectID api.ProjectID, nodeID api.NodeID,
) ([]*api.ArtifactEntry, error) {
	return s.list(ctx, projectID, s.nodeIndex(projectID, nodeID), 0)
}

func (s *RedisArtifactStore) list(
	ctx context.Context, projectID api.ProjectID, index string, limit int,
) ([]*api.ArtifactEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, index, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	res := []*api.ArtifactEntry{}
	if len(ids) == 0 {
		return res, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.entryKey(projectID, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrIndexCorrupt, ids[i])
		}
		var e api.ArtifactEntry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			return nil, err
		}
		res = append(res, &e)
	}
	return res, nil
}

func (s *RedisArtifactStore) seqKey(p api.ProjectID) string {
	return s.key("artifact", string(p), "seq")
}

func (s *RedisArtifactStore) entryKey(p api.ProjectID, id string) string {
	return s.key("artifact", string(p), "entry", id)
}

func (s *RedisArtifactStore) projectIndex(p api.ProjectID) string {
	return s.key("artifact", string(p), "index")
}

func (s *RedisArtifactStore) nodeIndex(
	p api.ProjectID, n api.NodeID,
) string {
	return s.key("artifact", string(p), "node", string(n))
}

func (s *RedisArtifactStore) artifactIndex(
	p api.ProjectID, a api.ArtifactID,
) string {
	return s.key("artifact", string(p), "id", string(a))
}
