package store

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/tartan/internal/config"
)

// RedisStore holds the Redis client and key prefix shared by the
// project, artifact, and checkpoint stores
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(
	ctx context.Context, cfg config.RedisConfig,
) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisStore{
		client: client,
		prefix: cfg.Prefix,
	}, nil
}

// Projects returns the project store backed by this connection
func (s *RedisStore) Projects() *RedisProjectStore {
	return &RedisProjectStore{s}
}

// Artifacts returns the artifact registry store backed by this connection
func (s *RedisStore) Artifacts() *RedisArtifactStore {
	return &RedisArtifactStore{s}
}

// Checkpoints returns the checkpoint store backed by this connection
func (s *RedisStore) Checkpoints() *RedisCheckpointStore {
	return &RedisCheckpointStore{s}
}

// Ping reports whether Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(parts ...string) string {
	if s.prefix == "" {
		return strings.Join(parts, ":")
	}
	return s.prefix + ":" + strings.Join(parts, ":")
}
