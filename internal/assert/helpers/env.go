package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/internal/artifact"
	"github.com/kode4food/tartan/internal/config"
	"github.com/kode4food/tartan/internal/engine"
	"github.com/kode4food/tartan/internal/store"
	"github.com/kode4food/tartan/pkg/api"

	_ "gocloud.dev/blob/memblob"
)

// TestEngineEnv holds all the components needed for engine testing
type TestEngineEnv struct {
	Engine     *engine.Engine
	Redis      *miniredis.Miniredis
	Store      *store.RedisStore
	Flows      *store.BlobFlowStore
	Storage    *artifact.BlobStorage
	MockRunner *MockRunner
	Events     *EventRecorder
	Sleeper    *Sleeper
	Clock      *StepClock
	Config     *config.Config
}

// TestStart is the first reading of every test environment's clock
var TestStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// NewTestEngine creates a fully configured test engine backed by an
// in-memory Redis server, in-memory buckets, and a mock execution runner
func NewTestEngine(t *testing.T) *TestEngineEnv {
	t.Helper()
	ctx := context.Background()
	cfg := NewTestConfig()

	server := miniredis.RunT(t)
	cfg.Redis.Addr = server.Addr()
	cfg.Redis.Prefix = "test"

	rs, err := store.NewRedisStore(ctx, cfg.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rs.Close() })

	clock := NewStepClock(TestStart)
	flows, err := store.NewBlobFlowStore(ctx, cfg.FlowBucketURL, clock.Now)
	require.NoError(t, err)
	t.Cleanup(func() { _ = flows.Close() })

	storage, err := artifact.NewBlobStorage(ctx, cfg.ArtifactBucketURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	env := &TestEngineEnv{
		Redis:      server,
		Store:      rs,
		Flows:      flows,
		Storage:    storage,
		MockRunner: NewMockRunner(),
		Events:     NewEventRecorder(),
		Sleeper:    NewSleeper(),
		Clock:      clock,
		Config:     cfg,
	}
	env.Engine = env.NewEngineInstance()
	return env
}

// NewEngineInstance creates a new engine sharing the environment's stores
// and mock runner. Used to simulate a process restart
func (e *TestEngineEnv) NewEngineInstance() *engine.Engine {
	return engine.New(e.Deps(), e.Config)
}

// Deps returns the collaborators the environment's engines are built from
func (e *TestEngineEnv) Deps() engine.Deps {
	return engine.Deps{
		Flows:       e.Flows,
		Projects:    e.Store.Projects(),
		Artifacts:   e.Store.Artifacts(),
		Checkpoints: e.Store.Checkpoints(),
		Storage:     e.Storage,
		Client:      e.MockRunner,
		Events:      e.Events,
		Sleep:       e.Sleeper.Sleep,
		Clock:       e.Clock.Now,
	}
}

// SeedProject stores the flow and a project that executes it
func (e *TestEngineEnv) SeedProject(
	t *testing.T, id api.ProjectID, flow *api.Flow,
) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.Engine.PutFlow(ctx, flow))
	require.NoError(t, e.Engine.UpdateProject(ctx, &api.Project{
		ID:          id,
		WorkspaceID: "ws",
		FlowID:      flow.ID,
	}))
}
