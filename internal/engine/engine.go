package engine

import (
	"context"
	"time"

	"github.com/kode4food/tartan/internal/artifact"
	"github.com/kode4food/tartan/internal/checkpoint"
	"github.com/kode4food/tartan/internal/client"
	"github.com/kode4food/tartan/internal/config"
	"github.com/kode4food/tartan/internal/runner"
	"github.com/kode4food/tartan/pkg/api"
)

type (
	// Engine is the flow orchestrator
	Engine struct {
		flows       FlowStore
		projects    ProjectStore
		registry    *artifact.Registry
		storage     artifact.Storage
		checkpoints *checkpoint.Manager
		runner      *runner.Runner
		events      runner.Publisher
		graphs      *graphCache
		locks       *projectLocks
		config      *config.Config
		clock       Clock
	}

	// Deps holds the collaborators of an Engine. Storage, Events, Sleep,
	// and Clock are optional
	Deps struct {
		Flows       FlowStore
		Projects    ProjectStore
		Artifacts   artifact.Store
		Checkpoints checkpoint.Store
		Storage     artifact.Storage
		Client      client.Runner
		Events      runner.Publisher
		Sleep       runner.Sleeper
		Clock       Clock
	}

	// FlowStore persists flow definitions. GetFlow and UpdateFlow return
	// api.ErrFlowNotFound for unknown flows
	FlowStore interface {
		GetFlow(context.Context, api.FlowID) (*api.Flow, error)
		PutFlow(context.Context, *api.Flow) error
		UpdateFlow(context.Context, *api.Flow) error
		ListFlows(context.Context) ([]*api.Flow, error)
	}

	// ProjectStore persists project records. GetProject returns
	// api.ErrProjectNotFound for unknown projects
	ProjectStore interface {
		GetProject(context.Context, api.ProjectID) (*api.Project, error)
		UpdateProject(context.Context, *api.Project) error
	}

	// Clock provides the current time for execution bookkeeping
	Clock func() time.Time

	noopPublisher struct{}
)

// New creates an Engine from its collaborators and configuration
func New(deps Deps, cfg *config.Config) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	pub := deps.Events
	if pub == nil {
		pub = noopPublisher{}
	}

	registry := artifact.NewRegistry(deps.Artifacts, artifact.Clock(clock))
	return &Engine{
		flows:    deps.Flows,
		projects: deps.Projects,
		registry: registry,
		storage:  deps.Storage,
		checkpoints: checkpoint.NewManager(
			deps.Checkpoints, checkpoint.Clock(clock),
		),
		runner: runner.New(runner.Config{
			Client:   deps.Client,
			Registry: registry,
			Storage:  deps.Storage,
			Events:   pub,
			Sleep:    deps.Sleep,
			Clock:    runner.Clock(clock),
			Work:     cfg.Work,
		}),
		events: pub,
		graphs: newGraphCache(cfg.GraphCacheSize),
		locks:  newProjectLocks(),
		config: cfg,
		clock:  clock,
	}
}

func (noopPublisher) Publish(*api.Event) {}
