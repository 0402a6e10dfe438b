package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/kode4food/tartan/internal/engine/execopt"
	"github.com/kode4food/tartan/internal/graph"
	"github.com/kode4food/tartan/internal/runner"
	"github.com/kode4food/tartan/internal/scheduler"
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
	"github.com/kode4food/tartan/pkg/util"
)

type (
	// execution is the state of one in-progress flow run
	execution struct {
		project     *api.Project
		flow        *api.Flow
		graph       *graph.Graph
		opts        *execopt.Options
		checkpoint  *api.Checkpoint
		order       []api.NodeID
		startedAt   time.Time
		workspaceID api.WorkspaceID
		actorID     api.ActorID
	}

	// resolved is a project together with its flow and built graph
	resolved struct {
		project *api.Project
		flow    *api.Flow
		graph   *graph.Graph
	}
)

var (
	ErrProjectIDEmpty    = errors.New("project ID empty")
	ErrFlowIDEmpty       = errors.New("flow ID empty")
	ErrProjectFlowEmpty  = errors.New("project has no flow")
	ErrNoArtifactStorage = errors.New("artifact storage not configured")
)

// Execute runs the project's flow to completion or to the first node that
// fails every attempt. Executions of the same project are serialized. A
// failed node yields a FlowExecutionError and leaves a checkpoint that
// ResumeFromCheckpoint can pick up
func (e *Engine) Execute(
	ctx context.Context, projectID api.ProjectID,
	workspaceID api.WorkspaceID, actorID api.ActorID,
	opts ...execopt.Applier,
) (*api.ExecutionSummary, error) {
	unlock, err := e.locks.acquire(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o := execopt.DefaultOptions(opts...)
	return e.execute(ctx, projectID, workspaceID, actorID, o)
}

func (e *Engine) execute(
	ctx context.Context, projectID api.ProjectID,
	workspaceID api.WorkspaceID, actorID api.ActorID, o *execopt.Options,
) (*api.ExecutionSummary, error) {
	ex, err := e.prepare(ctx, projectID, workspaceID, actorID, o)
	if err != nil {
		slog.Error("Flow execution rejected",
			log.ProjectID(projectID),
			log.Error(err))
		return nil, err
	}

	slog.Info("Flow execution started",
		log.ProjectID(projectID),
		log.FlowID(ex.flow.ID),
		log.NodeID(o.ResumeFrom),
		slog.Int("nodes", len(ex.order)))
	e.publishFlow(ex, api.EventTypeFlowStarted, nil)

	for _, id := range ex.order {
		if err := e.runNode(ctx, ex, id); err != nil {
			return nil, err
		}
	}
	return e.complete(ctx, ex)
}

func (e *Engine) prepare(
	ctx context.Context, projectID api.ProjectID,
	workspaceID api.WorkspaceID, actorID api.ActorID, o *execopt.Options,
) (*execution, error) {
	res, err := e.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}

	completed, err := resumeSet(res.graph, o.ResumeFrom)
	if err != nil {
		return nil, err
	}

	order, err := scheduler.Order(res.graph, completed)
	if err != nil {
		return nil, err
	}

	prev, err := e.checkpoints.Load(ctx, projectID)
	if err != nil && !errors.Is(err, api.ErrCheckpointNotFound) {
		return nil, err
	}

	if workspaceID == "" {
		workspaceID = res.project.WorkspaceID
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = e.config.Work.MaxRetries
	}

	return &execution{
		project:     res.project,
		flow:        res.flow,
		graph:       res.graph,
		opts:        o,
		order:       order,
		startedAt:   e.clock(),
		workspaceID: workspaceID,
		actorID:     actorID,
		checkpoint: newCheckpoint(
			res, prev, completed, workspaceID, actorID,
		),
	}, nil
}

// resolve loads a project, its flow, and the flow's graph
func (e *Engine) resolve(
	ctx context.Context, projectID api.ProjectID,
) (*resolved, error) {
	if projectID == "" {
		return nil, ErrProjectIDEmpty
	}
	project, err := e.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.FlowID == "" {
		return nil, fmt.Errorf("%w: %s", ErrProjectFlowEmpty, projectID)
	}
	flow, err := e.flows.GetFlow(ctx, project.FlowID)
	if err != nil {
		return nil, err
	}
	g, err := e.graphs.Get(flow)
	if err != nil {
		return nil, err
	}
	return &resolved{
		project: project,
		flow:    flow,
		graph:   g,
	}, nil
}

// resumeSet returns the nodes treated as completed when execution starts
// at from: every node with a path to it
func resumeSet(g *graph.Graph, from api.NodeID) (util.Set[api.NodeID], error) {
	if from == "" {
		return util.Set[api.NodeID]{}, nil
	}
	if !g.Contains(from) {
		return nil, fmt.Errorf("%w: %s", api.ErrNodeNotFound, from)
	}
	return scheduler.PredecessorsOf(g, from), nil
}

// newCheckpoint starts the execution's checkpoint at the stored version.
// Results recorded earlier for nodes now treated as completed carry over
func newCheckpoint(
	res *resolved, prev *api.Checkpoint, completed util.Set[api.NodeID],
	workspaceID api.WorkspaceID, actorID api.ActorID,
) *api.Checkpoint {
	cp := &api.Checkpoint{
		ProjectID:      res.project.ID,
		FlowID:         res.flow.ID,
		WorkspaceID:    workspaceID,
		ActorID:        actorID,
		CompletedNodes: inDefinitionOrder(res.graph, completed),
		Results:        map[api.NodeID]*api.NodeResult{},
	}
	if prev == nil {
		return cp
	}
	cp.Version = prev.Version
	if prev.FlowID != res.flow.ID {
		return cp
	}
	for id, r := range prev.Results {
		if completed.Contains(id) {
			cp.Results[id] = r
		}
	}
	return cp
}

func inDefinitionOrder(
	g *graph.Graph, ids util.Set[api.NodeID],
) []api.NodeID {
	res := []api.NodeID{}
	for _, id := range g.NodeIDs() {
		if ids.Contains(id) {
			res = append(res, id)
		}
	}
	return res
}

func (e *Engine) runNode(
	ctx context.Context, ex *execution, id api.NodeID,
) error {
	node, _ := ex.graph.Node(id)
	inputs, deps := e.mappedArtifacts(ctx, ex, id)

	res, err := e.runner.Run(ctx, &runner.Request{
		Node:                node,
		Inputs:              inputs,
		DefaultDependencies: deps,
		FlowID:              ex.flow.ID,
		ProjectID:           ex.project.ID,
		WorkspaceID:         ex.workspaceID,
		ActorID:             ex.actorID,
		PreserveArtifacts:   ex.opts.PreserveArtifacts,
		MaxRetries:          ex.opts.MaxRetries,
	})

	cp := ex.checkpoint
	cp.CurrentNode = id
	cp.Results[id] = res
	if err != nil {
		return e.fail(ctx, ex, id, err)
	}

	// the unit has run, so its completion is recorded even if ctx ends now
	bg := context.WithoutCancel(ctx)
	cp.CompletedNodes = append(cp.CompletedNodes, id)
	if err := e.checkpoints.Save(bg, cp); err != nil {
		slog.Error("Checkpoint save failed",
			log.ProjectID(ex.project.ID),
			log.NodeID(id),
			log.Error(err))
		e.publishFlow(ex, api.EventTypeFlowFailed, func(ev *api.Event) {
			ev.NodeID = id
			ev.Error = err.Error()
		})
		return err
	}
	return nil
}

// mappedArtifacts resolves the artifacts that incoming edges map into the
// node. The node receives them as a map from expected artifact ID to
// storage path, and the upstream artifact IDs become the default
// dependencies of whatever the node produces
func (e *Engine) mappedArtifacts(
	ctx context.Context, ex *execution, id api.NodeID,
) (api.Args, []api.ArtifactID) {
	paths := map[string]any{}
	var deps []api.ArtifactID
	for _, edge := range ex.graph.Incoming(id) {
		for _, from := range slices.Sorted(maps.Keys(edge.ArtifactMapping)) {
			entry, err := e.registry.Get(ctx, ex.project.ID, from)
			if err != nil {
				slog.Debug("Mapped artifact unavailable",
					log.ProjectID(ex.project.ID),
					log.NodeID(id),
					log.ArtifactID(from),
					log.Error(err))
				continue
			}
			paths[string(edge.ArtifactMapping[from])] = entry.Path
			if !slices.Contains(deps, from) {
				deps = append(deps, from)
			}
		}
	}
	if len(paths) == 0 {
		return nil, nil
	}
	return api.Args{api.InputArtifacts: paths}, deps
}

func (e *Engine) fail(
	ctx context.Context, ex *execution, id api.NodeID, cause error,
) error {
	cp := ex.checkpoint
	cp.FailedNode = id
	cp.FailureError = cause.Error()

	bg := context.WithoutCancel(ctx)
	if err := e.checkpoints.Save(bg, cp); err != nil {
		slog.Error("Checkpoint save failed",
			log.ProjectID(ex.project.ID),
			log.NodeID(id),
			log.Error(err))
	}
	e.recordRun(bg, ex.project.ID, api.FlowFailed, id)

	slog.Error("Flow execution failed",
		log.ProjectID(ex.project.ID),
		log.FlowID(ex.flow.ID),
		log.NodeID(id),
		log.Error(cause))
	e.publishFlow(ex, api.EventTypeFlowFailed, func(ev *api.Event) {
		ev.NodeID = id
		ev.Error = cause.Error()
	})
	return &api.FlowExecutionError{NodeID: id, Err: cause}
}

func (e *Engine) complete(
	ctx context.Context, ex *execution,
) (*api.ExecutionSummary, error) {
	cp := ex.checkpoint
	bg := context.WithoutCancel(ctx)
	if err := e.checkpoints.Clear(bg, cp); err != nil {
		slog.Error("Checkpoint clear failed",
			log.ProjectID(ex.project.ID),
			log.Error(err))
		return nil, err
	}
	e.recordRun(bg, ex.project.ID, api.FlowCompleted, "")

	slog.Info("Flow execution completed",
		log.ProjectID(ex.project.ID),
		log.FlowID(ex.flow.ID),
		slog.Int("nodes", len(ex.order)))
	e.publishFlow(ex, api.EventTypeFlowCompleted, nil)

	return &api.ExecutionSummary{
		Results:     cp.Results,
		Order:       ex.order,
		Completed:   cp.CompletedNodes,
		StartedAt:   ex.startedAt,
		FinishedAt:  e.clock(),
		ProjectID:   ex.project.ID,
		FlowID:      ex.flow.ID,
		Status:      api.FlowCompleted,
		ResumedFrom: ex.opts.ResumeFrom,
	}, nil
}

// recordRun stores last-run information in the project's metadata. It
// never fails the execution
func (e *Engine) recordRun(
	ctx context.Context, id api.ProjectID, status api.FlowStatus,
	failed api.NodeID,
) {
	project, err := e.projects.GetProject(ctx, id)
	if err != nil {
		slog.Warn("Project metadata not updated",
			log.ProjectID(id),
			log.Error(err))
		return
	}

	now := e.clock()
	project.Metadata = project.Metadata.Apply(api.Metadata{
		api.MetaLastStatus: string(status),
		api.MetaLastRunAt:  now.Format(time.RFC3339Nano),
	})
	if failed != "" {
		project.Metadata[api.MetaLastFailedNode] = string(failed)
	} else {
		delete(project.Metadata, api.MetaLastFailedNode)
	}
	project.UpdatedAt = now

	if err := e.projects.UpdateProject(ctx, project); err != nil {
		slog.Warn("Project metadata not updated",
			log.ProjectID(id),
			log.Error(err))
	}
}

func (e *Engine) publishFlow(
	ex *execution, typ api.EventType, fill func(*api.Event),
) {
	ev := &api.Event{
		Timestamp: e.clock(),
		Type:      typ,
		ProjectID: ex.project.ID,
		FlowID:    ex.flow.ID,
	}
	if fill != nil {
		fill(ev)
	}
	e.events.Publish(ev)
}
