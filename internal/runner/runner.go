package runner

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kode4food/tartan/internal/artifact"
	"github.com/kode4food/tartan/internal/client"
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
)

type (
	// Runner executes individual flow nodes
	Runner struct {
		client   client.Runner
		registry *artifact.Registry
		storage  artifact.Storage
		events   Publisher
		sleep    Sleeper
		clock    Clock
		work     api.WorkConfig
	}

	// Config holds the collaborators of a Runner. Storage, Events, Sleep,
	// and Clock are optional
	Config struct {
		Client   client.Runner
		Registry *artifact.Registry
		Storage  artifact.Storage
		Events   Publisher
		Sleep    Sleeper
		Clock    Clock
		Work     api.WorkConfig
	}

	// Publisher receives the non-fatal events raised while running a node
	Publisher interface {
		Publish(*api.Event)
	}

	// Clock stamps node results
	Clock func() time.Time

	// Request describes one node run. Inputs are merged over the node's own
	// inputs, and DefaultDependencies are recorded for produced artifacts
	// whose rule names no dependencies
	Request struct {
		Node                *api.Node
		Inputs              api.Args
		DefaultDependencies []api.ArtifactID
		FlowID              api.FlowID
		ProjectID           api.ProjectID
		WorkspaceID         api.WorkspaceID
		ActorID             api.ActorID
		PreserveArtifacts   bool
		MaxRetries          int
	}

	noopPublisher struct{}
)

// New creates a Runner
func New(cfg Config) *Runner {
	r := &Runner{
		client:   cfg.Client,
		registry: cfg.Registry,
		storage:  cfg.Storage,
		events:   cfg.Events,
		sleep:    cfg.Sleep,
		clock:    cfg.Clock,
		work:     cfg.Work,
	}
	if r.events == nil {
		r.events = noopPublisher{}
	}
	if r.sleep == nil {
		r.sleep = Sleep
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	return r
}

// Run executes the node described by the request. When the execution unit
// fails on every attempt, the returned result records the failure and the
// last error is returned with it
func (r *Runner) Run(
	ctx context.Context, req *Request,
) (*api.NodeResult, error) {
	node := req.Node
	if req.PreserveArtifacts {
		exists, err := r.registry.HasArtifacts(ctx, req.ProjectID, node.ID)
		if err != nil {
			return r.failed(req, 0, err), err
		}
		if exists {
			return r.skipped(req), nil
		}
	}

	work := ResolveWork(r.nodeWork(node), r.work)
	attempts := req.MaxRetries
	if node.Config != nil && node.Config.Work != nil &&
		node.Config.Work.MaxRetries > 0 {
		attempts = node.Config.Work.MaxRetries
	}
	attempts = max(attempts, 1)

	inputs := node.Inputs.Apply(req.Inputs).Apply(api.Args{
		api.InputProjectID:   req.ProjectID,
		api.InputWorkspaceID: req.WorkspaceID,
	})

	var lastErr error
	for attempt := range attempts {
		r.publish(req, api.EventTypeNodeStarted, func(ev *api.Event) {
			ev.Attempt = attempt + 1
		})

		res, err := r.client.Invoke(ctx, node.ExecutionCode, inputs)
		if err == nil {
			return r.executed(ctx, req, res, attempt+1), nil
		}

		lastErr = err
		slog.Warn("Node execution failed",
			log.ProjectID(req.ProjectID),
			log.NodeID(node.ID),
			log.Code(node.ExecutionCode),
			log.Attempt(attempt+1),
			log.Error(err))

		if ctxErr := ctx.Err(); ctxErr != nil {
			return r.failed(req, attempt+1, ctxErr), ctxErr
		}
		if attempt+1 >= attempts {
			break
		}

		delay := Delay(&work, attempt)
		r.publish(req, api.EventTypeNodeRetrying, func(ev *api.Event) {
			ev.Attempt = attempt + 1
			ev.Error = err.Error()
		})
		if err := r.sleep(ctx, delay); err != nil {
			return r.failed(req, attempt+1, err), err
		}
	}

	return r.failed(req, attempts, lastErr), lastErr
}

func (r *Runner) nodeWork(node *api.Node) *api.WorkConfig {
	if node.Config == nil {
		return nil
	}
	return node.Config.Work
}

func (r *Runner) skipped(req *Request) *api.NodeResult {
	slog.Info("Node skipped",
		log.ProjectID(req.ProjectID),
		log.NodeID(req.Node.ID),
		slog.String("reason", api.ReasonArtifactsExist))
	r.publish(req, api.EventTypeNodeSkipped, nil)
	return &api.NodeResult{
		NodeID:     req.Node.ID,
		Status:     api.NodeSkipped,
		Reason:     api.ReasonArtifactsExist,
		FinishedAt: r.clock(),
	}
}

func (r *Runner) executed(
	ctx context.Context, req *Request, res *api.UnitResult, attempts int,
) *api.NodeResult {
	arts := r.recordArtifacts(ctx, req, res.Result)
	r.publish(req, api.EventTypeNodeCompleted, func(ev *api.Event) {
		ev.Attempt = attempts
	})

	var result any
	if len(res.Result) > 0 {
		result = res.Result
	}
	return &api.NodeResult{
		NodeID:      req.Node.ID,
		Status:      api.NodeExecuted,
		Result:      result,
		ExecutionID: res.ExecutionID,
		Attempts:    attempts,
		Artifacts:   arts,
		FinishedAt:  r.clock(),
	}
}

func (r *Runner) failed(
	req *Request, attempts int, err error,
) *api.NodeResult {
	r.publish(req, api.EventTypeNodeFailed, func(ev *api.Event) {
		ev.Attempt = attempts
		ev.Error = err.Error()
	})
	return &api.NodeResult{
		NodeID:     req.Node.ID,
		Status:     api.NodeFailed,
		Reason:     err.Error(),
		Attempts:   attempts,
		FinishedAt: r.clock(),
	}
}

// recordArtifacts writes and registers every artifact the result yields.
// Failures are reported as events and never fail the node
func (r *Runner) recordArtifacts(
	ctx context.Context, req *Request, result json.RawMessage,
) []api.ArtifactID {
	extracted, errs := artifact.Extract(req.Node, result)
	for _, err := range errs {
		r.artifactFailed(req, "", err)
	}

	var res []api.ArtifactID
	for _, ex := range extracted {
		if err := r.recordArtifact(ctx, req, ex); err != nil {
			r.artifactFailed(req, ex.ArtifactID, err)
			continue
		}
		res = append(res, ex.ArtifactID)
	}
	return res
}

func (r *Runner) recordArtifact(
	ctx context.Context, req *Request, ex *artifact.Extracted,
) error {
	if r.storage != nil {
		err := r.storage.Write(ctx, req.ProjectID, ex.Path, ex.Content)
		if err != nil {
			return err
		}
	}

	deps := ex.Dependencies
	if len(deps) == 0 {
		deps = req.DefaultDependencies
	}
	e, err := r.registry.Register(ctx, &api.ArtifactEntry{
		ProjectID:    req.ProjectID,
		ArtifactID:   ex.ArtifactID,
		Path:         ex.Path,
		Type:         ex.Type,
		CreatedBy:    req.Node.ID,
		Dependencies: deps,
	})
	if err != nil {
		return err
	}

	slog.Debug("Artifact registered",
		log.ProjectID(req.ProjectID),
		log.NodeID(req.Node.ID),
		log.ArtifactID(e.ArtifactID),
		slog.String("path", e.Path))
	r.publish(req, api.EventTypeArtifactRegistered, func(ev *api.Event) {
		ev.ArtifactID = e.ArtifactID
	})
	return nil
}

func (r *Runner) artifactFailed(
	req *Request, id api.ArtifactID, err error,
) {
	slog.Warn("Artifact registration failed",
		log.ProjectID(req.ProjectID),
		log.NodeID(req.Node.ID),
		log.ArtifactID(id),
		log.Error(err))
	r.publish(req, api.EventTypeArtifactFailed, func(ev *api.Event) {
		ev.ArtifactID = id
		ev.Error = err.Error()
	})
}

func (r *Runner) publish(
	req *Request, typ api.EventType, fill func(*api.Event),
) {
	ev := &api.Event{
		Timestamp: r.clock(),
		Type:      typ,
		ProjectID: req.ProjectID,
		FlowID:    req.FlowID,
		NodeID:    req.Node.ID,
	}
	if fill != nil {
		fill(ev)
	}
	r.events.Publish(ev)
}

func (noopPublisher) Publish(*api.Event) {}
