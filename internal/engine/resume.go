package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kode4food/tartan/internal/engine/execopt"
	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
)

// ResumeFromCheckpoint continues a project's execution from its stored
// checkpoint, as the actor that started it. The resume point is the
// failed node if one is recorded, else the last node touched. It returns
// nil and no error when there is nothing to resume. An empty workspaceID
// reuses the checkpoint's workspace
func (e *Engine) ResumeFromCheckpoint(
	ctx context.Context, projectID api.ProjectID,
	workspaceID api.WorkspaceID, opts ...execopt.Applier,
) (*api.ExecutionSummary, error) {
	unlock, err := e.locks.acquire(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cp, err := e.checkpoints.Load(ctx, projectID)
	if errors.Is(err, api.ErrCheckpointNotFound) {
		slog.Info("No checkpoint to resume", log.ProjectID(projectID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	point, ok := cp.ResumePoint()
	if !ok {
		return nil, nil
	}
	if workspaceID == "" {
		workspaceID = cp.WorkspaceID
	}

	o := execopt.DefaultOptions(opts...)
	o.ResumeFrom = point
	return e.execute(ctx, projectID, workspaceID, cp.ActorID, o)
}

// GetCheckpoint returns the project's stored checkpoint
func (e *Engine) GetCheckpoint(
	ctx context.Context, projectID api.ProjectID,
) (*api.Checkpoint, error) {
	return e.checkpoints.Load(ctx, projectID)
}
