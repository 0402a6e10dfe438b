package engine

import (
	"context"

	"github.com/kode4food/tartan/internal/scheduler"
	"github.com/kode4food/tartan/pkg/api"
)

// Plan previews the ready sets an execution of the project's flow would
// run, without executing anything
func (e *Engine) Plan(
	ctx context.Context, projectID api.ProjectID, resumeFrom api.NodeID,
) (*api.ExecutionPlan, error) {
	res, err := e.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}
	completed, err := resumeSet(res.graph, resumeFrom)
	if err != nil {
		return nil, err
	}
	sets, err := scheduler.ReadySets(res.graph, completed)
	if err != nil {
		return nil, err
	}
	return &api.ExecutionPlan{
		ReadySets: sets,
		Order:     scheduler.Flatten(sets),
		Satisfied: inDefinitionOrder(res.graph, completed),
		FlowID:    res.flow.ID,
	}, nil
}
