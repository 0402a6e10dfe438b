package engine

import (
	"context"

	"github.com/kode4food/tartan/internal/graph"
	"github.com/kode4food/tartan/pkg/api"
)

// GetFlow returns a stored flow definition
func (e *Engine) GetFlow(
	ctx context.Context, id api.FlowID,
) (*api.Flow, error) {
	return e.flows.GetFlow(ctx, id)
}

// ListFlows returns every stored flow definition
func (e *Engine) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	return e.flows.ListFlows(ctx)
}

// PutFlow validates and stores a flow, replacing any existing definition
// with the same ID
func (e *Engine) PutFlow(ctx context.Context, flow *api.Flow) error {
	if err := validateFlow(flow); err != nil {
		return err
	}
	return e.flows.PutFlow(ctx, flow)
}

// UpdateFlow validates and replaces the definition of an existing flow.
// Executions already in progress keep the graph they started with
func (e *Engine) UpdateFlow(ctx context.Context, flow *api.Flow) error {
	if err := validateFlow(flow); err != nil {
		return err
	}
	return e.flows.UpdateFlow(ctx, flow)
}

// GetProject returns a stored project record
func (e *Engine) GetProject(
	ctx context.Context, id api.ProjectID,
) (*api.Project, error) {
	return e.projects.GetProject(ctx, id)
}

// UpdateProject stores a project record, creating it if needed
func (e *Engine) UpdateProject(
	ctx context.Context, project *api.Project,
) error {
	if project.ID == "" {
		return ErrProjectIDEmpty
	}
	project.UpdatedAt = e.clock()
	return e.projects.UpdateProject(ctx, project)
}

func validateFlow(flow *api.Flow) error {
	if flow.ID == "" {
		return ErrFlowIDEmpty
	}
	_, err := graph.Build(&flow.Definition)
	return err
}
