package api

import "time"

type (
	// FlowStatus is the terminal state of a flow execution
	FlowStatus string

	// ExecutionSummary describes a finished flow execution
	ExecutionSummary struct {
		Results     map[NodeID]*NodeResult `json:"results"`
		Order       []NodeID               `json:"order"`
		Completed   []NodeID               `json:"completed_nodes"`
		StartedAt   time.Time              `json:"started_at"`
		FinishedAt  time.Time              `json:"finished_at"`
		ProjectID   ProjectID              `json:"project_id"`
		FlowID      FlowID                 `json:"flow_id"`
		Status      FlowStatus             `json:"status"`
		ResumedFrom NodeID                 `json:"resumed_from,omitempty"`
	}

	// ExecutionPlan previews what an execution would run. ReadySets are
	// layers of nodes whose dependencies are satisfied by earlier layers;
	// Order is their concatenation
	ExecutionPlan struct {
		ReadySets [][]NodeID `json:"ready_sets"`
		Order     []NodeID   `json:"order"`
		Satisfied []NodeID   `json:"satisfied,omitempty"`
		FlowID    FlowID     `json:"flow_id"`
	}
)

const (
	FlowCompleted FlowStatus = "completed"
	FlowFailed    FlowStatus = "failed"
)
