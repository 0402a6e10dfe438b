package api

import (
	"maps"
	"slices"
	"time"
)

type (
	// NodeStatus describes how a node run concluded
	NodeStatus string

	// NodeResult is the outcome of running a single node
	NodeResult struct {
		Result      any          `json:"result,omitempty"`
		Artifacts   []ArtifactID `json:"artifacts,omitempty"`
		FinishedAt  time.Time    `json:"finished_at"`
		NodeID      NodeID       `json:"node_id"`
		Status      NodeStatus   `json:"status"`
		Reason      string       `json:"reason,omitempty"`
		ExecutionID string       `json:"execution_id,omitempty"`
		Attempts    int          `json:"attempts,omitempty"`
	}

	// Checkpoint is a resumable snapshot of an in-progress flow execution.
	// Version increases with every save and guards concurrent writers
	Checkpoint struct {
		Results        map[NodeID]*NodeResult `json:"per_node_results"`
		CompletedNodes []NodeID               `json:"completed_nodes"`
		Timestamp      time.Time              `json:"timestamp"`
		ProjectID      ProjectID              `json:"project_id"`
		FlowID         FlowID                 `json:"flow_id"`
		WorkspaceID    WorkspaceID            `json:"workspace_id"`
		ActorID        ActorID                `json:"actor_id"`
		CurrentNode    NodeID                 `json:"current_node,omitempty"`
		FailedNode     NodeID                 `json:"failed_node,omitempty"`
		FailureError   string                 `json:"failure_error,omitempty"`
		Version        int64                  `json:"version"`
	}
)

const (
	NodeExecuted NodeStatus = "executed"
	NodeSkipped  NodeStatus = "skipped"
	NodeFailed   NodeStatus = "failed"
)

// ReasonArtifactsExist is reported for nodes skipped because they already
// produced artifacts
const ReasonArtifactsExist = "artifacts already exist"

// ResumePoint returns the node a resumed execution should start from: the
// failed node if one is recorded, else the last node touched
func (c *Checkpoint) ResumePoint() (NodeID, bool) {
	if c.FailedNode != "" {
		return c.FailedNode, true
	}
	if c.CurrentNode != "" {
		return c.CurrentNode, true
	}
	return "", false
}

// Clone returns a copy of the checkpoint that shares no slices or maps
func (c *Checkpoint) Clone() *Checkpoint {
	res := *c
	res.CompletedNodes = slices.Clone(c.CompletedNodes)
	res.Results = maps.Clone(c.Results)
	return &res
}
