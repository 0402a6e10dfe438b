package api

import "time"

type (
	// EventType names a non-fatal engine event
	EventType string

	// Event is published on the engine's event channel as flows progress.
	// Only the fields relevant to the event type are populated
	Event struct {
		Timestamp  time.Time  `json:"timestamp"`
		Type       EventType  `json:"type"`
		ProjectID  ProjectID  `json:"project_id"`
		FlowID     FlowID     `json:"flow_id,omitempty"`
		NodeID     NodeID     `json:"node_id,omitempty"`
		ArtifactID ArtifactID `json:"artifact_id,omitempty"`
		Error      string     `json:"error,omitempty"`
		Attempt    int        `json:"attempt,omitempty"`
	}
)

const (
	EventTypeFlowStarted        EventType = "flow_started"
	EventTypeFlowCompleted      EventType = "flow_completed"
	EventTypeFlowFailed         EventType = "flow_failed"
	EventTypeNodeStarted        EventType = "node_started"
	EventTypeNodeCompleted      EventType = "node_completed"
	EventTypeNodeSkipped        EventType = "node_skipped"
	EventTypeNodeRetrying       EventType = "node_retrying"
	EventTypeNodeFailed         EventType = "node_failed"
	EventTypeArtifactRegistered EventType = "artifact_registered"
	EventTypeArtifactFailed     EventType = "artifact_failed"
)
