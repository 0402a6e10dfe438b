package api

type (
	// ExecuteRequest contains parameters for executing a project's flow
	ExecuteRequest struct {
		PreserveArtifacts *bool       `json:"preserve_artifacts,omitempty"`
		WorkspaceID       WorkspaceID `json:"workspace_id"`
		ActorID           ActorID     `json:"actor_id"`
		ResumeFrom        NodeID      `json:"resume_from,omitempty"`
		MaxRetries        int         `json:"max_retries,omitempty"`
	}

	// ResumeRequest contains parameters for resuming from a checkpoint
	ResumeRequest struct {
		WorkspaceID WorkspaceID `json:"workspace_id"`
	}

	// PlanRequest contains parameters for previewing an execution plan
	PlanRequest struct {
		ResumeFrom NodeID `json:"resume_from,omitempty"`
	}

	// ExecutionFailedResponse is returned when a flow aborts on a node
	ExecutionFailedResponse struct {
		Error      string `json:"error"`
		FailedNode NodeID `json:"failed_node"`
		Status     int    `json:"status"`
	}

	// FlowsListResponse contains a list of flow definitions
	FlowsListResponse struct {
		Flows []*Flow `json:"flows"`
		Count int     `json:"count"`
	}

	// ArtifactsListResponse contains a list of artifact registry entries
	ArtifactsListResponse struct {
		Artifacts []*ArtifactEntry `json:"artifacts"`
		Count     int              `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	// SubscribeRequest narrows the events streamed over a WebSocket
	SubscribeRequest struct {
		Type string             `json:"type"`
		Data ClientSubscription `json:"data"`
	}

	// SubscribedResponse acknowledges a subscription. Events matching it
	// are streamed from this point on
	SubscribedResponse struct {
		Type string             `json:"type"`
		Data ClientSubscription `json:"data"`
	}

	// ClientSubscription selects events by project and type
	ClientSubscription struct {
		EventTypes []EventType `json:"event_types,omitempty"`
		ProjectID  ProjectID   `json:"project_id,omitempty"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
