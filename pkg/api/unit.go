package api

import "encoding/json"

type (
	// UnitRequest is the body posted to an execution unit
	UnitRequest struct {
		Inputs Args   `json:"inputs"`
		Code   string `json:"execution_code"`
	}

	// UnitResponse is the body an execution unit replies with
	UnitResponse struct {
		Result      json.RawMessage `json:"result,omitempty"`
		ExecutionID string          `json:"execution_id,omitempty"`
		Error       string          `json:"error,omitempty"`
		Success     bool            `json:"success"`
	}

	// UnitResult is the handle returned by a successful execution unit call
	UnitResult struct {
		Result      json.RawMessage `json:"result,omitempty"`
		ExecutionID string          `json:"execution_id"`
	}
)

// Input keys the engine merges into every execution unit call
const (
	InputProjectID   = "project_id"
	InputWorkspaceID = "workspace_id"
	InputArtifacts   = "artifacts"
)
