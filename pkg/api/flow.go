package api

import (
	"encoding/json"
	"time"
)

type (
	// Flow is a named graph (or linear sequence) of nodes and edges
	Flow struct {
		Definition  FlowDefinition `json:"definition"`
		CreatedAt   time.Time      `json:"created_at"`
		UpdatedAt   time.Time      `json:"updated_at"`
		ID          FlowID         `json:"id"`
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
	}

	// FlowDefinition carries either an explicit node and edge list or a
	// flat ordered list of execution codes. Entries stay raw until the
	// graph builder parses them, so malformed entries surface as parse
	// errors before anything executes
	FlowDefinition struct {
		Nodes []json.RawMessage `json:"nodes,omitempty"`
		Edges []json.RawMessage `json:"edges,omitempty"`
		Codes []ExecutionCode   `json:"execution_codes,omitempty"`
	}

	// Project is the owner of a flow execution. Metadata is an opaque
	// container the engine records last-run information into
	Project struct {
		Metadata    Metadata    `json:"metadata,omitempty"`
		UpdatedAt   time.Time   `json:"updated_at"`
		ID          ProjectID   `json:"id"`
		WorkspaceID WorkspaceID `json:"workspace_id"`
		FlowID      FlowID      `json:"flow_id"`
		Name        string      `json:"name,omitempty"`
	}
)

const (
	MetaLastStatus     = "last_status"
	MetaLastRunAt      = "last_run_at"
	MetaLastFailedNode = "last_failed_node"
)

// NewNodeDefinition marshals typed nodes into raw definition entries
func NewNodeDefinition(nodes ...*Node) ([]json.RawMessage, error) {
	return marshalEntries(nodes)
}

// NewEdgeDefinition marshals typed edges into raw definition entries
func NewEdgeDefinition(edges ...*Edge) ([]json.RawMessage, error) {
	return marshalEntries(edges)
}

func marshalEntries[T any](entries []T) ([]json.RawMessage, error) {
	res := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		res = append(res, data)
	}
	return res, nil
}
