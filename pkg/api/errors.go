package api

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// GraphParseError reports a malformed flow definition entry
	GraphParseError struct {
		Err   error
		Kind  string
		Index int
	}

	// CyclicGraphError names the nodes that could not be scheduled because
	// they participate in (or depend on) a dependency cycle
	CyclicGraphError struct {
		Unresolved []NodeID
	}

	// FlowExecutionError reports the node that aborted a flow execution
	// and the last error it returned
	FlowExecutionError struct {
		Err    error
		NodeID NodeID
	}
)

var (
	ErrGraphParse         = errors.New("invalid flow definition")
	ErrCyclicGraph        = errors.New("cyclic graph")
	ErrFlowExecution      = errors.New("flow execution failed")
	ErrFlowNotFound       = errors.New("flow not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrNodeNotFound       = errors.New("node not found")
	ErrArtifactNotFound   = errors.New("artifact not found")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrCheckpointConflict = errors.New("checkpoint version conflict")
)

const (
	ParseKindDefinition = "definition"
	ParseKindNode       = "node"
	ParseKindEdge       = "edge"
)

func (e *GraphParseError) Error() string {
	if e.Kind == ParseKindDefinition {
		return fmt.Sprintf("%s: %v", ErrGraphParse, e.Err)
	}
	return fmt.Sprintf("%s: %s %d: %v", ErrGraphParse, e.Kind, e.Index, e.Err)
}

func (e *GraphParseError) Unwrap() []error {
	return []error{ErrGraphParse, e.Err}
}

func (e *CyclicGraphError) Error() string {
	ids := make([]string, len(e.Unresolved))
	for i, id := range e.Unresolved {
		ids[i] = string(id)
	}
	return fmt.Sprintf("%s: unresolved nodes [%s]",
		ErrCyclicGraph, strings.Join(ids, ", "))
}

func (e *CyclicGraphError) Unwrap() error {
	return ErrCyclicGraph
}

func (e *FlowExecutionError) Error() string {
	return fmt.Sprintf("%s: node %s: %v", ErrFlowExecution, e.NodeID, e.Err)
}

func (e *FlowExecutionError) Unwrap() []error {
	return []error{ErrFlowExecution, e.Err}
}
