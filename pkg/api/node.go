package api

import (
	"errors"
	"fmt"

	"github.com/kode4food/tartan/pkg/util"
)

type (
	// Node is one schedulable unit of a flow. It invokes the external
	// execution unit named by ExecutionCode
	Node struct {
		Inputs        Args          `json:"inputs,omitempty"`
		Config        *NodeConfig   `json:"config,omitempty"`
		ID            NodeID        `json:"id"`
		ExecutionCode ExecutionCode `json:"execution_code"`
		Name          string        `json:"name,omitempty"`
		Description   string        `json:"description,omitempty"`
	}

	// NodeConfig holds node-local behavior. Unknown keys are rejected when
	// a flow definition is parsed
	NodeConfig struct {
		Work      *WorkConfig     `json:"work_config,omitempty"`
		Artifacts []*ArtifactRule `json:"artifacts,omitempty"`
	}

	// ArtifactRule describes one artifact to extract from an execution
	// unit's result. Source is a gjson path into the result
	ArtifactRule struct {
		ID        ArtifactID   `json:"id"`
		Source    string       `json:"source"`
		Type      string       `json:"type,omitempty"`
		Path      string       `json:"path,omitempty"`
		DependsOn []ArtifactID `json:"depends_on,omitempty"`
	}

	// WorkConfig configures retry behavior. Backoff values are milliseconds
	WorkConfig struct {
		MaxRetries  int    `json:"max_retries,omitempty"`
		InitBackoff int64  `json:"init_backoff,omitempty"`
		MaxBackoff  int64  `json:"max_backoff,omitempty"`
		BackoffType string `json:"backoff_type,omitempty"`
	}

	// Edge is a directed dependency between two nodes. Condition is carried
	// but never evaluated by the engine
	Edge struct {
		ArtifactMapping map[ArtifactID]ArtifactID `json:"artifact_mapping,omitempty"`
		From            NodeID                    `json:"from_node"`
		To              NodeID                    `json:"to_node"`
		Condition       string                    `json:"condition,omitempty"`
	}
)

const (
	BackoffTypeFixed       = "fixed"
	BackoffTypeLinear      = "linear"
	BackoffTypeExponential = "exponential"
)

const (
	Second int64 = 1000
	Minute       = Second * 60
	Hour         = Minute * 60
)

var (
	ErrNodeIDEmpty        = errors.New("node ID empty")
	ErrExecutionCodeEmpty = errors.New("execution code empty")
	ErrEdgeEndpointEmpty  = errors.New("edge endpoint empty")
	ErrArtifactRuleNil    = errors.New("artifact rule has nil definition")
	ErrArtifactIDEmpty    = errors.New("artifact ID empty")
	ErrArtifactSource     = errors.New("artifact source path empty")
	ErrInvalidBackoffType = errors.New("invalid backoff type")
	ErrNegativeBackoff    = errors.New("init_backoff cannot be negative")
	ErrMaxBackoffTooSmall = errors.New("max_backoff must be >= init_backoff")
)

var validBackoffTypes = util.SetOf(
	BackoffTypeFixed,
	BackoffTypeLinear,
	BackoffTypeExponential,
)

// Validate checks that the node carries the fields the engine relies on
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrNodeIDEmpty
	}
	if n.ExecutionCode == "" {
		return fmt.Errorf("%w: %s", ErrExecutionCodeEmpty, n.ID)
	}
	if n.Config == nil {
		return nil
	}
	return n.Config.Validate()
}

// Validate checks the artifact rules and retry overrides of a node
func (c *NodeConfig) Validate() error {
	for _, rule := range c.Artifacts {
		if err := rule.Validate(); err != nil {
			return err
		}
	}
	if c.Work == nil {
		return nil
	}
	return c.Work.Validate()
}

// Validate checks that an artifact rule names both its artifact and source
func (r *ArtifactRule) Validate() error {
	if r == nil {
		return ErrArtifactRuleNil
	}
	if r.ID == "" {
		return ErrArtifactIDEmpty
	}
	if r.Source == "" {
		return fmt.Errorf("%w: %s", ErrArtifactSource, r.ID)
	}
	return nil
}

// Validate checks backoff settings for consistency
func (w *WorkConfig) Validate() error {
	if w.InitBackoff < 0 {
		return ErrNegativeBackoff
	}
	if w.MaxBackoff != 0 && w.MaxBackoff < w.InitBackoff {
		return ErrMaxBackoffTooSmall
	}
	if w.BackoffType != "" && !validBackoffTypes.Contains(w.BackoffType) {
		return fmt.Errorf("%w: %s", ErrInvalidBackoffType, w.BackoffType)
	}
	return nil
}

// Validate checks that both endpoints of an edge are named
func (e *Edge) Validate() error {
	if e.From == "" || e.To == "" {
		return ErrEdgeEndpointEmpty
	}
	return nil
}

// IsValidBackoffType reports whether the named backoff type is supported
func IsValidBackoffType(name string) bool {
	return validBackoffTypes.Contains(name)
}
