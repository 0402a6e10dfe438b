package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/kode4food/tartan/pkg/api"
	"github.com/kode4food/tartan/pkg/log"
)

var (
	ErrEntryNotObject   = errors.New("entry must be a JSON object")
	ErrInputsNotObject  = errors.New("inputs must be a JSON object")
	ErrDuplicateNode    = errors.New("duplicate node ID")
	ErrTrailingContent  = errors.New("unexpected content after entry")
	ErrEmptyDefinition  = errors.New("definition has no nodes")
	ErrDefinitionNotSet = errors.New("definition is nil")
)

// SynthesizedNodeID returns the ID given to the node built for the
// execution code at the given zero-based position of a code list
func SynthesizedNodeID(index int) api.NodeID {
	return api.NodeID(fmt.Sprintf("node_%d", index+1))
}

// Build parses a flow definition into a Graph. An explicit node list takes
// precedence; otherwise one node is synthesized per execution code and the
// nodes are chained in list order. Edges naming an unknown node are dropped
func Build(def *api.FlowDefinition) (*Graph, error) {
	if def == nil {
		return nil, parseError(api.ParseKindDefinition, 0, ErrDefinitionNotSet)
	}

	g := New()
	var err error
	switch {
	case len(def.Nodes) > 0:
		err = addNodes(g, def.Nodes)
	case len(def.Codes) > 0:
		err = addCodes(g, def.Codes)
	default:
		err = parseError(api.ParseKindDefinition, 0, ErrEmptyDefinition)
	}
	if err != nil {
		return nil, err
	}

	if err := addEdges(g, def.Edges); err != nil {
		return nil, err
	}
	return g, nil
}

func addNodes(g *Graph, entries []json.RawMessage) error {
	for i, raw := range entries {
		n, err := parseNode(raw)
		if err != nil {
			return parseError(api.ParseKindNode, i, err)
		}
		if !g.AddNode(n) {
			return parseError(api.ParseKindNode, i,
				fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID),
			)
		}
	}
	return nil
}

func addCodes(g *Graph, codes []api.ExecutionCode) error {
	var prev api.NodeID
	for i, code := range codes {
		n := &api.Node{
			ID:            SynthesizedNodeID(i),
			ExecutionCode: code,
			Name:          string(code),
		}
		if err := n.Validate(); err != nil {
			return parseError(api.ParseKindNode, i, err)
		}
		g.AddNode(n)
		if prev != "" {
			g.AddEdge(&api.Edge{From: prev, To: n.ID})
		}
		prev = n.ID
	}
	return nil
}

func addEdges(g *Graph, entries []json.RawMessage) error {
	for i, raw := range entries {
		var e api.Edge
		if err := decodeStrict(raw, &e); err != nil {
			return parseError(api.ParseKindEdge, i, err)
		}
		if err := e.Validate(); err != nil {
			return parseError(api.ParseKindEdge, i, err)
		}
		if !g.AddEdge(&e) {
			slog.Debug("Edge dropped",
				slog.String("from", string(e.From)),
				slog.String("to", string(e.To)),
				slog.Int("index", i))
		}
	}
	return nil
}

func parseNode(raw json.RawMessage) (*api.Node, error) {
	if inputs := gjson.GetBytes(raw, "inputs"); inputs.Exists() &&
		inputs.Type != gjson.Null && !inputs.IsObject() {
		return nil, ErrInputsNotObject
	}
	var n api.Node
	if err := decodeStrict(raw, &n); err != nil {
		return nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

func decodeStrict(raw json.RawMessage, target any) error {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return ErrEntryNotObject
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return err
	}
	if dec.More() {
		return ErrTrailingContent
	}
	return nil
}

func parseError(kind string, index int, err error) error {
	slog.Warn("Flow definition rejected",
		slog.String("kind", kind),
		slog.Int("index", index),
		log.Error(err))
	return &api.GraphParseError{Kind: kind, Index: index, Err: err}
}
