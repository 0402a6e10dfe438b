package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/kode4food/tartan/pkg/api"
)

// Extracted is one artifact pulled out of an execution unit's result
type Extracted struct {
	Content      []byte
	Dependencies []api.ArtifactID
	ArtifactID   api.ArtifactID
	Path         string
	Type         string
}

// DescriptorPath is where execution units may describe the artifacts they
// produced when the node configures no extraction rules. Each element is an
// object with id, content, and optional type, path, and depends_on
const DescriptorPath = "artifacts"

var (
	ErrSourceNotFound = errors.New("artifact source not found in result")
	ErrBadDescriptor  = errors.New("malformed artifact descriptor")
)

var typeExtensions = map[string]string{
	api.ArtifactTypeMarkdown: ".md",
	api.ArtifactTypeJSON:     ".json",
	api.ArtifactTypeHTML:     ".html",
	api.ArtifactTypeText:     ".txt",
}

// Extract applies a node's artifact rules to an execution unit result. If
// the node has no rules, artifacts described under DescriptorPath are used
// instead. Every rule is attempted; the artifacts that could be extracted
// are returned along with an error for each rule that failed
func Extract(
	node *api.Node, result json.RawMessage,
) ([]*Extracted, []error) {
	if len(result) == 0 || !gjson.ValidBytes(result) {
		return nil, nil
	}

	rules, errs := rulesFor(node, result)
	var res []*Extracted
	for _, rule := range rules {
		ex, err := extractRule(node.ID, rule, result)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res = append(res, ex)
	}
	return res, errs
}

func rulesFor(
	node *api.Node, result json.RawMessage,
) ([]*api.ArtifactRule, []error) {
	if node.Config != nil && len(node.Config.Artifacts) > 0 {
		return node.Config.Artifacts, nil
	}

	desc := gjson.GetBytes(result, DescriptorPath)
	if !desc.IsArray() {
		return nil, nil
	}

	var rules []*api.ArtifactRule
	var errs []error
	for i, d := range desc.Array() {
		rule, err := descriptorRule(i, d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, errs
}

func descriptorRule(i int, d gjson.Result) (*api.ArtifactRule, error) {
	id := d.Get("id").String()
	if !d.IsObject() || id == "" {
		return nil, fmt.Errorf("%w: index %d", ErrBadDescriptor, i)
	}
	rule := &api.ArtifactRule{
		ID:     api.ArtifactID(id),
		Source: DescriptorPath + "." + strconv.Itoa(i) + ".content",
		Type:   d.Get("type").String(),
		Path:   d.Get("path").String(),
	}
	for _, dep := range d.Get("depends_on").Array() {
		rule.DependsOn = append(rule.DependsOn, api.ArtifactID(dep.String()))
	}
	return rule, nil
}

func extractRule(
	nodeID api.NodeID, rule *api.ArtifactRule, result json.RawMessage,
) (*Extracted, error) {
	val := gjson.GetBytes(result, rule.Source)
	if !val.Exists() {
		return nil, fmt.Errorf("%w: %s (%s)",
			ErrSourceNotFound, rule.ID, rule.Source)
	}

	content := []byte(val.Raw)
	typ := rule.Type
	if val.Type == gjson.String {
		content = []byte(val.Str)
		if typ == "" {
			typ = api.ArtifactTypeText
		}
	}
	if typ == "" {
		typ = api.ArtifactTypeJSON
	}

	p := rule.Path
	if p == "" {
		p = string(nodeID) + "/" + string(rule.ID) + typeExtensions[typ]
	}

	return &Extracted{
		Content:      content,
		Dependencies: rule.DependsOn,
		ArtifactID:   rule.ID,
		Path:         p,
		Type:         typ,
	}, nil
}
