package api

import (
	"regexp"
	"strings"
)

type (
	// FlowID is a unique identifier for a flow definition
	FlowID string

	// NodeID is a unique identifier for a node within a flow
	NodeID string

	// ProjectID identifies the project a flow executes for
	ProjectID string

	// WorkspaceID identifies the workspace that owns a project
	WorkspaceID string

	// ActorID identifies who a flow executes (and resumes) as
	ActorID string

	// ArtifactID is the logical identifier of an artifact within a project
	ArtifactID string

	// ExecutionCode identifies the external execution unit a node invokes
	ExecutionCode string
)

// InvalidIDChars matches characters not permitted in flow and project IDs.
// Valid characters are: letters, digits, underscore, dot, hyphen, plus, space
var InvalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-+ ]`)

// SanitizeID lowercases an ID, removes invalid characters, replaces spaces
// with hyphens, and trims leading and trailing hyphens
func SanitizeID[T ~string](id T) T {
	lower := strings.ToLower(string(id))
	sanitized := InvalidIDChars.ReplaceAllString(lower, "")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	return T(strings.Trim(sanitized, "-"))
}
