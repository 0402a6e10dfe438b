package api

import "time"

// ArtifactEntry records one artifact produced by a node within a project.
// Dependencies name other artifact IDs of the same project, in order
type ArtifactEntry struct {
	Dependencies []ArtifactID `json:"dependencies,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	ID           string       `json:"id"`
	ProjectID    ProjectID    `json:"project_id"`
	ArtifactID   ArtifactID   `json:"artifact_id"`
	Path         string       `json:"path"`
	Type         string       `json:"type"`
	CreatedBy    NodeID       `json:"created_by"`
}

const (
	ArtifactTypeMarkdown = "markdown"
	ArtifactTypeJSON     = "json"
	ArtifactTypeHTML     = "html"
	ArtifactTypeText     = "text"
)
