// Package tartan is the root of the Tartan flow orchestration engine
package tartan

const (
	// Name is the service name reported in logs and health responses
	Name = "tartan"

	// Version is the current engine version
	Version = "0.1.0"
)
