// Package api defines the public types shared by the orchestration engine,
// its stores and its HTTP surface
//
// This package contains flow and node definitions, artifact registry entries,
// execution checkpoints, execution summaries, events and the error taxonomy
// surfaced to callers
package api
