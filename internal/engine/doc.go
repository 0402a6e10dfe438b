// Package engine is the flow orchestrator. It resolves a project's flow,
// builds and schedules its graph, runs the nodes one at a time, and keeps
// a checkpoint after every node so a failed or interrupted execution can
// be resumed
package engine
