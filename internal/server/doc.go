// Package server exposes the flow orchestrator over HTTP and streams engine
// events to WebSocket clients
package server
