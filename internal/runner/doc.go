// Package runner executes a single flow node: it skips nodes that already
// produced artifacts, invokes the node's execution unit with retries and
// backoff, and records the artifacts the unit produced
package runner
