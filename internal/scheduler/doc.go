// Package scheduler orders the nodes of a flow graph for execution. It
// produces layered ready sets, a flat topological order, and the set of
// nodes that must already be satisfied when resuming from a given node
package scheduler
