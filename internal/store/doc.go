// Package store provides the durable backings of the engine: Redis for
// projects, artifact registry entries, and checkpoints, and a blob bucket
// for flow definitions. In-process implementations are provided for
// projects and flows
package store
