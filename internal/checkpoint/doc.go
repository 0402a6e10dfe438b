// Package checkpoint persists the resumable snapshot of an in-progress
// flow execution. Every project has at most one checkpoint, and each save
// is a compare-and-swap on the checkpoint's version
package checkpoint
