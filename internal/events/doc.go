// Package events carries non-fatal engine events (node progress, artifact
// registration outcomes, flow completion) to any interested consumer
package events
