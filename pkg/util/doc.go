// Package util provides common utility functions and data structures
//
// This package includes the generic set used by the graph builder, the
// scheduler and the checkpoint manager
package util
