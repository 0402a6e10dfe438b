// Package artifact tracks the artifacts flow nodes produce within a
// project. It extracts artifact content from execution unit results,
// writes that content into the project's storage area, and records each
// artifact and its dependencies in a registry
package artifact
