// Package graph holds the execution graph of a flow and the builder that
// derives it from a flow definition
package graph
