// Package client invokes the external execution units that perform the
// work of flow nodes
package client
