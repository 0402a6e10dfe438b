package assert

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/tartan/internal/config"
	"github.com/kode4food/tartan/internal/graph"
	"github.com/kode4food/tartan/pkg/api"
)

// Wrapper wraps testify assertions with Tartan-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
	}
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= 65535)
	w.True(cfg.ExecutorTimeout > 0)
	w.True(cfg.ExecutorMaxResponse > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// OrderRespectsEdges asserts that every edge between two scheduled nodes
// runs from an earlier node to a later one
func (w *Wrapper) OrderRespectsEdges(g *graph.Graph, order []api.NodeID) {
	w.Helper()
	for _, e := range g.Edges() {
		from := slices.Index(order, e.From)
		to := slices.Index(order, e.To)
		if from < 0 || to < 0 {
			continue
		}
		w.Less(from, to, "edge %s -> %s out of order", e.From, e.To)
	}
}

// NodeStatus asserts the recorded status of a node in a summary
func (w *Wrapper) NodeStatus(
	sum *api.ExecutionSummary, id api.NodeID, expected api.NodeStatus,
) {
	w.Helper()
	res, ok := sum.Results[id]
	if !w.True(ok, "no result for node %s", id) {
		return
	}
	w.Equal(expected, res.Status)
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}
