package engine

import (
	"fmt"

	"github.com/kode4food/lru"

	"github.com/kode4food/tartan/internal/graph"
	"github.com/kode4food/tartan/pkg/api"
)

// graphCache holds built graphs keyed by flow revision. A flow update
// changes its UpdatedAt, so stale graphs are never returned
type graphCache struct {
	cache *lru.Cache[*graph.Graph]
}

func newGraphCache(maxSize int) *graphCache {
	return &graphCache{
		cache: lru.NewCache[*graph.Graph](max(maxSize, 1)),
	}
}

// Get returns the graph for the flow's current revision, building it on
// first use. Parse errors are not cached
func (c *graphCache) Get(flow *api.Flow) (*graph.Graph, error) {
	return c.cache.Get(revisionKey(flow), func() (*graph.Graph, error) {
		return graph.Build(&flow.Definition)
	})
}

func revisionKey(flow *api.Flow) string {
	return fmt.Sprintf("%s@%d", flow.ID, flow.UpdatedAt.UnixNano())
}
