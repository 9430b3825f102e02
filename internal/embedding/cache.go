package embedding

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// WithLRUCache wraps a client so repeated query embeddings are served from
// an in-process expirable LRU. Batch (document) embeddings bypass the
// cache; only query texts repeat often enough to be worth holding.
func WithLRUCache(next Client, size int, ttl time.Duration) Client {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &cachedClient{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type cachedClient struct {
	next  Client
	cache *expirable.LRU[string, []float32]
}

func (c *cachedClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := c.next.Model() + "\x00" + text
	if cached, ok := c.cache.Get(key); ok {
		return cloneVector(cached), nil
	}

	vector, err := c.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneVector(vector))
	return vector, nil
}

func (c *cachedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedBatch(ctx, texts)
}

func (c *cachedClient) Model() string {
	return c.next.Model()
}

func (c *cachedClient) Dimension() int {
	return c.next.Dimension()
}

func cloneVector(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
