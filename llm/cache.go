package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedEmbedder memoises vectors per text so repeated queries and re-ingested
// documents do not hit the provider again.
type CachedEmbedder struct {
	inner     Embedder
	namespace string
	cache     *gocache.Cache
}

// NewCachedEmbedder wraps inner. namespace separates entries of different
// models sharing a process.
func NewCachedEmbedder(inner Embedder, namespace string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner:     inner,
		namespace: namespace,
		cache:     gocache.New(ttl, 2*ttl),
	}
}

// CacheKey derives the cache key of text under namespace.
func CacheKey(namespace, text string) string {
	hash := sha256.Sum256([]byte(namespace + "|" + text))
	return "embed:v1:" + hex.EncodeToString(hash[:])
}

// Dimensions implements Embedder.
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// Embed returns cached vectors and embeds only the misses, in one call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, t := range texts {
		if v, ok := c.cache.Get(CacheKey(c.namespace, t)); ok {
			out[i] = v.([]float32)
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(missTexts))
	}
	for j, v := range vectors {
		out[missIdx[j]] = v
		c.cache.SetDefault(CacheKey(c.namespace, missTexts[j]), v)
	}
	return out, nil
}

// ItemCount reports how many vectors are cached.
func (c *CachedEmbedder) ItemCount() int {
	return c.cache.ItemCount()
}
