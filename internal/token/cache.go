package token

import (
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the memoized count entries. Snippets repeat
// heavily across requests (the same documents keep qualifying), so a small
// cache covers most of the working set.
const DefaultCacheSize = 4096

// Cached wraps a Counter with an LRU memo keyed by content hash. Counting
// with tiktoken is the expensive path; repeated snippets are counted once.
type Cached struct {
	inner Counter
	cache *lru.Cache[uint64, int]
}

// NewCached wraps inner with an LRU of the given size. size <= 0 uses
// DefaultCacheSize.
func NewCached(inner Counter, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[uint64, int](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Count implements Counter.
func (c *Cached) Count(text string) int {
	key := hashText(text)
	if n, ok := c.cache.Get(key); ok {
		return n
	}
	n := c.inner.Count(text)
	c.cache.Add(key, n)
	return n
}

// hashText produces the cache key. FNV-1a over the full text; collisions
// would only skew an estimate, never corrupt data.
func hashText(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return h.Sum64()
}
