package retriever

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/WildfireRanch/relayctx/internal/errors"
)

// HNSW retrieves documents by approximate nearest-neighbor search over a
// coder/hnsw graph. Embeddings come from the caller-supplied EmbedFunc;
// cosine distance is converted to a similarity raw score in [0, 1].
type HNSW struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	embed EmbedFunc
	dims  int

	// path <-> graph key mapping plus stored snippets
	keys     map[string]uint64
	paths    map[uint64]string
	snippets map[string]string
	nextKey  uint64

	closed bool
}

// NewHNSW creates a vector retriever. embed must produce vectors of dims
// length; StaticEmbed with StaticDimensions is the no-model default.
func NewHNSW(embed EmbedFunc, dims int) (*HNSW, error) {
	if embed == nil {
		return nil, errors.ConfigError("embed function is required", nil)
	}
	if dims <= 0 {
		return nil, errors.ConfigError("embedding dimensions must be > 0", nil)
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &HNSW{
		graph:    graph,
		embed:    embed,
		dims:     dims,
		keys:     make(map[string]uint64),
		paths:    make(map[uint64]string),
		snippets: make(map[string]string),
	}, nil
}

// Index embeds and inserts a document. Re-indexing an existing path orphans
// the old graph node rather than deleting it; coder/hnsw graph deletion of
// the last node breaks the graph.
func (h *HNSW) Index(_ context.Context, path, content string) error {
	vec := h.embed(content)
	if len(vec) != h.dims {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", h.dims, len(vec))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.InternalError("hnsw retriever is closed", nil)
	}

	if oldKey, ok := h.keys[path]; ok {
		delete(h.paths, oldKey)
	}
	key := h.nextKey
	h.nextKey++
	h.keys[path] = key
	h.paths[key] = path
	h.snippets[path] = content

	h.graph.Add(hnsw.MakeNode(key, vec))
	return nil
}

// Search implements Retriever.
func (h *HNSW) Search(_ context.Context, query string, k int) ([]ScoredDoc, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, errors.InternalError("hnsw retriever is closed", nil)
	}
	if k <= 0 || h.graph.Len() == 0 {
		return nil, nil
	}

	vec := h.embed(query)
	if len(vec) != h.dims {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", h.dims, len(vec))
	}

	nodes := h.graph.Search(vec, k)
	docs := make([]ScoredDoc, 0, len(nodes))
	for _, node := range nodes {
		path, ok := h.paths[node.Key]
		if !ok {
			// Orphaned node from a re-index; skip.
			continue
		}
		dist := h.graph.Distance(vec, node.Value)
		docs = append(docs, ScoredDoc{
			Path:     path,
			RawScore: cosineSimilarity(dist),
			Snippet:  h.snippets[path],
		})
	}
	return docs, nil
}

// Len returns the number of live documents.
func (h *HNSW) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.keys)
}

// Close releases the graph.
func (h *HNSW) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.graph = nil
	return nil
}

// cosineSimilarity converts cosine distance to a similarity score,
// clamped to [0, 1].
func cosineSimilarity(distance float32) float64 {
	sim := 1.0 - float64(distance)
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
