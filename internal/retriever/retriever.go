// Package retriever defines the retrieval boundary consumed by the context
// engine, plus adapters for the supported backends (bleve BM25, SQLite FTS5,
// HNSW vectors). Score scale is adapter-defined and unbounded; the engine
// normalizes per call.
package retriever

import (
	"context"
	"sort"
	"strings"
)

// ScoredDoc is one raw retrieval hit.
type ScoredDoc struct {
	// Path identifies the source document.
	Path string

	// RawScore is the backend's relevance score, on an adapter-defined scale.
	RawScore float64

	// Snippet is the candidate text.
	Snippet string
}

// Retriever is the engine's only dependency on retrieval backends.
// Implementations must be safe for concurrent use; the engine never
// constructs retrievers and never retries a failed call.
type Retriever interface {
	// Search returns up to k hits for the query. An empty result is not
	// an error.
	Search(ctx context.Context, query string, k int) ([]ScoredDoc, error)
}

// Static is a fixed in-memory retriever. It scores documents by naive
// term overlap between query and content, which is enough for fixtures,
// tests, and small curated tiers.
type Static struct {
	docs []ScoredDoc
}

// NewStatic creates a retriever over a fixed document set. RawScore on the
// supplied docs is ignored; overlap scoring replaces it at query time.
func NewStatic(docs []ScoredDoc) *Static {
	return &Static{docs: docs}
}

// Search implements Retriever.
func (s *Static) Search(_ context.Context, query string, k int) ([]ScoredDoc, error) {
	if k <= 0 || len(s.docs) == 0 {
		return nil, nil
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	scored := make([]ScoredDoc, 0, len(s.docs))
	for _, d := range s.docs {
		content := strings.ToLower(d.Snippet + " " + d.Path)
		hits := 0
		for _, t := range terms {
			if strings.Contains(content, t) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		scored = append(scored, ScoredDoc{
			Path:     d.Path,
			RawScore: float64(hits) / float64(len(terms)),
			Snippet:  d.Snippet,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].RawScore != scored[j].RawScore {
			return scored[i].RawScore > scored[j].RawScore
		}
		return scored[i].Path < scored[j].Path
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
