package retriever

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/WildfireRanch/relayctx/internal/errors"
)

// bleveDoc is the document shape stored in a bleve index.
type bleveDoc struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Bleve retrieves documents from a bleve v2 full-text index via BM25-style
// keyword matching. The raw score is bleve's tf-idf relevance score.
type Bleve struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// NewBleve opens or creates a bleve index at path. An empty path creates an
// in-memory index, which is what the tests and fixture tiers use.
func NewBleve(path string) (*Bleve, error) {
	mapping := bleve.NewIndexMapping()

	var idx bleve.Index
	var err error
	switch {
	case path == "":
		idx, err = bleve.NewMemOnly(mapping)
	default:
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, errors.IOError("create index directory", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return nil, errors.New(errors.ErrCodeIndexFailed, "open bleve index", err).
			WithDetail("path", path)
	}
	return &Bleve{index: idx, path: path}, nil
}

// Index adds or replaces a document. The path doubles as the document ID so
// re-ingesting a file is an in-place update.
func (b *Bleve) Index(_ context.Context, path, content string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.InternalError("bleve retriever is closed", nil)
	}
	return b.index.Index(path, bleveDoc{Path: path, Content: content})
}

// Search implements Retriever.
func (b *Bleve) Search(ctx context.Context, query string, k int) ([]ScoredDoc, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, errors.InternalError("bleve retriever is closed", nil)
	}
	if k <= 0 {
		return nil, nil
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	req.Fields = []string{"content"}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	docs := make([]ScoredDoc, 0, len(res.Hits))
	for _, hit := range res.Hits {
		snippet, _ := hit.Fields["content"].(string)
		docs = append(docs, ScoredDoc{
			Path:     hit.ID,
			RawScore: hit.Score,
			Snippet:  snippet,
		})
	}
	return docs, nil
}

// DocCount returns the number of indexed documents.
func (b *Bleve) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, errors.InternalError("bleve retriever is closed", nil)
	}
	return b.index.DocCount()
}

// Close releases the index.
func (b *Bleve) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}
