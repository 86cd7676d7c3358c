// Package ingest populates tier backends from files on disk. It is CLI-side
// plumbing: the engine itself never writes to an index.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/WildfireRanch/relayctx/internal/errors"
)

// MaxFileBytes is the largest file ingested; anything bigger is skipped.
const MaxFileBytes = 1 << 20

// LockFileName guards a data directory against concurrent ingests.
const LockFileName = "ingest.lock"

// Sink receives documents from an ingest run. All tier backends in
// internal/retriever implement it.
type Sink interface {
	Index(ctx context.Context, path, content string) error
}

// defaultExtensions are ingested when no explicit extension list is given.
var defaultExtensions = map[string]struct{}{
	".md": {}, ".txt": {}, ".rst": {}, ".adoc": {},
	".go": {}, ".py": {}, ".ts": {}, ".js": {}, ".rb": {}, ".rs": {},
	".java": {}, ".c": {}, ".h": {}, ".cpp": {}, ".sh": {},
	".yaml": {}, ".yml": {}, ".toml": {}, ".json": {},
}

// Ingester walks a directory tree and feeds readable text files to a sink.
type Ingester struct {
	sink        Sink
	exts        map[string]struct{}
	concurrency int
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithExtensions restricts ingestion to the given file extensions
// (including the leading dot).
func WithExtensions(exts []string) Option {
	return func(ing *Ingester) {
		m := make(map[string]struct{}, len(exts))
		for _, e := range exts {
			m[strings.ToLower(e)] = struct{}{}
		}
		if len(m) > 0 {
			ing.exts = m
		}
	}
}

// WithConcurrency bounds concurrent file reads.
func WithConcurrency(n int) Option {
	return func(ing *Ingester) {
		if n > 0 {
			ing.concurrency = n
		}
	}
}

// New creates an ingester feeding sink.
func New(sink Sink, opts ...Option) *Ingester {
	ing := &Ingester{
		sink:        sink,
		exts:        defaultExtensions,
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Dir ingests all matching files under root, reading concurrently. Paths
// recorded in the index are relative to root with forward slashes, so the
// same tree ingested from different machines produces the same document IDs.
// Returns the number of documents indexed.
func (ing *Ingester) Dir(ctx context.Context, root string) (int, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if _, ok := ing.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > MaxFileBytes {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return 0, errors.IOError("walk ingest directory", err).WithDetail("root", root)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.concurrency)
	indexed := make(chan struct{}, len(files))

	for _, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if !utf8.Valid(data) {
				return nil // binary content, skip
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)
			if err := ing.sink.Index(gctx, rel, string(data)); err != nil {
				return fmt.Errorf("index %s: %w", rel, err)
			}
			indexed <- struct{}{}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(indexed)
	return len(indexed), nil
}

// Lock acquires an exclusive file lock on dataDir, creating the directory if
// needed. The returned unlock releases it. A held lock means another ingest
// is running against the same indexes.
func Lock(dataDir string) (func(), error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.IOError("create data directory", err)
	}
	fl := flock.New(filepath.Join(dataDir, LockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.IOError("acquire ingest lock", err)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeIndexFailed,
			"another ingest is already running for this data directory", nil)
	}
	return func() { _ = fl.Unlock() }, nil
}
