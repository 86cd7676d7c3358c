package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/WildfireRanch/relayctx/internal/errors"
	"github.com/WildfireRanch/relayctx/internal/token"
)

// Engine runs the context-assembly pipeline: tiered retrieval, per-call
// score normalization, threshold filtering, cross-tier dedup, and greedy
// budget packing. An Engine holds no per-request state and is safe to share
// across concurrent requests; retrievers are responsible for their own
// concurrency safety.
type Engine struct {
	cfg     Config
	counter token.Counter
}

// New creates an engine. Config violations fail here, synchronously; they
// are programmer errors and are never clamped.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	counter := cfg.Counter
	if counter == nil {
		counter = token.NewHeuristic()
	}
	return &Engine{cfg: cfg, counter: counter}, nil
}

// BuildContext assembles context for one request. Tiers are visited
// strictly sequentially in fixed tier order; retrieval calls are never
// parallelized or retried, and the engine places no timeout around them.
// Callers needing bounded latency cancel ctx one layer up.
//
// The result is deterministic: identical retriever outputs and config
// produce a bit-identical Result.
func (e *Engine) BuildContext(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	corrID := req.CorrID
	if corrID == "" {
		corrID = uuid.NewString()
	}
	log := slog.With(slog.String("corr_id", corrID))

	query := strings.TrimSpace(req.Query)
	log.Debug("context_build_started",
		slog.String("query", query),
		slog.Int("tiers", len(e.cfg.Retrievers)))

	if query == "" || len(e.cfg.Retrievers) == 0 {
		log.Debug("context_build_complete", slog.Int("hits", 0))
		return emptyResult(), nil
	}

	// Retrieve, normalize, and filter each wired tier in fixed order.
	var all []Match
	seq := 0
	for _, tier := range Tiers() {
		r, ok := e.cfg.Retrievers[tier]
		if !ok {
			log.Debug("tier_skipped", slog.String("tier", tier.String()))
			continue
		}
		tc := e.cfg.tierConfig(tier)

		docs, err := r.Search(ctx, query, tc.TopK)
		if err != nil {
			if e.cfg.IsolateTierFailures {
				log.Warn("tier_failed",
					slog.String("tier", tier.String()),
					slog.String("error", err.Error()))
				continue
			}
			return nil, errors.RetrievalError("tier "+tier.String()+" search failed", err)
		}

		docs = sanitize(docs)
		scores := normalizeScores(docs)
		kept := 0
		for i, d := range docs {
			if scores[i] < tc.MinScore {
				continue
			}
			all = append(all, Match{
				Path:    d.Path,
				Score:   scores[i],
				Tier:    tier,
				Snippet: d.Snippet,
				seq:     seq,
			})
			seq++
			kept++
		}
		log.Debug("tier_retrieved",
			slog.String("tier", tier.String()),
			slog.Int("raw", len(docs)),
			slog.Int("kept", kept))
	}

	// Merge across tiers and rank.
	deduped := dedupeByPath(all)
	sortByScore(deduped)

	maxScore := 0.0
	if len(deduped) > 0 {
		maxScore = deduped[0].Score
	}

	// Pack under the effective budget; the request override wins.
	budget := e.cfg.MaxContextTokens
	if req.MaxTokens > 0 {
		budget = req.MaxTokens
	}
	p := pack(deduped, e.counter, budget)

	log.Info("context_build_complete",
		slog.Int("hits", len(deduped)),
		slog.Int("packed", len(p.paths)),
		slog.Int("tokens", p.tokens),
		slog.Int("budget", budget))

	return &Result{
		Context:   assemble(p),
		FilesUsed: p.paths,
		Matches:   deduped,
		Meta: Meta{
			Hits:     len(deduped),
			MaxScore: maxScore,
			Sources:  dedupeStrings(p.paths),
		},
	}, nil
}

// dedupeStrings returns an order-preserving copy without duplicates.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
