package engine

import (
	"math"
	"strings"

	"github.com/WildfireRanch/relayctx/internal/retriever"
)

// scoreEpsilon is the spread below which a batch counts as uniform.
const scoreEpsilon = 1e-9

// sanitize drops hits the engine cannot represent: empty paths and
// non-finite scores. A bad hit is a data-quality problem local to that hit;
// the rest of the batch continues.
func sanitize(docs []retriever.ScoredDoc) []retriever.ScoredDoc {
	out := docs[:0]
	for _, d := range docs {
		d.Path = strings.TrimSpace(d.Path)
		if d.Path == "" {
			continue
		}
		if math.IsNaN(d.RawScore) || math.IsInf(d.RawScore, 0) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// normalizeScores rescales one retrieval call's raw scores onto [0, 1] via
// min-max scaling local to that call. A uniform batch maps every score to
// 1.0: all-equal results are uniformly relevant, not 0/0-degenerate.
//
// Normalization never compares across tiers. A tier whose best raw score is
// weak still normalizes its top hit to 1.0; relative within-tier ranking
// matters more than absolute cross-tier comparability.
func normalizeScores(docs []retriever.ScoredDoc) []float64 {
	if len(docs) == 0 {
		return nil
	}

	lo, hi := docs[0].RawScore, docs[0].RawScore
	for _, d := range docs[1:] {
		if d.RawScore < lo {
			lo = d.RawScore
		}
		if d.RawScore > hi {
			hi = d.RawScore
		}
	}

	scores := make([]float64, len(docs))
	spread := hi - lo
	if spread < scoreEpsilon {
		for i := range scores {
			scores[i] = 1.0
		}
		return scores
	}
	for i, d := range docs {
		scores[i] = (d.RawScore - lo) / spread
	}
	return scores
}
