package engine

import (
	"fmt"
	"strings"

	"github.com/WildfireRanch/relayctx/internal/token"
)

// packed is the outcome of one greedy packing pass.
type packed struct {
	blocks []string
	paths  []string
	tokens int
}

// pack walks score-sorted candidates and greedily accumulates the ones that
// fit the budget. A candidate that would exceed the budget is skipped whole,
// never truncated, and the walk continues: a later, cheaper candidate may
// still fit after a larger one was skipped.
func pack(matches []Match, counter token.Counter, budget int) packed {
	p := packed{blocks: []string{}, paths: []string{}}
	for _, m := range matches {
		block := formatBlock(len(p.paths)+1, m)
		cost := counter.Count(block)
		if p.tokens+cost > budget {
			continue
		}
		p.blocks = append(p.blocks, block)
		p.paths = append(p.paths, m.Path)
		p.tokens += cost
	}
	return p
}

// formatBlock prepends the traceability header: 1-based ordinal within the
// packed set, tier name, and path.
func formatBlock(ordinal int, m Match) string {
	return fmt.Sprintf("[%d] %s: %s\n%s", ordinal, m.Tier, m.Path, m.Snippet)
}

// assemble joins packed blocks with blank-line separation.
func assemble(p packed) string {
	return strings.Join(p.blocks, "\n\n")
}
