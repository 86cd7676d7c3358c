package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WildfireRanch/relayctx/internal/token"
)

// charCounter counts one token per character, making budgets easy to reason
// about in tests.
var charCounter = token.CounterFunc(func(text string) int { return len(text) })

func TestPack_BudgetRespected(t *testing.T) {
	matches := []Match{
		{Path: "a.md", Score: 0.9, Tier: TierGlobal, Snippet: strings.Repeat("a", 50)},
		{Path: "b.md", Score: 0.8, Tier: TierGlobal, Snippet: strings.Repeat("b", 50)},
		{Path: "c.md", Score: 0.7, Tier: TierGlobal, Snippet: strings.Repeat("c", 50)},
	}
	budget := 150
	p := pack(matches, charCounter, budget)

	assert.LessOrEqual(t, p.tokens, budget)
	total := 0
	for _, b := range p.blocks {
		total += charCounter.Count(b)
	}
	assert.Equal(t, total, p.tokens)
}

func TestPack_SkipsOversizedAndContinues(t *testing.T) {
	// The oversized top candidate is skipped whole; the cheaper, lower
	// scored one still fits.
	matches := []Match{
		{Path: "first.md", Score: 0.9, Tier: TierGlobal, Snippet: "First" + strings.Repeat(" x", 40)},
		{Path: "second.md", Score: 0.5, Tier: TierGlobal, Snippet: "Second"},
	}
	p := pack(matches, charCounter, 40)

	require.Equal(t, []string{"second.md"}, p.paths)
	require.Len(t, p.blocks, 1)
	// No partial inclusion of the skipped candidate.
	assert.NotContains(t, p.blocks[0], "first.md")
	assert.Contains(t, p.blocks[0], "Second")
}

func TestPack_OrdinalsCoverPackedSetOnly(t *testing.T) {
	matches := []Match{
		{Path: "big.md", Score: 0.9, Tier: TierGlobal, Snippet: strings.Repeat("z", 500)},
		{Path: "one.md", Score: 0.8, Tier: TierCode, Snippet: "alpha"},
		{Path: "two.md", Score: 0.7, Tier: TierCode, Snippet: "beta"},
	}
	p := pack(matches, charCounter, 60)

	require.Equal(t, []string{"one.md", "two.md"}, p.paths)
	// Skipped candidates do not consume ordinals.
	assert.True(t, strings.HasPrefix(p.blocks[0], "[1] code: one.md\n"))
	assert.True(t, strings.HasPrefix(p.blocks[1], "[2] code: two.md\n"))
}

func TestPack_Empty(t *testing.T) {
	p := pack(nil, charCounter, 100)
	assert.Empty(t, p.blocks)
	assert.Empty(t, p.paths)
	assert.Zero(t, p.tokens)
}

func TestFormatBlock(t *testing.T) {
	m := Match{Path: "docs/setup.md", Tier: TierProjectDocs, Snippet: "Install steps"}
	assert.Equal(t, "[3] project_docs: docs/setup.md\nInstall steps", formatBlock(3, m))
}

func TestAssemble_BlankLineSeparation(t *testing.T) {
	p := packed{blocks: []string{"[1] global: a.md\nA", "[2] global: b.md\nB"}}
	assert.Equal(t, "[1] global: a.md\nA\n\n[2] global: b.md\nB", assemble(p))
}
