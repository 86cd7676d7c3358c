package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeByPath_KeepsHighestScore(t *testing.T) {
	in := []Match{
		{Path: "shared.md", Score: 0.4, Tier: TierGlobal, seq: 0},
		{Path: "only.md", Score: 0.6, Tier: TierGlobal, seq: 1},
		{Path: "shared.md", Score: 0.9, Tier: TierProjectDocs, seq: 2},
	}
	out := dedupeByPath(in)
	require.Len(t, out, 2)

	byPath := map[string]Match{}
	for _, m := range out {
		byPath[m.Path] = m
	}
	// The winning occurrence carries the tier that produced it.
	assert.Equal(t, 0.9, byPath["shared.md"].Score)
	assert.Equal(t, TierProjectDocs, byPath["shared.md"].Tier)
	assert.Equal(t, 0.6, byPath["only.md"].Score)
}

func TestDedupeByPath_TieKeepsFirstEncounter(t *testing.T) {
	in := []Match{
		{Path: "a.md", Score: 0.8, Tier: TierGlobal, seq: 0},
		{Path: "a.md", Score: 0.8, Tier: TierCode, seq: 5},
	}
	out := dedupeByPath(in)
	require.Len(t, out, 1)
	assert.Equal(t, TierGlobal, out[0].Tier)
	assert.Equal(t, 0, out[0].seq)
}

func TestDedupeByPath_ThreeTiers(t *testing.T) {
	in := []Match{
		{Path: "x.md", Score: 0.3, Tier: TierGlobal, seq: 0},
		{Path: "x.md", Score: 1.0, Tier: TierContext, seq: 1},
		{Path: "x.md", Score: 0.7, Tier: TierCode, seq: 2},
	}
	out := dedupeByPath(in)
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].Score)
	assert.Equal(t, TierContext, out[0].Tier)
}

func TestSortByScore_DescendingWithStableTies(t *testing.T) {
	matches := []Match{
		{Path: "c.md", Score: 0.5, seq: 2},
		{Path: "a.md", Score: 0.9, seq: 0},
		{Path: "b.md", Score: 0.5, seq: 1},
	}
	sortByScore(matches)

	assert.Equal(t, "a.md", matches[0].Path)
	// Equal scores fall back to encounter order.
	assert.Equal(t, "b.md", matches[1].Path)
	assert.Equal(t, "c.md", matches[2].Path)
}
