package engine

import "sort"

// dedupeByPath keeps, for every path, the match with the highest normalized
// score across all tiers. The tier label follows the winning score, not the
// first tier visited. On an exact score tie the earlier encounter wins,
// keeping the merge deterministic.
func dedupeByPath(matches []Match) []Match {
	if len(matches) == 0 {
		return matches
	}

	best := make(map[string]int, len(matches))
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		idx, seen := best[m.Path]
		if !seen {
			best[m.Path] = len(out)
			out = append(out, m)
			continue
		}
		if m.Score > out[idx].Score {
			out[idx] = m
		}
	}
	return out
}

// sortByScore orders matches by descending score with encounter order as
// the tie-break, so identical inputs always produce identical rankings.
func sortByScore(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].seq < matches[j].seq
	})
}
