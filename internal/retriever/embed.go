package retriever

import (
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// EmbedFunc turns text into a fixed-dimension vector. The HNSW retriever
// never computes embeddings itself; callers supply the function.
type EmbedFunc func(text string) []float32

// StaticDimensions is the vector dimension produced by StaticEmbed.
const StaticDimensions = 256

const (
	staticTokenWeight = 0.7
	staticNgramWeight = 0.3
	staticNgramSize   = 3
)

var embedTokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// StaticEmbed is a deterministic hash-based embedding function. It buckets
// lowercased tokens and character trigrams into a 256-dimension vector and
// unit-normalizes the result. No model, no network; reduced semantic quality
// but stable across runs, which keeps vector tiers reproducible.
func StaticEmbed(text string) []float32 {
	vec := make([]float32, StaticDimensions)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vec
	}

	for _, tok := range embedTokenRegex.FindAllString(strings.ToLower(trimmed), -1) {
		vec[hashToIndex(tok, StaticDimensions)] += staticTokenWeight
	}

	compact := strings.Join(strings.Fields(strings.ToLower(trimmed)), " ")
	runes := []rune(compact)
	for i := 0; i+staticNgramSize <= len(runes); i++ {
		gram := string(runes[i : i+staticNgramSize])
		vec[hashToIndex(gram, StaticDimensions)] += staticNgramWeight
	}

	return normalizeVector(vec)
}

// hashToIndex maps a string to a bucket in [0, dims).
func hashToIndex(s string, dims int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(dims))
}

// normalizeVector scales a vector to unit length. Zero vectors are returned
// unchanged.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return v
	}
	for i, x := range v {
		v[i] = float32(float64(x) / mag)
	}
	return v
}
