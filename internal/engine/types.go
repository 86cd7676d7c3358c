// Package engine assembles LLM context from tiered retrieval sources.
// Raw matches are normalized to a common score scale, deduplicated across
// tiers, and greedily packed into a hard token budget.
package engine

import (
	"strconv"
	"strings"

	"github.com/WildfireRanch/relayctx/internal/errors"
	"github.com/WildfireRanch/relayctx/internal/retriever"
	"github.com/WildfireRanch/relayctx/internal/token"
)

// Tier identifies an ordered retrieval source. Tier order fixes the
// retrieval sequence; final ranking is by score after the cross-tier merge.
type Tier int

const (
	// TierGlobal holds organization-wide reference material.
	TierGlobal Tier = iota
	// TierContext holds session/conversation context documents.
	TierContext
	// TierProjectDocs holds per-project documentation.
	TierProjectDocs
	// TierCode holds indexed source code.
	TierCode
)

// tierNames maps tiers to their canonical names, in visit order.
var tierNames = []string{"global", "context", "project_docs", "code"}

// Tiers returns all tiers in their fixed visit order.
func Tiers() []Tier {
	return []Tier{TierGlobal, TierContext, TierProjectDocs, TierCode}
}

// String returns the canonical tier name.
func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "unknown"
	}
	return tierNames[t]
}

// MarshalText renders the tier by name in JSON/YAML output.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier converts a tier name to its Tier value.
func ParseTier(name string) (Tier, error) {
	for i, n := range tierNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return Tier(i), nil
		}
	}
	return 0, errors.ValidationError("unknown tier: "+name, nil)
}

// Default retrieval knobs, used when a tier has no explicit override.
const (
	// DefaultTopK is the default per-tier result count bound.
	DefaultTopK = 6

	// DefaultMinScore is the default normalized score threshold.
	DefaultMinScore = 0.35

	// DefaultMaxContextTokens is the default overall token budget.
	DefaultMaxContextTokens = 2400
)

// TierConfig holds per-tier retrieval policy.
type TierConfig struct {
	// TopK is the result count bound passed to the tier's retriever. Must be >= 1.
	TopK int

	// MinScore is the minimum normalized score a match needs to survive
	// the threshold filter. Expected range [0, 1].
	MinScore float64
}

// DefaultTierConfig returns the default per-tier policy.
func DefaultTierConfig() TierConfig {
	return TierConfig{TopK: DefaultTopK, MinScore: DefaultMinScore}
}

// NewTierConfig creates a validated tier policy.
func NewTierConfig(topK int, minScore float64) (TierConfig, error) {
	tc := TierConfig{TopK: topK, MinScore: minScore}
	if err := tc.Validate(); err != nil {
		return TierConfig{}, err
	}
	return tc, nil
}

// Validate checks the tier policy. TopK <= 0 is a programmer error and is
// rejected rather than clamped.
func (tc TierConfig) Validate() error {
	if tc.TopK <= 0 {
		return errors.ConfigError("tier topK must be >= 1", nil).
			WithDetail("top_k", strconv.Itoa(tc.TopK))
	}
	if tc.MinScore < 0 || tc.MinScore > 1 {
		return errors.ConfigError("tier minScore must be in [0, 1]", nil)
	}
	return nil
}

// Request describes one context-assembly invocation.
type Request struct {
	// Query is the retrieval query. Leading/trailing whitespace is trimmed.
	Query string

	// CorrID is an opaque correlation identifier threaded through log
	// events. Generated when empty; never used in control flow.
	CorrID string

	// MaxTokens, when > 0, overrides the engine's configured token budget
	// for this request only. Zero means "no override". Explicit negative
	// values are rejected.
	MaxTokens int
}

// NewRequest creates a request with a trimmed query.
func NewRequest(query string) Request {
	return Request{Query: strings.TrimSpace(query)}
}

// Validate checks request invariants.
func (r Request) Validate() error {
	if r.MaxTokens < 0 {
		return errors.ConfigError("request maxTokens must be > 0 when supplied", nil).
			WithDetail("max_tokens", strconv.Itoa(r.MaxTokens))
	}
	return nil
}

// Config holds the engine's injected configuration. It is treated as
// read-only once the engine is constructed and may be shared across
// concurrent requests.
type Config struct {
	// Retrievers maps each wired tier to its retriever. Tiers absent from
	// the map are skipped silently; an empty map is legal and produces an
	// empty result.
	Retrievers map[Tier]retriever.Retriever

	// TierOverrides holds per-tier policy overrides.
	TierOverrides map[Tier]TierConfig

	// DefaultTier is the policy for tiers without an override.
	DefaultTier TierConfig

	// MaxContextTokens is the overall token budget. Must be > 0.
	MaxContextTokens int

	// Counter estimates token cost per formatted snippet. When nil the
	// built-in character heuristic is used.
	Counter token.Counter

	// IsolateTierFailures, when set, turns a failing retriever into an
	// empty contribution from that tier (logged at warn level) instead of
	// failing the whole request. Default is to propagate the failure.
	IsolateTierFailures bool
}

// DefaultConfig returns a config with default policies and no retrievers.
func DefaultConfig() Config {
	return Config{
		Retrievers:       map[Tier]retriever.Retriever{},
		TierOverrides:    map[Tier]TierConfig{},
		DefaultTier:      DefaultTierConfig(),
		MaxContextTokens: DefaultMaxContextTokens,
	}
}

// Validate checks config invariants. Violations are programmer errors and
// fail fast; they are never silently clamped.
func (c Config) Validate() error {
	if c.MaxContextTokens <= 0 {
		return errors.ConfigError("maxContextTokens must be > 0", nil).
			WithDetail("max_context_tokens", strconv.Itoa(c.MaxContextTokens))
	}
	if err := c.DefaultTier.Validate(); err != nil {
		return err
	}
	for tier, tc := range c.TierOverrides {
		if err := tc.Validate(); err != nil {
			return errors.ConfigError("invalid override for tier "+tier.String(), err)
		}
	}
	return nil
}

// tierConfig resolves the effective policy for a tier.
func (c Config) tierConfig(t Tier) TierConfig {
	if tc, ok := c.TierOverrides[t]; ok {
		return tc
	}
	return c.DefaultTier
}

// Match is one candidate snippet after normalization.
type Match struct {
	// Path identifies the source document. Non-empty, trimmed.
	Path string `json:"path"`

	// Score is the normalized score in [0, 1].
	Score float64 `json:"score"`

	// Tier is the tier that produced the (winning) score.
	Tier Tier `json:"tier"`

	// Snippet is the candidate text.
	Snippet string `json:"snippet"`

	// seq is the encounter order across all tiers, used as the
	// deterministic tie-break when scores are equal.
	seq int
}

// Meta carries provenance metadata for an assembled context.
type Meta struct {
	// Hits counts matches that survived dedup, whether or not they fit
	// in the budget.
	Hits int `json:"hits"`

	// MaxScore is the maximum score across all deduplicated matches,
	// 0.0 when there are none.
	MaxScore float64 `json:"max_score"`

	// Sources is the deduplicated, order-preserving list of packed paths.
	Sources []string `json:"sources"`
}

// Result is the assembled context plus provenance.
type Result struct {
	// Context is the final concatenated context block.
	Context string `json:"context"`

	// FilesUsed lists packed paths in packing order.
	FilesUsed []string `json:"files_used"`

	// Matches lists all deduplicated matches by descending score,
	// including those that did not fit in the budget.
	Matches []Match `json:"matches"`

	// Meta is the provenance metadata.
	Meta Meta `json:"meta"`
}

// emptyResult returns a well-formed result with no matches.
func emptyResult() *Result {
	return &Result{
		FilesUsed: []string{},
		Matches:   []Match{},
		Meta:      Meta{Sources: []string{}},
	}
}
