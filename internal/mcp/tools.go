package mcp

// BuildContextInput defines the input schema for the build_context tool.
type BuildContextInput struct {
	Query     string `json:"query" jsonschema:"the query to assemble context for"`
	MaxTokens int    `json:"max_tokens,omitempty" jsonschema:"per-request token budget override, must be positive"`
	CorrID    string `json:"corr_id,omitempty" jsonschema:"correlation identifier threaded through server logs"`
}

// BuildContextOutput defines the output schema for the build_context tool.
type BuildContextOutput struct {
	Context   string        `json:"context"`
	FilesUsed []string      `json:"files_used"`
	Matches   []MatchOutput `json:"matches"`
	Meta      MetaOutput    `json:"meta"`
}

// MatchOutput is one qualified match with provenance.
type MatchOutput struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
	Tier  string  `json:"tier"`
}

// MetaOutput carries the provenance metadata.
type MetaOutput struct {
	Hits     int      `json:"hits"`
	MaxScore float64  `json:"max_score"`
	Sources  []string `json:"sources"`
}
