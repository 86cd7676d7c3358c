package mcp

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WildfireRanch/relayctx/internal/engine"
	rcerrors "github.com/WildfireRanch/relayctx/internal/errors"
	"github.com/WildfireRanch/relayctx/internal/retriever"
)

func fixtureEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.DefaultTier = engine.TierConfig{TopK: 5, MinScore: 0.0}
	cfg.Retrievers[engine.TierProjectDocs] = retriever.NewStatic([]retriever.ScoredDoc{
		{Path: "docs/auth.md", Snippet: "authentication with short-lived tokens"},
		{Path: "docs/deploy.md", Snippet: "deployment rollout notes"},
	})
	eng, err := engine.New(cfg)
	require.NoError(t, err)
	return eng
}

func TestNewServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)
}

func TestBuildContextHandler_HappyPath(t *testing.T) {
	srv, err := NewServer(fixtureEngine(t))
	require.NoError(t, err)

	_, out, err := srv.buildContextHandler(context.Background(), nil, BuildContextInput{
		Query: "authentication tokens",
	})
	require.NoError(t, err)

	assert.Contains(t, out.FilesUsed, "docs/auth.md")
	require.NotEmpty(t, out.Matches)
	assert.Equal(t, "docs/auth.md", out.Matches[0].Path)
	assert.Equal(t, "project_docs", out.Matches[0].Tier)
	assert.Equal(t, 1.0, out.Matches[0].Score)
	assert.Equal(t, out.Meta.Hits, len(out.Matches))
	assert.Contains(t, out.Context, "docs/auth.md")
}

func TestBuildContextHandler_RejectsEmptyQuery(t *testing.T) {
	srv, err := NewServer(fixtureEngine(t))
	require.NoError(t, err)

	_, _, err = srv.buildContextHandler(context.Background(), nil, BuildContextInput{Query: "   "})
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeInvalidParams, pe.Code)
}

func TestBuildContextHandler_RejectsNegativeMaxTokens(t *testing.T) {
	srv, err := NewServer(fixtureEngine(t))
	require.NoError(t, err)

	_, _, err = srv.buildContextHandler(context.Background(), nil, BuildContextInput{
		Query:     "anything",
		MaxTokens: -1,
	})
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeInvalidParams, pe.Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"config", rcerrors.ConfigError("bad knob", nil), ErrCodeInvalidParams},
		{"validation", rcerrors.ValidationError("bad input", nil), ErrCodeInvalidParams},
		{"retrieval", rcerrors.RetrievalError("tier down", nil), ErrCodeRetrievalFailed},
		{"internal", rcerrors.InternalError("oops", nil), ErrCodeInternalError},
		{"plain", stderrors.New("plain failure"), ErrCodeInternalError},
		{"wrapped retrieval", fmt.Errorf("outer: %w", rcerrors.RetrievalError("tier down", nil)), ErrCodeRetrievalFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := MapError(tt.err)
			require.NotNil(t, pe)
			assert.Equal(t, tt.code, pe.Code)
		})
	}

	assert.Nil(t, MapError(nil))
}

func TestServe_RejectsUnknownTransport(t *testing.T) {
	srv, err := NewServer(fixtureEngine(t))
	require.NoError(t, err)

	err = srv.Serve(context.Background(), "tcp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}
