package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/WildfireRanch/relayctx/internal/engine"
	"github.com/WildfireRanch/relayctx/pkg/version"
)

// Server bridges MCP clients with the context-assembly engine. It owns no
// retrieval state; the engine and its retrievers are injected and shared.
type Server struct {
	mcp    *mcp.Server
	engine *engine.Engine
	logger *slog.Logger
}

// NewServer creates an MCP server around an engine.
func NewServer(eng *engine.Engine) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}

	s := &Server{
		engine: eng,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "relayctx",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// registerTools registers the build_context tool.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "build_context",
		Description: "Assemble an evidence context block for a query. Gathers candidate " +
			"snippets from the configured retrieval tiers, reconciles scores, removes " +
			"cross-tier duplicates, and packs the highest-value snippets into the token " +
			"budget. Returns the context plus provenance (files used, per-match scores).",
	}, s.buildContextHandler)
	s.logger.Debug("mcp_tool_registered", slog.String("name", "build_context"))
}

// buildContextHandler is the MCP SDK handler for the build_context tool.
func (s *Server) buildContextHandler(ctx context.Context, _ *mcp.CallToolRequest, input BuildContextInput) (
	*mcp.CallToolResult,
	BuildContextOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, BuildContextOutput{}, NewInvalidParamsError("query parameter is required")
	}
	if input.MaxTokens < 0 {
		return nil, BuildContextOutput{}, NewInvalidParamsError("max_tokens must be positive when supplied")
	}

	req := engine.NewRequest(input.Query)
	req.CorrID = input.CorrID
	req.MaxTokens = input.MaxTokens

	res, err := s.engine.BuildContext(ctx, req)
	if err != nil {
		return nil, BuildContextOutput{}, MapError(err)
	}

	out := BuildContextOutput{
		Context:   res.Context,
		FilesUsed: res.FilesUsed,
		Matches:   make([]MatchOutput, 0, len(res.Matches)),
		Meta: MetaOutput{
			Hits:     res.Meta.Hits,
			MaxScore: res.Meta.MaxScore,
			Sources:  res.Meta.Sources,
		},
	}
	for _, m := range res.Matches {
		out.Matches = append(out.Matches, MatchOutput{
			Path:  m.Path,
			Score: m.Score,
			Tier:  m.Tier.String(),
		})
	}
	return nil, out, nil
}

// Serve runs the server over the given transport until ctx is cancelled.
// Only stdio is supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
