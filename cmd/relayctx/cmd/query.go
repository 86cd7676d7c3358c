package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WildfireRanch/relayctx/internal/config"
	"github.com/WildfireRanch/relayctx/internal/engine"
	"github.com/WildfireRanch/relayctx/internal/output"
)

// queryOptions holds CLI flags for query.
type queryOptions struct {
	maxTokens int
	corrID    string
	format    string // "text", "json"
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Assemble context for a query",
		Long: `Assemble an evidence context block for a query.

Retrieves from every configured tier in order, normalizes scores,
deduplicates across tiers, and packs the best snippets into the
token budget.

Examples:
  relayctx query "solar battery sizing"
  relayctx query "inverter faults" --max-tokens 1200
  relayctx query "deployment checklist" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "Per-request token budget override")
	cmd.Flags().StringVar(&opts.corrID, "corr-id", "", "Correlation ID for log tracing")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runQuery(cmd *cobra.Command, query string, opts queryOptions) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(root, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	req := engine.NewRequest(query)
	req.CorrID = opts.corrID
	req.MaxTokens = opts.maxTokens

	res, err := eng.BuildContext(cmd.Context(), req)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out := output.New(cmd.OutOrStdout())
	if res.Meta.Hits == 0 {
		out.Warning("no matches above threshold")
		return nil
	}

	out.Statusf("%d match(es), %d packed, max score %.3f",
		res.Meta.Hits, len(res.FilesUsed), res.Meta.MaxScore)
	for _, m := range res.Matches {
		packed := " "
		if slices.Contains(res.FilesUsed, m.Path) {
			packed = "*"
		}
		out.Dim(fmt.Sprintf(" %s %.3f  %-12s %s", packed, m.Score, m.Tier, m.Path))
	}
	out.Block(res.Context)
	return nil
}
