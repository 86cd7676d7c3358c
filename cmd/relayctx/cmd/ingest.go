package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/WildfireRanch/relayctx/internal/config"
	"github.com/WildfireRanch/relayctx/internal/ingest"
	"github.com/WildfireRanch/relayctx/internal/output"
	"github.com/WildfireRanch/relayctx/internal/retriever"
)

// ingestOptions holds CLI flags for ingest.
type ingestOptions struct {
	tier       string
	extensions []string
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Index documents into a tier backend",
		Long: `Index all text documents under a directory into one tier's
retrieval backend. File reads run concurrently; the data directory is
locked for the duration so parallel ingests cannot interleave writes.

Examples:
  relayctx ingest ./docs --tier project_docs
  relayctx ingest ./src --tier code --ext .go --ext .md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.tier, "tier", "t", "project_docs", "Target tier: global, context, project_docs, code")
	cmd.Flags().StringSliceVar(&opts.extensions, "ext", nil, "File extensions to ingest (repeatable, default: common text/code)")

	return cmd
}

func runIngest(cmd *cobra.Command, dir string, opts ingestOptions) error {
	out := output.New(cmd.OutOrStdout())

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	ts, ok := cfg.Engine.Tiers[opts.tier]
	if !ok || !ts.Enabled {
		return fmt.Errorf("tier %q is not enabled in the configuration", opts.tier)
	}
	if ts.Backend == config.BackendHNSW {
		return fmt.Errorf("tier %q uses the in-process hnsw backend, which is not persistent; ingest a bleve or sqlite tier", opts.tier)
	}

	unlock, err := ingest.Lock(config.DataDir(root))
	if err != nil {
		return err
	}
	defer unlock()

	var sink ingest.Sink
	path := config.IndexPath(root, opts.tier, ts.Backend)
	switch ts.Backend {
	case config.BackendSQLite:
		s, err := retriever.NewSQLite(path)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		sink = s
	default:
		b, err := retriever.NewBleve(path)
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()
		sink = b
	}

	ing := ingest.New(sink, ingest.WithExtensions(opts.extensions))
	n, err := ing.Dir(cmd.Context(), dir)
	if err != nil {
		return err
	}

	out.Successf("indexed %d document(s) into tier %s (%s backend)", n, opts.tier, ts.Backend)
	out.Dim("index: " + path)
	return nil
}
