package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/mcp"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/tui"
	"github.com/hyperjump/kotae/internal/watcher"
)

// buildQuery joins positional args so multi-word questions work with or without quotes.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Index the corpus and serve the HTTP API",
		Long: `Builds the index from corpus.paths, then serves:
  GET  /health
  POST /ask             {"question": "..."}
  POST /api/v1/ask      same, with sources and numeric values
  POST /api/v1/passages {"query": "...", "limit": 5}
  GET  /api/v1/status

With corpus.watch set, changed documents mark the index stale until restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.setup(false)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			comps, err := initializeComponents(ctx, cfg, logger, true)
			if err != nil {
				return err
			}
			defer comps.Close()

			var stale server.StalenessChecker
			if cfg.Corpus.Watch {
				w := watcher.NewWatcher(cfg.Corpus.Paths,
					watcher.WithLogger(logger),
					watcher.WithFilter(extract.IsSupported),
				)
				if err := w.Start(ctx); err != nil {
					return fmt.Errorf("failed to start watcher: %w", err)
				}
				defer w.Stop()
				stale = w
			}

			srv := server.NewServer(comps.Service, comps.Status(stale), &cfg.Server, logger)
			return srv.Run(ctx)
		},
	}
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFmt, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			question := buildQuery(args)
			if question == "" {
				return fmt.Errorf("question cannot be empty: %w", models.ErrEmptyQuestion)
			}
			cfg, logger, err := opts.setup(true)
			if err != nil {
				return err
			}
			defer logger.Sync()

			comps, err := initializeComponents(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer comps.Close()

			answer, err := comps.Service.Ask(cmd.Context(), question)
			if err != nil {
				return err
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), answer, outFmt)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(cli.OutputText), "output format: text or json")
	return cmd
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the index and report statistics",
		Long: `Loads, chunks and embeds every document in corpus.paths and records the
corpus in the catalog database. Embeddings are cached there, so indexing an
unchanged corpus again does not call the embedding model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFmt, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, logger, err := opts.setup(true)
			if err != nil {
				return err
			}
			defer logger.Sync()

			comps, err := initializeComponents(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer comps.Close()

			b := comps.Build
			return cli.WriteIndexReport(cmd.OutOrStdout(), &cli.IndexReport{
				Documents:  b.Documents,
				Chunks:     len(b.Chunks),
				Dimensions: b.Index.Dimensions(),
				CacheHits:  b.CacheHits,
				Duration:   b.Duration,
			}, outFmt)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(cli.OutputText), "output format: text or json")
	return cmd
}

func newPassagesCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "passages <query>",
		Short: "Look up passages by keyword",
		Long: `Keyword lookup over the indexed chunks, tolerant of small typos.
Matches in document names rank higher. No language model is called.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFmt, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, logger, err := opts.setup(true)
			if err != nil {
				return err
			}
			defer logger.Sync()

			comps, err := initializeComponents(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer comps.Close()

			resp, err := comps.Service.Passages(cmd.Context(), models.PassageQuery{Query: buildQuery(args), Limit: limit})
			if err != nil {
				return err
			}
			return cli.WritePassages(cmd.OutOrStdout(), resp, outFmt)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(cli.OutputText), "output format: text or json")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum number of passages")
	return cmd
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long: `Opens a terminal chat over the corpus. Each question is answered
independently; earlier questions are not sent to the model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.setup(true)
			if err != nil {
				return err
			}
			defer logger.Sync()

			comps, err := initializeComponents(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer comps.Close()

			summary := fmt.Sprintf("%d documents, %d chunks, model %s",
				len(comps.Build.Documents), len(comps.Build.Chunks), comps.Generator.Model())
			return tui.Run(cmd.Context(), comps.Service, summary)
		},
	}
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask and passages tools over MCP stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout for AI assistants.

Example client configuration:
  {
    "mcpServers": {
      "kotae": {
        "command": "/path/to/kotae",
        "args": ["mcp", "--config", "/path/to/config.yaml"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.setup(true)
			if err != nil {
				return err
			}
			defer logger.Sync()

			comps, err := initializeComponents(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer comps.Close()

			ports := &mcp.Ports{Service: comps.Service}
			if comps.Storage != nil {
				ports.Catalog = comps.Storage
			}
			srv, err := mcp.NewServer(ports, version)
			if err != nil {
				return err
			}
			logger.Info("mcp server ready", zap.Int("chunks", len(comps.Build.Chunks)))
			return srv.Run(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kotae version %s\n", version)
		},
	}
}
