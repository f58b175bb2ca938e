package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"LaCarte/internal/app"
	"LaCarte/internal/config"
	"LaCarte/internal/logging"
	"LaCarte/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lacarte",
		Short:         "Reddit feed enriched with tone and topic projection",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newPiecesCmd(), newMeCmd(), newResetCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the enrichment HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			if err := app.NewServer(cfg, logger).Run(cmd.Context()); err != nil {
				logger.Error("server stopped", "error", err)
				return err
			}
			return nil
		},
	}
}

func newPiecesCmd() *cobra.Command {
	var (
		refresh bool
		noCache bool
		watch   time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "pieces",
		Short: "Print enriched pieces through the local cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if noCache {
				cfg.Client.CacheDir = ""
			}
			logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

			client, err := app.NewClient(cfg, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			res, err := client.Sync(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			if err := render(out, res, asJSON); err != nil {
				return err
			}

			if watch <= 0 {
				return nil
			}
			return client.Watch(cmd.Context(), watch, func(res usecase.SyncResult, err error) {
				if err != nil {
					logger.Error("sync failed", "error", err)
					return
				}
				if res.Fetched {
					_ = render(out, res, asJSON)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore both cache tiers and re-run enrichment")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "keep the client cache in memory for this run only")
	cmd.Flags().DurationVar(&watch, "watch", 0, "keep syncing on this interval (e.g. 5m)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print pieces as JSON")
	return cmd
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Print the Reddit account the server is authorised as",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			client, err := app.NewClient(cfg, logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
			if err != nil {
				return err
			}
			defer client.Close()

			raw, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				return fmt.Errorf("format profile: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return err
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop the locally cached pieces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			client, err := app.NewClient(cfg, logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Reset(cmd.Context())
		},
	}
}

func render(w io.Writer, res usecase.SyncResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Pieces)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# %d pieces, fetched=%t, last fetch %s\n", len(res.Pieces), res.Fetched, res.LastFetch.Format(time.RFC3339))
	fmt.Fprintln(tw, "TONE\tTOPIC\tSUBREDDIT\tTITLE")
	for _, p := range res.Pieces {
		fmt.Fprintf(tw, "%.2f\t%.2f\t%s\t%s\n", p.Tone, p.TopicProjection, p.Subreddit, p.Title)
	}
	return tw.Flush()
}
