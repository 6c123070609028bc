package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/search"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search image providers and print the resulting URLs",
		Long: `Search queries the configured image search providers and prints one
image URL per line. No downloads happen; use this to preview what a crawl
would fetch.

Examples:
  # Search with every configured provider
  ocrdlp search "GST invoice document"

  # Search one provider with a larger result cap
  ocrdlp search "restaurant receipt" --engine unsplash --max-images 100`,
		Args: cobra.ExactArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().StringP("engine", "e", "",
		"Search engine: serper, serpapi, unsplash, flickr, or mixed")
	cmd.Flags().IntP("max-images", "n", 0, "Maximum number of URLs to return")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	engine, err := search.ParseEngine(cfg.Engine)
	if err != nil {
		return err
	}
	if err := checkSearchKeys(engine); err != nil {
		return err
	}

	agg, err := search.FromEnv(engine, newFetchClient(cfg))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	urls := agg.Search(ctx, args[0], cfg.MaxImages)
	if len(urls) == 0 {
		return fmt.Errorf("no results for %q", args[0])
	}

	for _, u := range urls {
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}
	return nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
