package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/store"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent crawl runs",
		Long: `History lists recent crawl runs from the local database: when each ran,
which keywords and engine it used, and how many images were kept or
rejected.

Example:
  ocrdlp history --limit 20`,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 10, "Number of runs to show")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DBDir == "" {
		return fmt.Errorf("crawl history is disabled (db_dir is empty)")
	}

	s, err := store.Open(cfg.DBDir)
	if err != nil {
		return fmt.Errorf("open crawl history: %w", err)
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := s.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl history yet")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, r := range records {
		fmt.Fprintf(out, "%s  engine=%s  keywords=%q\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.Engine, strings.Join(r.Keywords, ","))
		fmt.Fprintf(out, "    urls=%d kept=%d filtered=%d duplicates=%d failed=%d\n",
			r.URLsFound, r.Kept, r.RejectedFilter, r.RejectedDuplicate, r.Failed)
	}
	return nil
}
