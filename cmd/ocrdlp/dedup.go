package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/dedup"
)

// NewDedupCmd creates the dedup command.
func NewDedupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup <image-dir>",
		Short: "Remove near-duplicate images from a directory",
		Long: `Dedup hashes every image in a directory, groups near-duplicates by
perceptual-hash distance, keeps the first image of each group, and deletes
the rest.

Example:
  ocrdlp dedup ./images --threshold 5`,
		Args: cobra.ExactArgs(1),
		RunE: runDedupCmd,
	}

	cmd.Flags().IntP("threshold", "t", 0,
		"Hamming distance at or under which images count as duplicates")

	return cmd
}

// runDedupCmd executes the dedup command.
func runDedupCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	threshold, _ := cmd.Flags().GetInt("threshold")
	if threshold <= 0 {
		threshold = cfg.HashThreshold
	}

	removed, err := dedup.RemoveDuplicatesFromDirectory(args[0], threshold)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate images\n", removed)
	return nil
}
