package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/dataset"
	"github.com/Jackmeson1/ocrdlp-lab/internal/labeler"
)

// NewDatasetCmd creates the dataset command with its subcommands.
func NewDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage the dataset directory structure",
		Long: `Dataset manages the standard directory tree
(full/filtered/tagged/train/val/test), the metadata file, and reporting.

Examples:
  ocrdlp dataset init --base-dir ./ocr_dataset
  ocrdlp dataset info --base-dir ./ocr_dataset
  ocrdlp dataset promote --base-dir ./ocr_dataset --source ./crawled_images
  ocrdlp dataset organize --base-dir ./ocr_dataset --labels labels.jsonl --by category
  ocrdlp dataset split --base-dir ./ocr_dataset --train 0.8 --val 0.1 --test 0.1
  ocrdlp dataset report --base-dir ./ocr_dataset --labels labels.jsonl`,
	}

	cmd.PersistentFlags().StringP("base-dir", "b", "ocr_dataset", "Dataset base directory")

	cmd.AddCommand(newDatasetInitCmd())
	cmd.AddCommand(newDatasetInfoCmd())
	cmd.AddCommand(newDatasetPromoteCmd())
	cmd.AddCommand(newDatasetOrganizeCmd())
	cmd.AddCommand(newDatasetSplitCmd())
	cmd.AddCommand(newDatasetReportCmd())

	return cmd
}

func openManager(cmd *cobra.Command) (*dataset.Manager, error) {
	if _, err := loadConfig(cmd); err != nil {
		return nil, err
	}
	base, err := cmd.Flags().GetString("base-dir")
	if err != nil {
		base, _ = cmd.InheritedFlags().GetString("base-dir")
	}
	return dataset.New(base)
}

func newDatasetInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the dataset directory structure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized dataset at %s\n", m.BaseDir())
			return nil
		},
	}
}

func newDatasetInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show image counts per dataset split",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}
			info := m.Info()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dataset: %s\n", info.BaseDirectory)
			for _, name := range dataset.SplitNames {
				fmt.Fprintf(out, "  %-10s %d images\n", name, info.Structure[name].ImageCount)
			}
			fmt.Fprintf(out, "Total: %d images\n", info.TotalImages)
			return nil
		},
	}
}

func newDatasetPromoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Move images into the filtered split",
		Long: `Promote moves images from a source directory (the full split by
default) into filtered, renaming on filename collisions, and records the
new per-split counts in the dataset metadata. Split operates on filtered,
so promote is the step between collecting images and splitting them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}

			source, _ := cmd.Flags().GetString("source")
			moved, err := m.PromoteToFiltered(source)
			if err != nil {
				return err
			}

			info := m.Info()
			stats := make(map[string]any, len(dataset.SplitNames))
			for _, name := range dataset.SplitNames {
				stats[name] = info.Structure[name].ImageCount
			}
			if err := m.SaveMetadata(map[string]any{
				"base_directory": info.BaseDirectory,
				"updated_at":     info.CreatedAt,
				"statistics":     stats,
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Promoted %d images to %s\n", moved, m.Dir("filtered"))
			return nil
		},
	}

	cmd.Flags().String("source", "", "Source directory (default: the full split)")

	return cmd
}

func newDatasetOrganizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Group images into subdirectories by their labels",
		Long: `Organize copies labeled images into per-group subdirectories of the
dataset: by document category, by primary language, or keeping only
records above a confidence floor.

Examples:
  ocrdlp dataset organize --labels labels.jsonl --source ./images --by category
  ocrdlp dataset organize --labels labels.jsonl --source ./images --by language --languages English,Hindi
  ocrdlp dataset organize --labels labels.jsonl --source ./images --by confidence --min-confidence 0.8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}

			labelsPath, _ := cmd.Flags().GetString("labels")
			records, err := labeler.ReadRecords(labelsPath)
			if err != nil {
				return err
			}

			source, _ := cmd.Flags().GetString("source")
			if source == "" {
				source = m.Dir("filtered")
			}
			target, _ := cmd.Flags().GetString("target")
			by, _ := cmd.Flags().GetString("by")
			out := cmd.OutOrStdout()

			switch by {
			case "category":
				res, err := m.OrganizeByCategory(records, source, target)
				if err != nil {
					return err
				}
				printOrganizeResult(out, res)
			case "language":
				langs, _ := cmd.Flags().GetString("languages")
				res, err := m.OrganizeByLanguage(records, source, target, splitKeywords(langs))
				if err != nil {
					return err
				}
				printOrganizeResult(out, res)
			case "confidence":
				min, _ := cmd.Flags().GetFloat64("min-confidence")
				count, err := m.FilterByConfidence(records, source, target, min)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Kept %d images at or above confidence %.2f\n", count, min)
			default:
				return fmt.Errorf("unknown grouping %q: use category, language, or confidence", by)
			}
			return nil
		},
	}

	cmd.Flags().StringP("labels", "l", "", "JSONL label file (required)")
	cmd.Flags().StringP("source", "s", "", "Source directory (default: the filtered split)")
	cmd.Flags().String("target", "", "Target directory (default: under the dataset base)")
	cmd.Flags().String("by", "category", "Grouping: category, language, or confidence")
	cmd.Flags().String("languages", "", "Comma-separated languages for --by language (empty keeps all)")
	cmd.Flags().Float64("min-confidence", 0.7, "Confidence floor for --by confidence")
	_ = cmd.MarkFlagRequired("labels")

	return cmd
}

func printOrganizeResult(out io.Writer, res dataset.OrganizeResult) {
	groups := make([]string, 0, len(res))
	for g := range res {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		fmt.Fprintf(out, "  %-20s %d images\n", g, res[g])
	}
	fmt.Fprintf(out, "Organized %d images\n", res.Total())
}

func newDatasetSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Distribute filtered images into train/val/test",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}

			train, _ := cmd.Flags().GetFloat64("train")
			val, _ := cmd.Flags().GetFloat64("val")
			test, _ := cmd.Flags().GetFloat64("test")
			source, _ := cmd.Flags().GetString("source")
			move, _ := cmd.Flags().GetBool("move")

			res, err := m.Split(source, dataset.Ratios{Train: train, Val: val, Test: test}, !move)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Split: train=%d val=%d test=%d\n",
				res.Train, res.Val, res.Test)
			return nil
		},
	}

	cmd.Flags().Float64("train", dataset.DefaultRatios.Train, "Training split ratio")
	cmd.Flags().Float64("val", dataset.DefaultRatios.Val, "Validation split ratio")
	cmd.Flags().Float64("test", dataset.DefaultRatios.Test, "Test split ratio")
	cmd.Flags().String("source", "", "Source directory (default: the filtered split)")
	cmd.Flags().Bool("move", false, "Move files instead of copying them")

	return cmd
}

func newDatasetReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown dataset report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager(cmd)
			if err != nil {
				return err
			}

			labelsPath, _ := cmd.Flags().GetString("labels")
			var records []*labeler.Record
			if labelsPath != "" {
				if records, err = labeler.ReadRecords(labelsPath); err != nil {
					return err
				}
			}

			outPath, _ := cmd.Flags().GetString("output")
			if outPath == "" {
				outPath = filepath.Join(m.BaseDir(), "dataset_report.md")
			}
			f, err := os.Create(outPath) //nolint:gosec // user-provided path is intentional
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}

			werr := dataset.NewReportWriter(f).Write(m.Info(), records)
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				return fmt.Errorf("write report: %w", werr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringP("labels", "l", "", "JSONL label file to include in the report")
	cmd.Flags().StringP("output", "o", "", "Report output path (default: <base-dir>/dataset_report.md)")

	return cmd
}
