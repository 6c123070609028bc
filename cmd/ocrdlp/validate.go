package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jackmeson1/ocrdlp-lab/internal/labeler"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <labels.jsonl>",
		Short: "Check a label file for field completeness",
		Long: `Validate loads a JSONL label file and reports how many records carry
every required classification field, plus per-field completeness counts.

Example:
  ocrdlp validate labels.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			return printValidation(cmd, args[0])
		},
	}
}

// printValidation renders a label-quality summary to the command output.
func printValidation(cmd *cobra.Command, path string) error {
	v, err := labeler.ValidateLabels(path)
	if err != nil {
		return err
	}
	if v.TotalRecords == 0 {
		return fmt.Errorf("no records found in %s", path)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Records: %d (failed: %d)\n", v.TotalRecords, v.FailedRecords)
	fmt.Fprintf(out, "Valid classifications: %d/%d (%.1f%%)\n",
		v.ValidRecords, v.TotalRecords, float64(v.ValidRecords)/float64(v.TotalRecords)*100)

	fmt.Fprintln(out, "\nField completeness:")
	for _, field := range append(labeler.RequiredFields(), labeler.ImportantFields()...) {
		count := v.FieldCompleteness[field]
		fmt.Fprintf(out, "  %-26s %d/%d (%.1f%%)\n",
			field, count, v.TotalRecords, float64(count)/float64(v.TotalRecords)*100)
	}
	return nil
}
