package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var planSummaryOnly bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the statements an import would run, without writing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		im, _, closePool, err := newImporter(ctx)
		if err != nil {
			return err
		}
		defer closePool()

		name, rows, err := loadEvent(im)
		if err != nil {
			return err
		}

		plan, err := im.Plan(ctx, rows, name)
		if err != nil {
			return userError(err)
		}

		out := cmd.OutOrStdout()
		if !plan.Handled {
			fmt.Fprintf(out, "skipped %s: only %s is imported\n", name, im.ExpectedFilename())
			return nil
		}

		if !planSummaryOnly && plan.Script != "" {
			fmt.Fprintln(out, plan.Script)
		}
		if !planSummaryOnly && len(plan.MissingColumns) > 0 {
			fmt.Fprintf(out, "-- missing columns: %s\n", strings.Join(plan.MissingColumns, ", "))
		}
		fmt.Fprintf(out, "-- %d inserts, %d updates\n", plan.Summary.Inserts, plan.Summary.Updates)
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planSummaryOnly, "summary", false, "print only the insert/update counts")
	rootCmd.AddCommand(planCmd)
}
