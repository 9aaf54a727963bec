package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Insert or update trials from a CSV export",
	Example: `  trialsctl import --file ./trials-data.csv
  trialsctl import --file ./export.csv --name trials-data.csv --encoding windows-1252`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		im, store, closePool, err := newImporter(ctx)
		if err != nil {
			return err
		}
		defer closePool()

		if err := store.Ping(ctx); err != nil {
			return userError(err)
		}

		name, rows, err := loadEvent(im)
		if err != nil {
			return err
		}

		res, err := im.HandleCSVLoaded(ctx, rows, name)
		if err != nil {
			return userError(err)
		}

		out := cmd.OutOrStdout()
		if !res.Handled {
			fmt.Fprintf(out, "skipped %s: only %s is imported\n", name, im.ExpectedFilename())
			return nil
		}
		if len(res.MissingColumns) > 0 {
			fmt.Fprintf(out, "warning: %d columns missing from export: %s\n",
				len(res.MissingColumns), strings.Join(res.MissingColumns, ", "))
		}

		slog.Info("import complete", "run_id", res.RunID, "rows", res.Rows)
		fmt.Fprintf(out, "imported %s into %s: %d inserted, %d updated (run %s)\n",
			name, store.Table(), res.Inserted, res.Updated, res.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
