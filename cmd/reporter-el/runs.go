// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mahdi-Moosa/NIH-Reporter-Data-EL/internal/manifest"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent work-unit runs from the manifest",
	Long: `Runs prints the most recent work-unit outcomes recorded in the SQLite
run manifest, newest first, followed by the all-time failure count.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("manifest", "manifest.db", "SQLite run-manifest path")
	runsCmd.Flags().Int("limit", 20, "maximum runs to show")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path, _ := cmd.Flags().GetString("manifest")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := manifest.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UNIT\tSTATUS\tROWS\tFINISHED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.Unit, r.Status, r.Rows, r.FinishedAt.Format(time.RFC3339), r.Error)
	}
	w.Flush()

	failures, err := store.FailureCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d recorded failure(s) total\n", failures)
	return nil
}
