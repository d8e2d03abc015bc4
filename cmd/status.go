package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/legalcrawl/internal/progress"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded pipeline progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := progress.Open(cfg.ProgressFile).Record()

		w := os.Stdout
		fmt.Fprintf(w, "Dataset:      %s\n", orDash(rec.Dataset))
		fmt.Fprintf(w, "Run ID:       %s\n", rec.RunID)
		if !rec.StartTime.IsZero() {
			fmt.Fprintf(w, "Started:      %s\n", rec.StartTime.Format("2006-01-02 15:04:05 MST"))
		}
		fmt.Fprintf(w, "Files:        %d planned\n\n", rec.TotalFiles)

		names := [progress.NumPhases]string{"Fast detection", "Deep filtering", "Clause analysis"}
		for i, ps := range rec.Phases {
			state := "in progress"
			if ps.Completed {
				state = "completed"
			} else if len(ps.Files) == 0 {
				state = "not started"
			}
			fmt.Fprintf(w, "Phase %d (%s): %s\n", i+1, names[i], state)
			fmt.Fprintf(w, "  files done:  %d\n", len(ps.Files))
			fmt.Fprintf(w, "  next index:  %d\n", ps.NextFileIndex)
		}

		agg := rec.Aggregates
		fmt.Fprintf(w, "\nRecords processed:   %d\n", agg.RecordsProcessed)
		fmt.Fprintf(w, "Documents found:     %d\n", agg.DocumentsFoundPhase1)
		fmt.Fprintf(w, "Documents filtered:  %d\n", agg.DocumentsFilteredPhase2)
		fmt.Fprintf(w, "Documents analyzed:  %d\n", agg.DocumentsAnalyzedPhase3)
		fmt.Fprintf(w, "Tokens used:         %d\n", agg.TokensUsed)
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
