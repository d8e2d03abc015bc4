package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/legalcrawl/internal/pipeline"
	"github.com/sells-group/legalcrawl/internal/progress"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear progress state and empty the stage directories",
	Long:  "Removes all recorded per-phase progress and deletes staged archives and sidecars for the configured crawl. Downloaded raw archives are left in place.",
	RunE: func(cmd *cobra.Command, args []string) error {
		prog := progress.Open(cfg.ProgressFile)
		p := pipeline.New(cfg, nil, nil, prog)
		if err := p.Reset(cmd.Context()); err != nil {
			return eris.Wrap(err, "reset")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
