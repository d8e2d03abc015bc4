package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/legalcrawl/internal/analyze"
	"github.com/sells-group/legalcrawl/internal/fetcher"
	"github.com/sells-group/legalcrawl/internal/pipeline"
	"github.com/sells-group/legalcrawl/internal/progress"
	anthropicpkg "github.com/sells-group/legalcrawl/pkg/anthropic"
)

var (
	runMaxFiles   int
	runResume     bool
	runPhase      int
	runForcePhase int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the three-phase analysis over the configured crawl",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required (LEGALCRAWL_ANTHROPIC_KEY)")
		}
		if runMaxFiles > 0 {
			cfg.MaxFiles = runMaxFiles
		}
		if runPhase != 0 && (runPhase < 1 || runPhase > progress.NumPhases) {
			return eris.New("phase must be 1, 2, or 3")
		}

		fetchClient, err := fetcher.NewClient(fetcher.Config{
			BaseURL:           cfg.Fetch.BaseURL,
			CrawlName:         cfg.Fetch.CrawlName,
			ArchiveDir:        cfg.ArchiveDir,
			MaxListedPaths:    cfg.Fetch.MaxListedPaths,
			TimeoutSecs:       cfg.Fetch.TimeoutSecs,
			RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		})
		if err != nil {
			return eris.Wrap(err, "init fetcher")
		}

		analyzer := analyze.New(anthropicpkg.NewClient(cfg.Anthropic.Key), analyze.Config{
			Model:       cfg.Anthropic.Model,
			MaxTokens:   cfg.Anthropic.MaxTokens,
			Temperature: cfg.Anthropic.Temperature,
		})

		prog := progress.Open(cfg.ProgressFile)
		if runForcePhase != 0 {
			if runForcePhase < 1 || runForcePhase > progress.NumPhases {
				return eris.New("force-phase must be 1, 2, or 3")
			}
			if err := prog.ForcePhase(runForcePhase); err != nil {
				return eris.Wrap(err, "force phase")
			}
		}

		p := pipeline.New(cfg, fetchClient, analyzer, prog)

		report, err := p.Run(ctx, pipeline.RunOptions{
			Resume:    runResume,
			OnlyPhase: runPhase,
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("analysis complete",
			zap.String("dataset", report.Dataset),
			zap.Int("documents_analyzed", report.Phase3.DocumentsAnalyzed),
			zap.Int("tokens_used", report.Phase3.TokensUsed),
			zap.Float64("estimated_cost_usd", report.Phase3.EstimatedCostUSD),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	runCmd.Flags().IntVar(&runMaxFiles, "max-files", 0, "cap on archive files to process (overrides config)")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "continue each phase from its recorded file index")
	runCmd.Flags().IntVar(&runPhase, "phase", 0, "run only this phase (1-3)")
	runCmd.Flags().IntVar(&runForcePhase, "force-phase", 0, "clear a phase's completion state before running")
	rootCmd.AddCommand(runCmd)
}
