// Package pipeline orchestrates the three-phase legal document analysis:
// fast detection over raw archives, deep filtering of the survivors, and
// per-document clause classification. Phases run strictly in order and one
// archive file is processed start-to-finish before the next begins; a single
// file's failure never aborts its phase.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalcrawl/internal/config"
	"github.com/sells-group/legalcrawl/internal/cost"
	"github.com/sells-group/legalcrawl/internal/fetcher"
	"github.com/sells-group/legalcrawl/internal/model"
	"github.com/sells-group/legalcrawl/internal/progress"
	"github.com/sells-group/legalcrawl/internal/stage"
)

// Fetcher supplies the dataset listing and local archive copies.
type Fetcher interface {
	CrawlInfo(ctx context.Context) (*fetcher.Crawl, error)
	Download(ctx context.Context, archivePath string) (string, error)
}

// DocumentAnalyzer classifies one document's clean text, returning the
// analysis and the usage units the call consumed.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, cleanText, url string) (model.Analysis, int)
}

// Pipeline drives the three phases against one dataset.
type Pipeline struct {
	cfg      *config.Config
	fetch    Fetcher
	analyzer DocumentAnalyzer
	progress *progress.Store
	costCalc *cost.Calculator
	dirs     stage.Dirs
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, fetch Fetcher, analyzer DocumentAnalyzer, prog *progress.Store) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetch:    fetch,
		analyzer: analyzer,
		progress: prog,
		costCalc: cost.NewCalculator(cfg.Pricing),
	}
}

// RunOptions controls phase selection and resumption.
type RunOptions struct {
	// Resume continues each phase from its recorded file index.
	Resume bool
	// OnlyPhase restricts the run to a single phase when non-zero.
	OnlyPhase int
}

// Run executes every phase not yet completed. With Resume set, each phase
// continues from its recorded file index; otherwise phases start from the
// beginning. Cancellation is honored between files: current progress is
// flushed and the context error returned.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	log := zap.L()
	log.Info("pipeline: starting three-phase analysis")

	crawl, err := p.fetch.CrawlInfo(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: crawl info")
	}

	dirs, err := stage.NewDirs(p.cfg.OutputDir, crawl.Name)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: stage directories")
	}
	p.dirs = dirs

	paths := crawl.ArchivePaths
	if p.cfg.MaxFiles > 0 && len(paths) > p.cfg.MaxFiles {
		paths = paths[:p.cfg.MaxFiles]
	}
	if err := p.progress.SetDataset(crawl.Name, len(paths)); err != nil {
		return nil, err
	}

	start := time.Now()

	phases := []struct {
		n   int
		run func(context.Context, bool) error
	}{
		{1, func(ctx context.Context, resume bool) error { return p.runPhase1(ctx, paths, resume) }},
		{2, p.runPhase2},
		{3, p.runPhase3},
	}

	for _, ph := range phases {
		if opts.OnlyPhase != 0 && ph.n != opts.OnlyPhase {
			continue
		}
		if p.progress.PhaseCompleted(ph.n) {
			log.Info("pipeline: phase already completed, skipping", zap.Int("phase", ph.n))
			continue
		}
		log.Info("pipeline: phase starting", zap.Int("phase", ph.n))
		if err := ph.run(ctx, opts.Resume); err != nil {
			// Best-effort flush so an interrupted run can resume.
			if saveErr := p.progress.Save(); saveErr != nil {
				log.Warn("pipeline: progress flush failed", zap.Error(saveErr))
			}
			return nil, err
		}
		if err := p.progress.MarkPhaseComplete(ph.n); err != nil {
			return nil, err
		}
		log.Info("pipeline: phase completed", zap.Int("phase", ph.n))
	}

	report := p.buildReport(time.Since(start))
	if err := p.writeReport(report); err != nil {
		log.Warn("pipeline: report write failed", zap.Error(err))
	}

	log.Info("pipeline: analysis complete",
		zap.String("dataset", crawl.Name),
		zap.Int("records_processed", report.Phase1.RecordsProcessed),
		zap.Int("documents_analyzed", report.Phase3.DocumentsAnalyzed),
		zap.Float64("estimated_cost_usd", report.Phase3.EstimatedCostUSD),
	)
	return report, nil
}

// Reset clears progress state and empties the stage directories for the
// configured dataset.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.progress.Reset(); err != nil {
		return err
	}
	dirs, err := stage.NewDirs(p.cfg.OutputDir, p.cfg.Fetch.CrawlName)
	if err != nil {
		return err
	}
	if err := dirs.Clean(); err != nil {
		return err
	}
	zap.L().Info("pipeline: progress reset and stage directories cleaned")
	return nil
}

// checkpoint returns the context error after flushing progress, used at the
// per-file loop boundary of every phase.
func (p *Pipeline) checkpoint(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if err := p.progress.Save(); err != nil {
		zap.L().Warn("pipeline: progress flush on shutdown failed", zap.Error(err))
	}
	return eris.Wrap(ctx.Err(), "pipeline: interrupted")
}
