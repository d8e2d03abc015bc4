package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalcrawl/internal/extract"
	"github.com/sells-group/legalcrawl/internal/model"
	"github.com/sells-group/legalcrawl/internal/progress"
	"github.com/sells-group/legalcrawl/internal/results"
	"github.com/sells-group/legalcrawl/internal/stage"
	"github.com/sells-group/legalcrawl/internal/warc"
)

// runPhase3 classifies every document in each phase-2 archive. The archive
// and its metadata sidecars are moved into the phase-3 directory before
// processing begins, so a partial failure cannot strand files in phase 2;
// each classified document is persisted immediately.
func (p *Pipeline) runPhase3(ctx context.Context, resume bool) error {
	log := zap.L()

	archives, err := stage.ListArchives(p.dirs.Phase2)
	if err != nil {
		return err
	}
	log.Info("phase 3: classifying archives", zap.Int("archives", len(archives)))

	start := 0
	if resume {
		start = p.progress.ResumeIndex(3)
		if start > 0 {
			log.Info("phase 3: resuming", zap.Int("file_index", start))
		}
	}

	for i := start; i < len(archives); i++ {
		if err := p.checkpoint(ctx); err != nil {
			return err
		}

		archive := archives[i]
		log.Info("phase 3: processing archive",
			zap.Int("index", i+1),
			zap.Int("total", len(archives)),
			zap.String("archive", filepath.Base(archive)),
		)

		analyzed, tokens, err := p.phase3File(ctx, archive)
		if err != nil {
			if ctx.Err() != nil {
				return p.checkpoint(ctx)
			}
			log.Error("phase 3: archive failed, continuing",
				zap.String("archive", archive), zap.Error(err))
			continue
		}
		stats := progress.FileStats{DocumentsFound: analyzed, TokensUsed: tokens}
		if err := p.progress.MarkPhaseFile(3, i, stage.Base(archive), stats); err != nil {
			return err
		}

		log.Info("phase 3: archive done",
			zap.String("archive", filepath.Base(archive)),
			zap.Int("documents_analyzed", analyzed),
			zap.Int("tokens_used", tokens),
		)
	}
	return nil
}

// phase3File relocates one archive and classifies its documents, appending
// each result to the incremental analysis store.
func (p *Pipeline) phase3File(ctx context.Context, archivePath string) (analyzed, tokens int, err error) {
	local, err := p.dirs.PromoteToPhase3(archivePath)
	if err != nil {
		return 0, 0, err
	}

	jsonPath, csvPath := stage.AnalysisPaths(p.dirs.Phase3, local)
	store := results.NewStore(jsonPath, csvPath)
	archiveName := filepath.Base(local)

	r, err := warc.Open(local)
	if err != nil {
		return 0, 0, err
	}
	defer r.Close() //nolint:errcheck

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Already-persisted rows remain valid; the file is reprocessed
			// on resume.
			return store.Len(), tokens, eris.Wrap(ctxErr, "pipeline: phase 3 interrupted")
		}

		rec, err := r.NextResponse()
		if err == io.EOF {
			break
		}
		if err != nil {
			return store.Len(), tokens, eris.Wrap(err, "pipeline: phase 3 read archive")
		}

		clean := extract.CleanText(string(rec.Body()), rec.TargetURI)
		if len(clean) < p.cfg.Detect.MinAnalysisTextLength {
			continue
		}

		zap.L().Info("phase 3: classifying document",
			zap.Int("document", store.Len()+1),
			zap.String("url", rec.TargetURI),
		)

		analysis, docTokens := p.analyzer.AnalyzeDocument(ctx, clean, rec.TargetURI)
		tokens += docTokens

		row := model.AnalysisRow{
			URL:             rec.TargetURI,
			Domain:          model.RegistrableDomain(rec.TargetURI),
			ArchiveFile:     archiveName,
			Analysis:        analysis,
			CleanTextLength: len(clean),
			TokensUsed:      docTokens,
			Timestamp:       time.Now().UTC(),
		}
		if err := store.Append(row); err != nil {
			return store.Len(), tokens, err
		}
	}

	return store.Len(), tokens, nil
}
