package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalcrawl/internal/detect"
	"github.com/sells-group/legalcrawl/internal/extract"
	"github.com/sells-group/legalcrawl/internal/model"
	"github.com/sells-group/legalcrawl/internal/progress"
	"github.com/sells-group/legalcrawl/internal/stage"
	"github.com/sells-group/legalcrawl/internal/warc"
)

// runPhase2 re-filters each phase-1 archive with the deep detector. Archives
// with surviving documents are moved into the phase-2 directory with metadata
// sidecars; archives where nothing survives are deleted.
func (p *Pipeline) runPhase2(ctx context.Context, resume bool) error {
	log := zap.L()

	archives, err := stage.ListArchives(p.dirs.Phase1)
	if err != nil {
		return err
	}
	log.Info("phase 2: filtering archives", zap.Int("archives", len(archives)))

	start := 0
	if resume {
		start = p.progress.ResumeIndex(2)
		if start > 0 {
			log.Info("phase 2: resuming", zap.Int("file_index", start))
		}
	}

	for i := start; i < len(archives); i++ {
		if err := p.checkpoint(ctx); err != nil {
			return err
		}

		archive := archives[i]
		log.Info("phase 2: processing archive",
			zap.Int("index", i+1),
			zap.Int("total", len(archives)),
			zap.String("archive", filepath.Base(archive)),
		)

		docs, err := p.phase2File(archive)
		if err != nil {
			log.Error("phase 2: archive failed, continuing",
				zap.String("archive", archive), zap.Error(err))
			continue
		}
		stats := progress.FileStats{DocumentsFound: len(docs)}
		if err := p.progress.MarkPhaseFile(2, i, stage.Base(archive), stats); err != nil {
			return err
		}

		log.Info("phase 2: archive done",
			zap.String("archive", filepath.Base(archive)),
			zap.Int("documents_filtered", len(docs)),
		)
	}
	return nil
}

// phase2File scores every document in a phase-1 archive with the deep
// detector and applies the lifecycle outcome: promote with metadata, or
// discard when nothing passed.
func (p *Pipeline) phase2File(archivePath string) ([]model.DocumentMeta, error) {
	r, err := warc.Open(archivePath)
	if err != nil {
		return nil, err
	}

	archiveName := filepath.Base(archivePath)
	var docs []model.DocumentMeta

	for {
		rec, err := r.NextResponse()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.Close() //nolint:errcheck
			return nil, eris.Wrap(err, "pipeline: phase 2 read archive")
		}

		html := string(rec.Body())
		clean := extract.CleanText(html, rec.TargetURI)
		if len(clean) < p.cfg.Detect.MinTextLength {
			continue
		}

		res := detect.Deep(rec.TargetURI, html, clean)
		if !res.IsLegal || res.Confidence <= p.cfg.Detect.MinConfidence {
			continue
		}

		docs = append(docs, model.DocumentMeta{
			URL:             rec.TargetURI,
			Domain:          model.RegistrableDomain(rec.TargetURI),
			ArchiveFile:     archiveName,
			Confidence:      res.Confidence,
			DetectionMethod: "deep_analysis",
			DocumentTypes:   res.DocumentTypes,
			HTMLLength:      len(html),
			CleanTextLength: len(clean),
			Timestamp:       time.Now().UTC(),
		})
	}
	if err := r.Close(); err != nil {
		return nil, eris.Wrap(err, "pipeline: phase 2 close archive")
	}

	if len(docs) == 0 {
		if err := p.dirs.DiscardFromPhase1(archivePath); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if _, err := p.dirs.PromoteToPhase2(archivePath, docs); err != nil {
		return nil, err
	}
	return docs, nil
}
