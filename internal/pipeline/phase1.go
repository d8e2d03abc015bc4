package pipeline

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sells-group/legalcrawl/internal/detect"
	"github.com/sells-group/legalcrawl/internal/progress"
	"github.com/sells-group/legalcrawl/internal/warc"
)

// runPhase1 downloads each dataset archive and filters it with the fast
// detector into the phase-1 directory. The downloaded raw archive is the
// single source of truth for reprocessing and is never deleted.
func (p *Pipeline) runPhase1(ctx context.Context, paths []string, resume bool) error {
	log := zap.L()

	start := 0
	if resume {
		start = p.progress.ResumeIndex(1)
		if start > 0 {
			log.Info("phase 1: resuming", zap.Int("file_index", start))
		}
	}

	for i := start; i < len(paths); i++ {
		if err := p.checkpoint(ctx); err != nil {
			return err
		}

		path := paths[i]
		log.Info("phase 1: processing archive",
			zap.Int("index", i+1),
			zap.Int("total", len(paths)),
			zap.String("archive", filepath.Base(path)),
		)

		stats, err := p.phase1File(ctx, path)
		if err != nil {
			log.Error("phase 1: archive failed, continuing",
				zap.String("archive", path), zap.Error(err))
			continue
		}
		if err := p.progress.MarkPhaseFile(1, i, path, stats); err != nil {
			return err
		}

		log.Info("phase 1: archive done",
			zap.String("archive", filepath.Base(path)),
			zap.Int("records", stats.RecordsProcessed),
			zap.Int("documents_found", stats.DocumentsFound),
		)
	}
	return nil
}

// phase1File fetches one archive and writes its fast-detection survivors to
// a new container. When nothing matches, no container is produced.
func (p *Pipeline) phase1File(ctx context.Context, archivePath string) (progress.FileStats, error) {
	local, err := p.fetch.Download(ctx, archivePath)
	if err != nil {
		return progress.FileStats{}, err
	}

	out := p.dirs.FilteredPath(local)
	res, err := warc.Filter(local, out, func(uri string, payload []byte) bool {
		return detect.Fast(uri, payload).IsLegal
	})
	if err != nil {
		return progress.FileStats{}, err
	}

	return progress.FileStats{
		RecordsProcessed: res.Total,
		DocumentsFound:   res.Matched,
	}, nil
}
