// Package stage owns the per-dataset phase directory tree and the lifecycle
// of archive files and their sidecar metadata between phases. An archive file
// lives in exactly one phase directory at a time: promotion moves it, never
// copies, and its presence in a directory implies it passed that phase's and
// all prior phases' filters.
package stage

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalcrawl/internal/model"
	"github.com/sells-group/legalcrawl/internal/results"
)

// Directory names under the dataset root.
const (
	Phase1DirName = "phase1_fast_detection"
	Phase2DirName = "phase2_deep_filtering"
	Phase3DirName = "phase3_analysis"
)

// archiveSuffix is the container file suffix for all phases.
const archiveSuffix = ".warc.gz"

// filteredSuffix tags phase-1 output containers.
const filteredSuffix = "_legal" + archiveSuffix

// Dirs is the phase directory tree for one dataset.
type Dirs struct {
	Root   string
	Phase1 string
	Phase2 string
	Phase3 string
}

// NewDirs builds and creates the directory tree under outputDir for dataset.
func NewDirs(outputDir, dataset string) (Dirs, error) {
	root := filepath.Join(outputDir, dataset)
	d := Dirs{
		Root:   root,
		Phase1: filepath.Join(root, Phase1DirName),
		Phase2: filepath.Join(root, Phase2DirName),
		Phase3: filepath.Join(root, Phase3DirName),
	}
	for _, dir := range []string{d.Phase1, d.Phase2, d.Phase3} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Dirs{}, eris.Wrap(err, "stage: create phase directory")
		}
	}
	return d, nil
}

// Clean removes and recreates the phase directories. Used by reset.
func (d Dirs) Clean() error {
	for _, dir := range []string{d.Phase1, d.Phase2, d.Phase3} {
		if err := os.RemoveAll(dir); err != nil {
			return eris.Wrap(err, "stage: remove phase directory")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "stage: recreate phase directory")
		}
	}
	return nil
}

// FilteredPath returns the phase-1 output container path for a raw input
// archive name.
func (d Dirs) FilteredPath(inputName string) string {
	stem := strings.TrimSuffix(filepath.Base(inputName), archiveSuffix)
	return filepath.Join(d.Phase1, stem+filteredSuffix)
}

// Base strips the container suffix from an archive path's file name.
func Base(archivePath string) string {
	return strings.TrimSuffix(filepath.Base(archivePath), archiveSuffix)
}

// MetadataPaths returns the JSON and CSV sidecar paths for an archive in dir.
func MetadataPaths(dir, archivePath string) (jsonPath, csvPath string) {
	base := Base(archivePath)
	return filepath.Join(dir, base+"_metadata.json"), filepath.Join(dir, base+"_metadata.csv")
}

// AnalysisPaths returns the JSON and CSV analysis result paths for an archive
// in dir.
func AnalysisPaths(dir, archivePath string) (jsonPath, csvPath string) {
	base := Base(archivePath)
	return filepath.Join(dir, base+"_analysis.json"), filepath.Join(dir, base+"_analysis.csv")
}

// ListArchives returns the container files in dir, sorted by name for a
// stable processing order.
func ListArchives(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+archiveSuffix))
	if err != nil {
		return nil, eris.Wrap(err, "stage: list archives")
	}
	sort.Strings(matches)
	return matches, nil
}

// PromoteToPhase2 moves a phase-1 archive into the phase-2 directory and
// writes its metadata sidecars. Returns the archive's new path.
func (d Dirs) PromoteToPhase2(archivePath string, docs []model.DocumentMeta) (string, error) {
	dst := filepath.Join(d.Phase2, filepath.Base(archivePath))
	if err := moveFile(archivePath, dst); err != nil {
		return "", err
	}
	jsonPath, csvPath := MetadataPaths(d.Phase2, dst)
	if err := results.WriteDocumentMeta(jsonPath, csvPath, docs); err != nil {
		return "", err
	}
	return dst, nil
}

// DiscardFromPhase1 deletes a phase-1 archive that retained no documents.
// No empty artifacts are kept in stage directories.
func (d Dirs) DiscardFromPhase1(archivePath string) error {
	if err := os.Remove(archivePath); err != nil {
		return eris.Wrap(err, "stage: discard phase-1 archive")
	}
	zap.L().Info("stage: discarded archive with no retained documents",
		zap.String("archive", filepath.Base(archivePath)))
	return nil
}

// PromoteToPhase3 moves a phase-2 archive and its metadata sidecars into the
// phase-3 directory as a unit, before any processing begins, so a partial
// phase-3 failure cannot strand files in phase 2. Returns the archive's new
// path.
func (d Dirs) PromoteToPhase3(archivePath string) (string, error) {
	dst := filepath.Join(d.Phase3, filepath.Base(archivePath))
	if err := moveFile(archivePath, dst); err != nil {
		return "", err
	}

	srcJSON, srcCSV := MetadataPaths(d.Phase2, archivePath)
	dstJSON, dstCSV := MetadataPaths(d.Phase3, dst)
	for _, pair := range [][2]string{{srcJSON, dstJSON}, {srcCSV, dstCSV}} {
		if _, err := os.Stat(pair[0]); err != nil {
			continue
		}
		if err := moveFile(pair[0], pair[1]); err != nil {
			return "", err
		}
	}
	return dst, nil
}

// moveFile renames src to dst, falling back to copy-then-verify-then-remove
// when the rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return eris.Wrap(err, "stage: open source for move")
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrap(err, "stage: create destination for move")
	}
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close() //nolint:errcheck
		os.Remove(dst)
		return eris.Wrap(err, "stage: copy for move")
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return eris.Wrap(err, "stage: close destination for move")
	}

	info, err := os.Stat(src)
	if err != nil || info.Size() != n {
		os.Remove(dst)
		return eris.New("stage: size mismatch after copy")
	}
	return os.Remove(src)
}
