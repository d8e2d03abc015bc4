package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "progress.json")
	return Open(path), path
}

func TestOpenMissingFileStartsFresh(t *testing.T) {
	s, _ := tempStore(t)
	rec := s.Record()
	assert.Equal(t, currentVersion, rec.Version)
	assert.NotEmpty(t, rec.RunID)
	for i := 1; i <= NumPhases; i++ {
		assert.False(t, s.PhaseCompleted(i))
		assert.Zero(t, s.ResumeIndex(i))
	}
}

func TestOpenCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := Open(path)
	assert.Equal(t, currentVersion, s.Record().Version)
	assert.False(t, s.PhaseCompleted(1))
}

func TestOpenVersionMismatchStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "dataset": "old"}`), 0o644))

	s := Open(path)
	assert.Empty(t, s.Record().Dataset)
}

func TestMarkPhaseFileAdvancesResumeIndex(t *testing.T) {
	s, path := tempStore(t)

	require.NoError(t, s.MarkPhaseFile(1, 4, "segment-00004.warc.gz", FileStats{RecordsProcessed: 100}))
	assert.Equal(t, 5, s.ResumeIndex(1))
	assert.Zero(t, s.ResumeIndex(2))

	// Reprocessing an earlier file never moves the resume point backwards.
	require.NoError(t, s.MarkPhaseFile(1, 2, "segment-00002.warc.gz", FileStats{RecordsProcessed: 50}))
	assert.Equal(t, 5, s.ResumeIndex(1))

	reopened := Open(path)
	assert.Equal(t, 5, reopened.ResumeIndex(1))
}

func TestAggregatesRecomputedNotAccumulated(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.MarkPhaseFile(1, 0, "a.warc.gz", FileStats{RecordsProcessed: 100, DocumentsFound: 10}))
	require.NoError(t, s.MarkPhaseFile(1, 1, "b.warc.gz", FileStats{RecordsProcessed: 200, DocumentsFound: 20}))

	// Reprocessing file a replaces its stats instead of adding to them.
	require.NoError(t, s.MarkPhaseFile(1, 0, "a.warc.gz", FileStats{RecordsProcessed: 100, DocumentsFound: 10}))

	agg := s.Record().Aggregates
	assert.Equal(t, 300, agg.RecordsProcessed)
	assert.Equal(t, 30, agg.DocumentsFoundPhase1)
}

func TestAggregatesSpanPhases(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.MarkPhaseFile(1, 0, "a.warc.gz", FileStats{RecordsProcessed: 1000, DocumentsFound: 40}))
	require.NoError(t, s.MarkPhaseFile(2, 0, "a_legal", FileStats{DocumentsFound: 12}))
	require.NoError(t, s.MarkPhaseFile(3, 0, "a_legal", FileStats{DocumentsFound: 7, TokensUsed: 3500}))

	agg := s.Record().Aggregates
	assert.Equal(t, 1000, agg.RecordsProcessed)
	assert.Equal(t, 40, agg.DocumentsFoundPhase1)
	assert.Equal(t, 12, agg.DocumentsFilteredPhase2)
	assert.Equal(t, 7, agg.DocumentsAnalyzedPhase3)
	assert.Equal(t, 3500, agg.TokensUsed)
}

func TestPhaseCompletionSurvivesReopen(t *testing.T) {
	s, path := tempStore(t)
	require.NoError(t, s.MarkPhaseComplete(1))
	require.NoError(t, s.MarkPhaseComplete(2))

	reopened := Open(path)
	assert.True(t, reopened.PhaseCompleted(1))
	assert.True(t, reopened.PhaseCompleted(2))
	assert.False(t, reopened.PhaseCompleted(3))
}

func TestForcePhaseClearsState(t *testing.T) {
	s, _ := tempStore(t)
	require.NoError(t, s.MarkPhaseFile(2, 3, "x.warc.gz", FileStats{DocumentsFound: 5}))
	require.NoError(t, s.MarkPhaseComplete(2))

	require.NoError(t, s.ForcePhase(2))
	assert.False(t, s.PhaseCompleted(2))
	assert.Zero(t, s.ResumeIndex(2))
	// Per-file stats survive so reprocessed files overwrite them in place.
	assert.Len(t, s.Record().Phases[1].Files, 1)
}

func TestReset(t *testing.T) {
	s, path := tempStore(t)
	require.NoError(t, s.SetDataset("CC-MAIN-2025-08", 10))
	require.NoError(t, s.MarkPhaseFile(1, 0, "a.warc.gz", FileStats{RecordsProcessed: 10}))
	oldID := s.Record().RunID

	require.NoError(t, s.Reset())
	rec := s.Record()
	assert.Empty(t, rec.Dataset)
	assert.Zero(t, rec.Aggregates.RecordsProcessed)
	assert.NotEqual(t, oldID, rec.RunID)

	reopened := Open(path)
	assert.Empty(t, reopened.Record().Dataset)
}

func TestSetDatasetStampsStartOnce(t *testing.T) {
	s, _ := tempStore(t)
	require.NoError(t, s.SetDataset("CC-MAIN-2025-08", 5))
	first := s.Record().StartTime
	require.False(t, first.IsZero())

	require.NoError(t, s.SetDataset("CC-MAIN-2025-08", 5))
	assert.Equal(t, first, s.Record().StartTime)
}
