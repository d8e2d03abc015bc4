// Package progress persists the pipeline's per-phase completion state and
// aggregate counters. Every mutation is written through to disk with an
// atomic replace, so no in-memory-only state survives a crash. Unreadable or
// structurally incompatible state falls back to a fresh default record.
package progress

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalcrawl/internal/atomicio"
)

// currentVersion guards the persisted structure; any mismatch is treated as
// absent state.
const currentVersion = 1

// NumPhases is the number of pipeline phases tracked.
const NumPhases = 3

// FileStats records the outcome of one archive file within a phase.
type FileStats struct {
	RecordsProcessed int       `json:"records_processed,omitempty"`
	DocumentsFound   int       `json:"documents_found"`
	TokensUsed       int       `json:"tokens_used,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// PhaseState is the persisted state of one phase.
type PhaseState struct {
	Completed bool `json:"completed"`
	// NextFileIndex is the index of the first file not yet completed. A
	// resumed run starts here; a crash mid-file reprocesses only that file.
	NextFileIndex int                  `json:"next_file_index"`
	Files         map[string]FileStats `json:"files"`
}

// Aggregates are derived counters, recomputed from per-file stats on every
// save so reprocessing a file can never double-count.
type Aggregates struct {
	RecordsProcessed        int `json:"records_processed"`
	DocumentsFoundPhase1    int `json:"documents_found_phase1"`
	DocumentsFilteredPhase2 int `json:"documents_filtered_phase2"`
	DocumentsAnalyzedPhase3 int `json:"documents_analyzed_phase3"`
	TokensUsed              int `json:"tokens_used"`
}

// Record is the persisted progress structure for one pipeline run.
type Record struct {
	Version    int                   `json:"version"`
	RunID      string                `json:"run_id"`
	Dataset    string                `json:"dataset"`
	StartTime  time.Time             `json:"start_time"`
	TotalFiles int                   `json:"total_files"`
	Phases     [NumPhases]PhaseState `json:"phases"`
	Aggregates Aggregates            `json:"aggregates"`
}

func defaultRecord() *Record {
	rec := &Record{
		Version: currentVersion,
		RunID:   uuid.NewString(),
	}
	for i := range rec.Phases {
		rec.Phases[i].Files = make(map[string]FileStats)
	}
	return rec
}

// Store is the durable progress store. It is the orchestrator's single piece
// of mutable shared state; only atomic-replace-on-write is needed.
type Store struct {
	path string
	rec  *Record
}

// Open loads the progress file at path, creating a default record when the
// file is absent, unreadable, or from an incompatible version.
func Open(path string) *Store {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("progress: unreadable state, starting fresh",
				zap.String("path", path), zap.Error(err))
		}
		s.rec = defaultRecord()
		return s
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Version != currentVersion {
		zap.L().Warn("progress: corrupt or incompatible state, starting fresh",
			zap.String("path", path), zap.Error(err))
		s.rec = defaultRecord()
		return s
	}
	for i := range rec.Phases {
		if rec.Phases[i].Files == nil {
			rec.Phases[i].Files = make(map[string]FileStats)
		}
	}
	s.rec = &rec
	return s
}

// Record exposes the current in-memory state for reporting. Callers must not
// mutate it.
func (s *Store) Record() *Record {
	return s.rec
}

// SetDataset records the dataset identity and planned file count, stamping
// the start time on first use.
func (s *Store) SetDataset(name string, totalFiles int) error {
	s.rec.Dataset = name
	s.rec.TotalFiles = totalFiles
	if s.rec.StartTime.IsZero() {
		s.rec.StartTime = time.Now().UTC()
	}
	return s.Save()
}

// MarkPhaseFile records completion of one file within a phase and persists
// immediately. fileIndex is the position just completed; the resume point
// advances past it.
func (s *Store) MarkPhaseFile(phase, fileIndex int, name string, stats FileStats) error {
	ps := s.phase(phase)
	if stats.Timestamp.IsZero() {
		stats.Timestamp = time.Now().UTC()
	}
	ps.Files[name] = stats
	if fileIndex+1 > ps.NextFileIndex {
		ps.NextFileIndex = fileIndex + 1
	}
	return s.Save()
}

// MarkPhaseComplete marks a phase finished.
func (s *Store) MarkPhaseComplete(phase int) error {
	s.phase(phase).Completed = true
	return s.Save()
}

// ForcePhase clears a phase's completion flag and resume point so it re-runs.
func (s *Store) ForcePhase(phase int) error {
	ps := s.phase(phase)
	ps.Completed = false
	ps.NextFileIndex = 0
	return s.Save()
}

// PhaseCompleted reports whether a phase has finished.
func (s *Store) PhaseCompleted(phase int) bool {
	return s.phase(phase).Completed
}

// ResumeIndex returns the file index a resumed run of the phase starts at.
func (s *Store) ResumeIndex(phase int) int {
	return s.phase(phase).NextFileIndex
}

// Save recomputes aggregates and persists the record atomically.
func (s *Store) Save() error {
	s.recompute()
	data, err := json.MarshalIndent(s.rec, "", "  ")
	if err != nil {
		return eris.Wrap(err, "progress: marshal state")
	}
	if err := atomicio.WriteFile(s.path, data); err != nil {
		return eris.Wrap(err, "progress: persist state")
	}
	return nil
}

// Reset restores the default structure and persists it.
func (s *Store) Reset() error {
	s.rec = defaultRecord()
	return s.Save()
}

func (s *Store) phase(n int) *PhaseState {
	return &s.rec.Phases[n-1]
}

func (s *Store) recompute() {
	agg := Aggregates{}
	for _, st := range s.rec.Phases[0].Files {
		agg.RecordsProcessed += st.RecordsProcessed
		agg.DocumentsFoundPhase1 += st.DocumentsFound
	}
	for _, st := range s.rec.Phases[1].Files {
		agg.DocumentsFilteredPhase2 += st.DocumentsFound
	}
	for _, st := range s.rec.Phases[2].Files {
		agg.DocumentsAnalyzedPhase3 += st.DocumentsFound
		agg.TokensUsed += st.TokensUsed
	}
	s.rec.Aggregates = agg
}
