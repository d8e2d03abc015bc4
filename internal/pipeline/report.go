package pipeline

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/legalcrawl/internal/atomicio"
	"github.com/sells-group/legalcrawl/internal/stage"
)

// Report is the structured end-of-run summary derived from the progress
// store's counters and the stage directory contents.
type Report struct {
	Dataset        string    `json:"dataset"`
	RunID          string    `json:"run_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	ProcessingSecs float64   `json:"processing_time_seconds"`
	FilesPlanned   int       `json:"files_planned"`

	Phase1 Phase1Report `json:"phase_1_fast_detection"`
	Phase2 Phase2Report `json:"phase_2_deep_filtering"`
	Phase3 Phase3Report `json:"phase_3_clause_analysis"`

	Artifacts map[string][]string `json:"artifacts"`
}

// Phase1Report summarizes fast detection.
type Phase1Report struct {
	RecordsProcessed int     `json:"records_processed"`
	DocumentsFound   int     `json:"documents_found"`
	DetectionRate    float64 `json:"detection_rate_pct"`
	ArchivesCreated  int     `json:"archives_created"`
}

// Phase2Report summarizes deep filtering.
type Phase2Report struct {
	InputDocuments    int     `json:"input_documents"`
	FilteredDocuments int     `json:"filtered_documents"`
	FilterRate        float64 `json:"filter_rate_pct"`
	ArchivesKept      int     `json:"archives_kept"`
	MetadataFiles     int     `json:"metadata_files"`
}

// Phase3Report summarizes clause analysis.
type Phase3Report struct {
	InputDocuments    int     `json:"input_documents"`
	DocumentsAnalyzed int     `json:"documents_analyzed"`
	TokensUsed        int     `json:"tokens_used"`
	EstimatedCostUSD  float64 `json:"estimated_cost_usd"`
	ArchivesKept      int     `json:"archives_kept"`
	AnalysisFiles     int     `json:"analysis_files"`
}

// buildReport derives the summary from the current progress snapshot. It
// mutates no pipeline state.
func (p *Pipeline) buildReport(elapsed time.Duration) *Report {
	rec := p.progress.Record()
	agg := rec.Aggregates

	rep := &Report{
		Dataset:        rec.Dataset,
		RunID:          rec.RunID,
		GeneratedAt:    time.Now().UTC(),
		ProcessingSecs: elapsed.Seconds(),
		FilesPlanned:   rec.TotalFiles,
		Phase1: Phase1Report{
			RecordsProcessed: agg.RecordsProcessed,
			DocumentsFound:   agg.DocumentsFoundPhase1,
			DetectionRate:    ratePct(agg.DocumentsFoundPhase1, agg.RecordsProcessed),
		},
		Phase2: Phase2Report{
			InputDocuments:    agg.DocumentsFoundPhase1,
			FilteredDocuments: agg.DocumentsFilteredPhase2,
			FilterRate:        ratePct(agg.DocumentsFilteredPhase2, agg.DocumentsFoundPhase1),
		},
		Phase3: Phase3Report{
			InputDocuments:    agg.DocumentsFilteredPhase2,
			DocumentsAnalyzed: agg.DocumentsAnalyzedPhase3,
			TokensUsed:        agg.TokensUsed,
			EstimatedCostUSD:  p.costCalc.ClaudeBlended(p.cfg.Anthropic.Model, agg.TokensUsed),
		},
		Artifacts: make(map[string][]string),
	}

	for name, dir := range map[string]string{
		stage.Phase1DirName: p.dirs.Phase1,
		stage.Phase2DirName: p.dirs.Phase2,
		stage.Phase3DirName: p.dirs.Phase3,
	} {
		archives, err := stage.ListArchives(dir)
		if err != nil {
			continue
		}
		names := make([]string, len(archives))
		for i, a := range archives {
			names[i] = filepath.Base(a)
		}
		rep.Artifacts[name] = names
		switch dir {
		case p.dirs.Phase1:
			rep.Phase1.ArchivesCreated = len(archives)
		case p.dirs.Phase2:
			rep.Phase2.ArchivesKept = len(archives)
			rep.Phase2.MetadataFiles = countGlob(dir, "*_metadata.json")
		case p.dirs.Phase3:
			rep.Phase3.ArchivesKept = len(archives)
			rep.Phase3.AnalysisFiles = countGlob(dir, "*_analysis.json")
		}
	}
	return rep
}

// Markdown renders the human-readable summary.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Legal Crawl Analysis Report: %s\n\n", r.Dataset)
	fmt.Fprintf(&b, "**Generated:** %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Run ID:** %s\n", r.RunID)
	fmt.Fprintf(&b, "**Processing Time:** %.2f seconds\n", r.ProcessingSecs)
	fmt.Fprintf(&b, "**Files Planned:** %d\n\n", r.FilesPlanned)

	b.WriteString("## Phase 1: Fast Detection\n")
	fmt.Fprintf(&b, "- Records processed: %d\n", r.Phase1.RecordsProcessed)
	fmt.Fprintf(&b, "- Documents found: %d\n", r.Phase1.DocumentsFound)
	fmt.Fprintf(&b, "- Detection rate: %.4f%%\n", r.Phase1.DetectionRate)
	fmt.Fprintf(&b, "- Archives created: %d\n\n", r.Phase1.ArchivesCreated)

	b.WriteString("## Phase 2: Deep Filtering\n")
	fmt.Fprintf(&b, "- Input documents: %d\n", r.Phase2.InputDocuments)
	fmt.Fprintf(&b, "- Filtered documents: %d\n", r.Phase2.FilteredDocuments)
	fmt.Fprintf(&b, "- Filter rate: %.2f%%\n", r.Phase2.FilterRate)
	fmt.Fprintf(&b, "- Archives kept: %d\n", r.Phase2.ArchivesKept)
	fmt.Fprintf(&b, "- Metadata files: %d\n\n", r.Phase2.MetadataFiles)

	b.WriteString("## Phase 3: Clause Analysis\n")
	fmt.Fprintf(&b, "- Input documents: %d\n", r.Phase3.InputDocuments)
	fmt.Fprintf(&b, "- Documents analyzed: %d\n", r.Phase3.DocumentsAnalyzed)
	fmt.Fprintf(&b, "- Tokens used: %d\n", r.Phase3.TokensUsed)
	fmt.Fprintf(&b, "- Estimated cost: $%.2f\n", r.Phase3.EstimatedCostUSD)
	fmt.Fprintf(&b, "- Archives kept: %d\n", r.Phase3.ArchivesKept)
	fmt.Fprintf(&b, "- Analysis files: %d\n\n", r.Phase3.AnalysisFiles)

	b.WriteString("## Output Layout\n```\n")
	fmt.Fprintf(&b, "%s/\n", r.Dataset)
	fmt.Fprintf(&b, "├── %s/   # archives with potential legal documents\n", stage.Phase1DirName)
	fmt.Fprintf(&b, "├── %s/   # filtered archives + metadata sidecars\n", stage.Phase2DirName)
	fmt.Fprintf(&b, "├── %s/   # final archives + clause analyses\n", stage.Phase3DirName)
	b.WriteString("├── report.json\n")
	b.WriteString("└── report.md\n```\n")

	return b.String()
}

// writeReport persists the structured and human-readable forms into the
// dataset root.
func (p *Pipeline) writeReport(r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal report")
	}
	if err := atomicio.WriteFile(filepath.Join(p.dirs.Root, "report.json"), data); err != nil {
		return err
	}
	return atomicio.WriteFile(filepath.Join(p.dirs.Root, "report.md"), []byte(r.Markdown()))
}

func ratePct(part, whole int) float64 {
	if whole <= 0 {
		whole = 1
	}
	return float64(part) / float64(whole) * 100
}

func countGlob(dir, pattern string) int {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}
	return len(matches)
}
