// Package results persists accumulating result sets. The analysis store
// rewrites its complete snapshot (JSON and CSV) after every append: phase-3
// classification calls are slow and costly, and already-computed rows must
// survive a crash while readers never observe a half-written file.
package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/legalcrawl/internal/atomicio"
	"github.com/sells-group/legalcrawl/internal/model"
)

// Store accumulates analysis rows for one archive, deduplicated by
// (url, archive file), and snapshots the full set on every append.
type Store struct {
	jsonPath string
	csvPath  string
	rows     []model.AnalysisRow
	seen     map[[2]string]struct{}
}

// NewStore creates a store writing snapshots to the given paths.
func NewStore(jsonPath, csvPath string) *Store {
	return &Store{
		jsonPath: jsonPath,
		csvPath:  csvPath,
		seen:     make(map[[2]string]struct{}),
	}
}

// Append adds a row and persists the complete accumulated set. A row whose
// key is already present is dropped without rewriting.
func (s *Store) Append(row model.AnalysisRow) error {
	url, file := row.Key()
	key := [2]string{url, file}
	if _, dup := s.seen[key]; dup {
		return nil
	}
	s.seen[key] = struct{}{}
	s.rows = append(s.rows, row)
	return s.flush()
}

// Rows returns the accumulated rows in append order.
func (s *Store) Rows() []model.AnalysisRow {
	return s.rows
}

// Len returns the number of accumulated rows.
func (s *Store) Len() int {
	return len(s.rows)
}

func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.rows, "", "  ")
	if err != nil {
		return eris.Wrap(err, "results: marshal analysis rows")
	}
	if err := atomicio.WriteFile(s.jsonPath, data); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"url", "domain", "archive_file", "copyright_clauses", "access_level",
		"tpm_count", "liability_count", "jurisdiction_count", "licensing_count",
		"clean_text_length", "tokens_used", "timestamp",
	}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "results: write csv header")
	}
	for _, r := range s.rows {
		rec := []string{
			r.URL,
			r.Domain,
			r.ArchiveFile,
			strconv.Itoa(len(r.Analysis.CopyrightClauses)),
			r.Analysis.AccessLevel.Level,
			strconv.Itoa(len(r.Analysis.TechnicalProtectionMeasures)),
			strconv.Itoa(len(r.Analysis.LiabilityClauses)),
			strconv.Itoa(len(r.Analysis.JurisdictionClauses)),
			strconv.Itoa(len(r.Analysis.DataLicensing)),
			strconv.Itoa(r.CleanTextLength),
			strconv.Itoa(r.TokensUsed),
			r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "results: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "results: flush csv")
	}
	return atomicio.WriteFile(s.csvPath, buf.Bytes())
}

// WriteDocumentMeta writes the phase-2 metadata sidecars (JSON plus CSV) for
// one archive in a single atomic shot.
func WriteDocumentMeta(jsonPath, csvPath string, docs []model.DocumentMeta) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return eris.Wrap(err, "results: marshal document metadata")
	}
	if err := atomicio.WriteFile(jsonPath, data); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"url", "domain", "archive_file", "confidence", "detection_method",
		"document_types", "html_length", "clean_text_length", "timestamp",
	}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "results: write metadata csv header")
	}
	for _, d := range docs {
		rec := []string{
			d.URL,
			d.Domain,
			d.ArchiveFile,
			strconv.FormatFloat(d.Confidence, 'f', 4, 64),
			d.DetectionMethod,
			strings.Join(d.DocumentTypes, ";"),
			strconv.Itoa(d.HTMLLength),
			strconv.Itoa(d.CleanTextLength),
			d.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrap(err, "results: write metadata csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "results: flush metadata csv")
	}
	return atomicio.WriteFile(csvPath, buf.Bytes())
}
