// Package model defines the domain types shared across the legalcrawl pipeline.
package model

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DocumentMeta describes one document retained by the phase-2 filter. One row
// is written per retained document into the archive's metadata sidecar.
type DocumentMeta struct {
	URL             string    `json:"url" csv:"url"`
	Domain          string    `json:"domain" csv:"domain"`
	ArchiveFile     string    `json:"archive_file" csv:"archive_file"`
	Confidence      float64   `json:"confidence" csv:"confidence"`
	DetectionMethod string    `json:"detection_method" csv:"detection_method"`
	DocumentTypes   []string  `json:"document_types" csv:"document_types"`
	HTMLLength      int       `json:"html_length" csv:"html_length"`
	CleanTextLength int       `json:"clean_text_length" csv:"clean_text_length"`
	Timestamp       time.Time `json:"timestamp" csv:"timestamp"`
}

// CopyrightClause is a single classified copyright clause.
type CopyrightClause struct {
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context"`
}

// AccessLevel describes how accessible a page is to automated clients.
type AccessLevel struct {
	Level      string   `json:"level"`
	Indicators []string `json:"indicators"`
	Confidence float64  `json:"confidence"`
}

// Analysis is the structured clause analysis returned by the classification
// collaborator for one document.
type Analysis struct {
	CopyrightClauses            []CopyrightClause `json:"copyright_clauses"`
	AccessLevel                 AccessLevel       `json:"access_level"`
	TechnicalProtectionMeasures []string          `json:"technical_protection_measures"`
	LiabilityClauses            []string          `json:"liability_clauses"`
	JurisdictionClauses         []string          `json:"jurisdiction_clauses"`
	DataLicensing               []string          `json:"data_licensing"`
}

// EmptyAnalysis returns the well-defined empty analysis substituted when the
// classification call fails or returns malformed output.
func EmptyAnalysis() Analysis {
	return Analysis{
		CopyrightClauses: []CopyrightClause{},
		AccessLevel: AccessLevel{
			Level:      "L0_OPEN_ACCESS",
			Indicators: []string{},
		},
		TechnicalProtectionMeasures: []string{},
		LiabilityClauses:            []string{},
		JurisdictionClauses:         []string{},
		DataLicensing:               []string{},
	}
}

// AnalysisRow is one phase-3 result row: the clause analysis for a single
// document plus bookkeeping. Rows are keyed by (URL, ArchiveFile).
type AnalysisRow struct {
	URL             string    `json:"url"`
	Domain          string    `json:"domain"`
	ArchiveFile     string    `json:"archive_file"`
	Analysis        Analysis  `json:"analysis"`
	CleanTextLength int       `json:"clean_text_length"`
	TokensUsed      int       `json:"tokens_used"`
	Timestamp       time.Time `json:"timestamp"`
}

// Key returns the deduplication key for the row.
func (r AnalysisRow) Key() (string, string) {
	return r.URL, r.ArchiveFile
}

// RegistrableDomain extracts the registrable domain (eTLD+1) from a URL,
// falling back to the raw host when the public suffix list has no answer.
func RegistrableDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
